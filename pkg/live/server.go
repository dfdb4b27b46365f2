package live

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/netgraph"
)

//go:embed assets
var assets embed.FS

// Options configures a Server.
type Options struct {
	// Component options applied to every session's diagram.
	Component netgraph.Options
	// Interval between simulation frames. Default 1/60s.
	Interval time.Duration
	// QueueSize bounds each session's pending input events. Default 1024.
	QueueSize int
	// Registry receives the server's metrics. A private registry is used if nil.
	Registry *prometheus.Registry
	Logger   logr.Logger
}

// Server hosts network diagrams over WebSocket. Each connection gets its own
// component driven by its own frame loop; the server mirrors the scene to the
// browser as patch frames.
type Server struct {
	opts     Options
	log      logr.Logger
	upgrader websocket.Upgrader
	registry *prometheus.Registry
	metrics  *Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
	data     *graphdata.Data
}

// NewServer creates a new live protocol server
func NewServer(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	return &Server{
		opts: opts,
		log:  opts.Logger.WithName("live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		registry: opts.Registry,
		metrics:  newMetrics(opts.Registry),
		sessions: make(map[string]*Session),
	}
}

// Metrics returns the server's metric collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// SetData validates d and assigns it to every connected session. Sessions that
// connect later start from the same data. An invalid data set is rejected and
// sessions keep their current diagram.
func (s *Server) SetData(d graphdata.Data) error {
	if err := graphdata.NewHolder().Assign(d); err != nil {
		return err
	}
	s.mu.Lock()
	s.data = &d
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.assign(d)
	}
	s.log.Info("data set", "nodes", len(d.Nodes), "links", len(d.Links), "sessions", len(sessions))
	return nil
}

// Data returns the current data set, if any.
func (s *Server) Data() (graphdata.Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return graphdata.Data{}, false
	}
	return *s.data, true
}

// Handler returns the HTTP handler serving the client page, the WebSocket
// endpoint, the current data set and metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	static, _ := fs.Sub(assets, "assets")
	mux.Handle("/", http.FileServer(http.FS(static)))
	mux.HandleFunc("/live", s.HandleWebSocket)
	mux.HandleFunc("/data.json", s.handleData)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	d, ok := s.Data()
	if !ok {
		http.Error(w, "no data", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d); err != nil {
		s.log.Error(err, "failed to write data")
	}
}

// HandleWebSocket handles WebSocket upgrade and session management
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error(err, "failed to upgrade connection")
		return
	}

	sess := newSession(s, conn)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	data := s.data
	s.mu.Unlock()
	s.metrics.Sessions.Inc()

	// HELLO is queued before any patch frame the data assignment produces.
	sess.sendHello()
	if data != nil {
		sess.assign(*data)
	}
	go func() {
		sess.handleConnection()
		s.removeSession(sess.ID)
	}()
}

// GetSession retrieves a session by ID
func (s *Server) GetSession(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.metrics.Sessions.Dec()
	}
}

// Close disconnects every session.
func (s *Server) Close() {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()
	for _, sess := range sessions {
		sess.Close()
	}
}

// ListenAndServe serves Handler on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.Close()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Selection is the node record carried by a SELECT control message: the
// node as supplied, its position, and its pin when it has one.
type Selection struct {
	graphdata.RawNode
	FX *float64 `json:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty"`
}

func encodeSelect(n graphdata.Node) ([]byte, error) {
	x, y := n.X, n.Y
	sel := Selection{RawNode: graphdata.RawNode{ID: n.ID, Label: n.Label, Category: n.Category, IsRoot: n.IsRoot, X: &x, Y: &y}}
	if n.FX != nil && n.FY != nil {
		fx, fy := *n.FX, *n.FY
		sel.FX, sel.FY = &fx, &fy
	}
	b, err := json.Marshal(sel)
	if err != nil {
		return nil, err
	}
	return EncodeControl(ControlSelect, string(bytes.TrimSpace(b))), nil
}
