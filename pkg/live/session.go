package live

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/netgraph"
	"github.com/recera/netgraph/pkg/scheduler"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
	// Bounds a single inbound frame. Events are a few dozen bytes.
	maxMessageSize = 4096
)

var errSendBufferFull = errors.New("send buffer full")

// Session is one connected client with its own diagram.
type Session struct {
	ID string

	server *Server
	log    logr.Logger
	conn   *websocket.Conn
	loop   *scheduler.Loop
	comp   *netgraph.Component

	lastSeq   uint64 // Patch frames sent; touched only on the loop goroutine.
	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
	loopDone  chan struct{}
	cancel    context.CancelFunc
}

func newSession(s *Server, conn *websocket.Conn) *Session {
	id := uuid.NewString()
	sess := &Session{
		ID:        id,
		server:    s,
		log:       s.log.WithValues("session", id),
		conn:      conn,
		loop:      scheduler.NewLoop(s.opts.QueueSize),
		sendChan:  make(chan []byte, sendBuffer),
		closeChan: make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
	opts := s.opts.Component
	if opts.Logger.GetSink() == nil {
		opts.Logger = sess.log
	}
	sess.comp = netgraph.New(sess.loop, &opts)
	sess.comp.OnSelect(sess.sendSelect)
	sess.comp.OnBuild(func() { s.metrics.Rebuilds.Inc() })

	sess.loop.SetInterval(s.opts.Interval)
	sess.loop.SetErrorHandler(func(err error) {
		sess.log.Error(err, "frame callback failed")
	})
	sess.loop.SetAfterBatch(sess.flush)

	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	go func() {
		defer close(sess.loopDone)
		sess.loop.Run(ctx)
	}()
	return sess
}

// Component returns the session's diagram. It must only be touched from tasks
// posted with Do.
func (s *Session) Component() *netgraph.Component { return s.comp }

// Do runs fn on the session's loop goroutine. Scene changes made by fn are
// sent to the client once fn returns.
func (s *Session) Do(fn func(c *netgraph.Component)) error {
	return s.loop.Post(func() { fn(s.comp) })
}

func (s *Session) assign(d graphdata.Data) {
	err := s.Do(func(c *netgraph.Component) {
		if err := c.Assign(d); err != nil {
			s.log.Error(err, "data rejected")
			s.sendControl(ControlError, err.Error())
		}
	})
	if err != nil {
		s.log.Error(err, "failed to queue data")
	}
}

// Close ends the session. The component is stopped once its loop exits.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.closeChan)
		s.conn.Close()
	})
}

// handleConnection manages the WebSocket connection for a session
func (s *Session) handleConnection() {
	defer func() {
		s.Close()
		<-s.loopDone
		s.comp.Close()
		s.log.V(1).Info("session closed")
	}()

	go s.writer()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.V(1).Info("unexpected close", "error", err.Error())
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if messageType == websocket.BinaryMessage {
			s.handleBinaryMessage(data)
		}
	}
}

// writer handles writing messages to the WebSocket
func (s *Session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-s.sendChan:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				s.log.V(1).Info("failed to write message", "error", err.Error())
				s.Close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}

		case <-s.closeChan:
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// sendHello sends the initial hello message: the session id and the number of
// patch frames already sent.
func (s *Session) sendHello() {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteBytes([]byte{byte(FrameControl)})
	enc.WriteString(ControlHello)
	enc.WriteString(s.ID)
	enc.WriteUvarint(0)
	s.send(buf.Bytes())
}

func (s *Session) sendControl(msg string, args ...string) {
	s.send(EncodeControl(msg, args...))
}

func (s *Session) sendSelect(n graphdata.Node) {
	b, err := encodeSelect(n)
	if err != nil {
		s.log.Error(err, "failed to encode selection")
		return
	}
	s.send(b)
}

// send queues a frame without blocking. A client that cannot keep up would
// fall out of sync with the scene, so overflowing the buffer closes the session.
func (s *Session) send(b []byte) bool {
	select {
	case <-s.closeChan:
		return false
	default:
	}
	select {
	case s.sendChan <- b:
		return true
	default:
		s.log.Info("send buffer full, closing session")
		s.server.metrics.Dropped.Inc()
		s.Close()
		return false
	}
}

// flush runs after every batch of tasks and every frame.
func (s *Session) flush() {
	if err := s.SendPatches(); err != nil && !errors.Is(err, errSendBufferFull) {
		s.log.Error(err, "failed to send patches")
	}
}

// SendPatches sends the scene changes accumulated since the last call. It must
// run on the session's loop goroutine.
func (s *Session) SendPatches() error {
	patches := s.comp.Flush()
	if len(patches) == 0 {
		return nil
	}
	data, err := EncodePatches(patches)
	if err != nil {
		return err
	}
	if !s.send(data) {
		return errSendBufferFull
	}
	s.lastSeq++
	s.server.metrics.Frames.Inc()
	s.server.metrics.Patches.Add(float64(len(patches)))
	return nil
}

// handleBinaryMessage processes binary protocol messages
func (s *Session) handleBinaryMessage(data []byte) {
	if len(data) == 0 {
		return
	}

	switch MessageType(data[0]) {
	case FrameEvent:
		evt, err := DecodeEvent(data)
		if err != nil {
			s.log.V(1).Info("failed to decode event", "error", err.Error())
			return
		}
		s.server.metrics.Events.WithLabelValues(evt.Type.String()).Inc()
		if err := s.loop.Post(func() { s.handleEvent(evt) }); err != nil {
			s.log.V(1).Info("event dropped", "type", evt.Type.String(), "error", err.Error())
		}

	case FrameControl:
		dec := NewDecoder(bytes.NewReader(data[1:]))
		msg, err := dec.ReadString()
		if err != nil {
			s.log.V(1).Info("failed to decode control message", "error", err.Error())
			return
		}
		switch msg {
		case ControlHello:
			lastSeq, err := dec.ReadUvarint()
			if err != nil {
				s.log.V(1).Info("failed to decode HELLO", "error", err.Error())
				return
			}
			s.log.V(1).Info("client hello", "lastSeq", lastSeq)
		case ControlPing:
			s.sendControl(ControlPong)
		case ControlResize:
			w, err1 := dec.ReadUvarint()
			h, err2 := dec.ReadUvarint()
			if err1 != nil || err2 != nil || w == 0 || h == 0 {
				return
			}
			s.Do(func(c *netgraph.Component) {
				c.Configure(func(c *netgraph.Component) {
					c.SetWidth(float64(w))
					c.SetHeight(float64(h))
				})
			})
		}
	}
}

// handleEvent applies a client event to the component. It runs on the loop.
func (s *Session) handleEvent(evt *Event) {
	p := r2.Vec{X: float64(evt.X), Y: float64(evt.Y)}
	pointer := int(evt.Pointer)
	switch evt.Type {
	case EventPointerDown:
		s.comp.PointerDown(pointer, evt.NodeID, p)
	case EventPointerMove:
		s.comp.PointerMove(pointer, p)
	case EventPointerUp:
		s.comp.PointerUp(pointer, p)
	case EventPointerCancel:
		s.comp.PointerCancel(pointer)
	case EventWheel:
		s.comp.Wheel(p, float64(evt.Delta))
	case EventZoom:
		s.comp.Zoom(float64(evt.Delta))
	case EventFit:
		s.comp.FitGraph(float64(evt.Delta))
	case EventResetView:
		s.comp.ResetView()
	default:
		s.log.V(1).Info("unknown event", "type", uint8(evt.Type))
	}
}
