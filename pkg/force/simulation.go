// Package force implements the force-directed layout solver.
//
// A Simulation integrates link springs, many-body charge and two centering forces
// over a node set using velocity Verlet with a decaying energy parameter, alpha.
// It advances one tick per frame of the scheduler it is started on and stops once
// alpha falls below AlphaMin, unless an alpha target keeps it warm.
package force

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/spatial/barneshut"

	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/scheduler"
)

// Frames is the timing source a simulation registers its tick callback with.
type Frames interface {
	Register(fn scheduler.FrameFunc) *scheduler.Registration
}

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Simulation is a force layout over a fixed node and link set.
type Simulation struct {
	opts Options
	log  logr.Logger
	rng  *rand.Rand

	nodes []*graphdata.Node
	links []*graphdata.Link

	linkStrength []float64
	linkBias     []float64

	bodies []barneshut.Particle2
	plane  *barneshut.Plane

	alpha       float64
	alphaTarget float64
	ticks       int

	onTick func()
	onEnd  func()
	frames Frames
	reg    *scheduler.Registration
}

// New creates a simulation over nodes and the links between them. Links with an
// endpoint outside nodes are ignored. Nodes without a position are placed on a
// phyllotaxis spiral around the origin.
func New(nodes []*graphdata.Node, links []*graphdata.Link, opts Options) *Simulation {
	opts = opts.withDefaults()
	s := &Simulation{
		opts:  opts,
		log:   opts.Logger,
		rng:   newRand(opts.Seed),
		nodes: append([]*graphdata.Node(nil), nodes...),
		alpha: 1,
	}

	member := make(map[*graphdata.Node]bool, len(nodes))
	for _, n := range s.nodes {
		member[n] = true
	}
	for _, l := range links {
		if member[l.Source] && member[l.Target] {
			s.links = append(s.links, l)
		}
	}

	s.initNodes()
	s.initLinks()
	return s
}

func (s *Simulation) initNodes() {
	s.bodies = make([]barneshut.Particle2, len(s.nodes))
	for i, n := range s.nodes {
		if n.Pinned() {
			n.X, n.Y = *n.FX, *n.FY
		}
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			r := 10 * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			n.X = r * math.Cos(a)
			n.Y = r * math.Sin(a)
		}
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			n.VX, n.VY = 0, 0
		}
		s.bodies[i] = &body{n: n}
	}
}

// initLinks computes per-link strength and bias from endpoint degrees.
func (s *Simulation) initLinks() {
	count := make(map[*graphdata.Node]int, len(s.nodes))
	for _, l := range s.links {
		count[l.Source]++
		count[l.Target]++
	}
	s.linkStrength = make([]float64, len(s.links))
	s.linkBias = make([]float64, len(s.links))
	for i, l := range s.links {
		cs, ct := float64(count[l.Source]), float64(count[l.Target])
		s.linkStrength[i] = 1 / math.Min(cs, ct)
		s.linkBias[i] = cs / (cs + ct)
	}
}

// Step advances the simulation by one tick without invoking callbacks.
func (s *Simulation) Step() {
	if len(s.nodes) == 0 {
		return
	}
	s.alpha += (s.alphaTarget - s.alpha) * s.opts.AlphaDecay
	alpha := s.alpha

	s.applyLinks(alpha)
	s.applyManyBody(alpha)
	s.applyCenter(alpha)

	decay := 1 - s.opts.VelocityDecay
	for _, n := range s.nodes {
		if n.FX != nil {
			n.X, n.VX = *n.FX, 0
		} else {
			n.VX *= decay
			n.X += n.VX
		}
		if n.FY != nil {
			n.Y, n.VY = *n.FY, 0
		} else {
			n.VY *= decay
			n.Y += n.VY
		}
	}
	s.ticks++
}

// Settle steps the simulation synchronously until it cools or max ticks have
// run, and returns the number of ticks taken.
func (s *Simulation) Settle(max int) int {
	n := 0
	for n < max && len(s.nodes) > 0 && s.alpha >= s.opts.AlphaMin {
		s.Step()
		n++
	}
	return n
}

// Start registers the tick callback with frames. Each frame advances one tick and
// then invokes the tick handler. An empty simulation never registers.
func (s *Simulation) Start(frames Frames) {
	if len(s.nodes) == 0 || s.reg.Active() {
		return
	}
	s.log.V(1).Info("simulation start", "nodes", len(s.nodes), "links", len(s.links), "alpha", s.alpha)
	s.reg = frames.Register(s.frame)
	s.frames = frames
}

func (s *Simulation) frame(time.Time) {
	s.Step()
	if s.onTick != nil {
		s.onTick()
	}
	if s.alpha < s.opts.AlphaMin {
		s.reg.Cancel()
		s.log.V(1).Info("simulation end", "ticks", s.ticks)
		if s.onEnd != nil {
			s.onEnd()
		}
	}
}

// Stop deregisters the tick callback. No tick handler runs after Stop returns.
func (s *Simulation) Stop() {
	s.reg.Cancel()
}

// Restart resumes ticking on the frames source the simulation was last started on.
func (s *Simulation) Restart() {
	if s.frames != nil {
		s.Start(s.frames)
	}
}

// Reheat raises alpha to at least a and resumes ticking.
func (s *Simulation) Reheat(a float64) {
	if s.alpha < a {
		s.alpha = a
	}
	s.Restart()
}

// Running returns true while the tick callback is registered.
func (s *Simulation) Running() bool { return s.reg.Active() }

// Alpha returns the current alpha.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the current alpha.
func (s *Simulation) SetAlpha(a float64) { s.alpha = a }

// AlphaTarget returns the value alpha decays toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the value alpha decays toward. A target above AlphaMin
// keeps the simulation running indefinitely.
func (s *Simulation) SetAlphaTarget(a float64) { s.alphaTarget = a }

// Ticks returns the number of ticks taken so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Nodes returns the simulated nodes.
func (s *Simulation) Nodes() []*graphdata.Node { return s.nodes }

// Links returns the simulated links.
func (s *Simulation) Links() []*graphdata.Link { return s.links }

// OnTick sets the handler invoked after every scheduled tick, replacing any
// previous handler. A nil handler detaches.
func (s *Simulation) OnTick(fn func()) { s.onTick = fn }

// OnEnd sets the handler invoked when the simulation cools and stops.
func (s *Simulation) OnEnd(fn func()) { s.onEnd = fn }

// Pin fixes n at (x, y). Its position is updated at once and its velocity cleared.
func (s *Simulation) Pin(n *graphdata.Node, x, y float64) {
	fx, fy := x, y
	n.FX, n.FY = &fx, &fy
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
}

// Unpin releases n to the simulation.
func (s *Simulation) Unpin(n *graphdata.Node) {
	n.FX, n.FY = nil, nil
}
