// Package interact turns raw pointer input into diagram operations: selection,
// node dragging, pan and zoom of the view transform, and legend toggling.
//
// The controller never creates or destroys scene primitives. It only changes
// pin state (through the simulation), the hidden set (through OnToggle) and the
// view transform (through OnTransform); the owner of the scene repaints.
package interact

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/scene"
)

// Simulation is the part of the force simulation a drag acts on.
type Simulation interface {
	Pin(n *graphdata.Node, x, y float64)
	Unpin(n *graphdata.Node)
	SetAlphaTarget(a float64)
	Restart()
}

// State is the phase of a pointer gesture.
type State uint8

const (
	Idle State = iota
	Pressed
	Dragging
)

func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Config holds the controller parameters.
type Config struct {
	MinScale, MaxScale float64
	// ClickThreshold is the distance in view units a pointer may travel between
	// down and up and still count as a click.
	ClickThreshold float64
	// DragAlphaTarget keeps the simulation warm while any node is dragged.
	DragAlphaTarget float64
}

func (c Config) withDefaults() Config {
	if c.MinScale <= 0 {
		c.MinScale = 0.5
	}
	if c.MaxScale <= 0 {
		c.MaxScale = 10
	}
	if c.MaxScale < c.MinScale {
		c.MinScale, c.MaxScale = c.MaxScale, c.MinScale
	}
	if c.ClickThreshold < 0 {
		c.ClickThreshold = 0
	} else if c.ClickThreshold == 0 {
		c.ClickThreshold = 3
	}
	if c.DragAlphaTarget <= 0 {
		c.DragAlphaTarget = 0.3
	}
	return c
}

type gesture struct {
	state  State
	target scene.Target
	start  r2.Vec
	last   r2.Vec
	grab   r2.Vec
	moved  bool

	// Pin state before the press, restored by a click.
	fx, fy *float64
}

// Controller is the per-diagram interaction state machine. Every pointer is
// tracked independently, so several nodes can be dragged at once.
type Controller struct {
	cfg       Config
	sim       Simulation
	transform Transform
	enabled   bool
	gestures  map[int]*gesture
	drags     int

	// OnSelect receives a node clicked without movement.
	OnSelect func(n *graphdata.Node)
	// OnToggle receives a legend category to flip in the hidden set.
	OnToggle func(category string)
	// OnTransform receives every new view transform.
	OnTransform func(t Transform)
}

// NewController creates a controller acting on sim, which may be nil until
// data is assigned.
func NewController(cfg Config, sim Simulation) *Controller {
	return &Controller{
		cfg:       cfg.withDefaults(),
		sim:       sim,
		transform: Identity,
		enabled:   true,
		gestures:  make(map[int]*gesture),
	}
}

// Reset abandons every gesture in progress and binds the controller to sim.
// The view transform is kept.
func (c *Controller) Reset(sim Simulation) {
	if c.drags > 0 && c.sim != nil {
		c.sim.SetAlphaTarget(0)
	}
	c.sim = sim
	c.gestures = make(map[int]*gesture)
	c.drags = 0
}

// SetEnabled enables or disables selection and dragging. Pan, zoom and legend
// toggling stay available.
func (c *Controller) SetEnabled(enabled bool) { c.enabled = enabled }

// Enabled reports whether selection and dragging are enabled.
func (c *Controller) Enabled() bool { return c.enabled }

// Transform returns the current view transform.
func (c *Controller) Transform() Transform { return c.transform }

// Config returns the controller parameters.
func (c *Controller) Config() Config { return c.cfg }

// State returns the gesture state of a pointer.
func (c *Controller) State(pointer int) State {
	if g, ok := c.gestures[pointer]; ok {
		return g.state
	}
	return Idle
}

// Dragging returns the number of nodes currently being dragged.
func (c *Controller) Dragging() int { return c.drags }

// PointerDown starts a gesture for pointer at view point p over target t.
func (c *Controller) PointerDown(pointer int, t scene.Target, p r2.Vec) {
	if _, ok := c.gestures[pointer]; ok {
		c.PointerCancel(pointer)
	}
	g := &gesture{state: Pressed, target: t, start: p, last: p}
	switch t.Kind {
	case scene.TargetNode:
		if !c.enabled || c.sim == nil || t.Node == nil {
			return
		}
		n := t.Node
		g.fx, g.fy = n.FX, n.FY
		g.grab = r2.Sub(r2.Vec{X: n.X, Y: n.Y}, c.transform.Invert(p))
		if c.drags == 0 {
			c.sim.SetAlphaTarget(c.cfg.DragAlphaTarget)
			c.sim.Restart()
		}
		c.drags++
		c.sim.Pin(n, n.X, n.Y)
	case scene.TargetLegend, scene.TargetBackground:
	default:
		return
	}
	c.gestures[pointer] = g
}

// PointerMove continues the gesture of pointer at view point p. Moves of
// pointers without a gesture are ignored.
func (c *Controller) PointerMove(pointer int, p r2.Vec) {
	g, ok := c.gestures[pointer]
	if !ok {
		return
	}
	c.track(g, p)
	switch g.target.Kind {
	case scene.TargetNode:
		c.dragTo(g, p)
	case scene.TargetBackground:
		c.setTransform(c.transform.Translate(r2.Sub(p, g.last)))
	}
	g.last = p
}

// track latches the moved flag once the pointer leaves the click radius.
func (c *Controller) track(g *gesture, p r2.Vec) {
	if g.moved {
		return
	}
	d := r2.Sub(p, g.start)
	if d.X*d.X+d.Y*d.Y > c.cfg.ClickThreshold*c.cfg.ClickThreshold {
		g.moved = true
		g.state = Dragging
	}
}

func (c *Controller) dragTo(g *gesture, p r2.Vec) {
	q := r2.Add(c.transform.Invert(p), g.grab)
	c.sim.Pin(g.target.Node, q.X, q.Y)
}

// PointerUp ends the gesture of pointer at view point p. A node released
// without movement is selected and its previous pin state restored; a dragged
// node stays pinned where it was released.
func (c *Controller) PointerUp(pointer int, p r2.Vec) {
	g, ok := c.gestures[pointer]
	if !ok {
		return
	}
	delete(c.gestures, pointer)
	c.track(g, p)

	switch g.target.Kind {
	case scene.TargetNode:
		n := g.target.Node
		if g.moved {
			c.dragTo(g, p)
		} else {
			c.restorePin(n, g)
		}
		c.endDrag()
		if !g.moved && c.enabled && c.OnSelect != nil {
			c.OnSelect(n)
		}
	case scene.TargetBackground:
		c.setTransform(c.transform.Translate(r2.Sub(p, g.last)))
	case scene.TargetLegend:
		if !g.moved {
			c.LegendClick(g.target.Category)
		}
	}
}

// PointerCancel abandons the gesture of pointer. A dragged node stays pinned
// where it was; nothing is selected.
func (c *Controller) PointerCancel(pointer int) {
	g, ok := c.gestures[pointer]
	if !ok {
		return
	}
	delete(c.gestures, pointer)
	if g.target.Kind == scene.TargetNode {
		if !g.moved {
			c.restorePin(g.target.Node, g)
		}
		c.endDrag()
	}
}

func (c *Controller) restorePin(n *graphdata.Node, g *gesture) {
	if g.fx != nil && g.fy != nil {
		c.sim.Pin(n, *g.fx, *g.fy)
	} else {
		c.sim.Unpin(n)
	}
}

func (c *Controller) endDrag() {
	c.drags--
	if c.drags <= 0 {
		c.drags = 0
		c.sim.SetAlphaTarget(0)
	}
}

// LegendClick toggles a category. It is allowed while disabled.
func (c *Controller) LegendClick(category string) {
	if c.OnToggle != nil {
		c.OnToggle(category)
	}
}

// Wheel zooms around view point p. Positive deltaY zooms out.
func (c *Controller) Wheel(p r2.Vec, deltaY float64) {
	factor := 1 - math.Max(-0.5, math.Min(0.5, deltaY/500))
	c.setTransform(c.transform.ScaleAt(factor, p, c.cfg.MinScale, c.cfg.MaxScale))
}

// Zoom scales the view by factor around the view centre, composing with the
// current transform. The resulting scale is clamped.
func (c *Controller) Zoom(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	c.setTransform(c.transform.ScaleAt(factor, r2.Vec{}, c.cfg.MinScale, c.cfg.MaxScale))
}

// SetTransform replaces the view transform, clamping its scale.
func (c *Controller) SetTransform(t Transform) {
	if t.K == 0 {
		t.K = 1
	}
	c.setTransform(t.Clamp(c.cfg.MinScale, c.cfg.MaxScale))
}

func (c *Controller) setTransform(t Transform) {
	c.transform = t
	if c.OnTransform != nil {
		c.OnTransform(t)
	}
}
