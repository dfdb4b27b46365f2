package netgraph

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/recera/netgraph/pkg/interact"
	"github.com/recera/netgraph/pkg/scene"
)

// Zoom scales the view around its centre by factor, composing with any pointer
// zoom. Zero means DefaultZoomFactor.
func (c *Component) Zoom(factor float64) {
	if factor == 0 {
		factor = DefaultZoomFactor
	}
	c.ctrl.Zoom(factor)
}

// Transform returns the current view transform.
func (c *Component) Transform() interact.Transform { return c.ctrl.Transform() }

// ResetView restores the identity transform.
func (c *Component) ResetView() { c.ctrl.SetTransform(interact.Identity) }

// FitGraph scales and centres the view so every visible node fits with padding
// view units to spare.
func (c *Component) FitGraph(padding float64) {
	nodes := c.renderer.Nodes()
	if len(nodes) == 0 {
		return
	}
	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, n := range nodes {
		lo.X, lo.Y = math.Min(lo.X, n.X), math.Min(lo.Y, n.Y)
		hi.X, hi.Y = math.Max(hi.X, n.X), math.Max(hi.Y, n.Y)
	}
	r := c.radius.Get()
	lo = r2.Sub(lo, r2.Vec{X: r, Y: r})
	hi = r2.Add(hi, r2.Vec{X: r, Y: r})
	cfg := c.ctrl.Config()
	c.ctrl.SetTransform(interact.Fit(lo, hi, c.width.Get(), c.height.Get(), padding, cfg.MinScale, cfg.MaxScale))
}

// FocusNode centres the view on a node at the given scale. A zero scale keeps
// the current one. It returns false if no node has that id.
func (c *Component) FocusNode(id string, scale float64) bool {
	n, ok := c.holder.Node(id)
	if !ok {
		return false
	}
	if scale == 0 {
		scale = c.ctrl.Transform().K
	}
	cfg := c.ctrl.Config()
	c.ctrl.SetTransform(interact.Focus(r2.Vec{X: n.X, Y: n.Y}, scale, cfg.MinScale, cfg.MaxScale))
	return true
}

// PointerDown starts a gesture on the scene element with the given id at view
// point p. Ids from a discarded scene are ignored.
func (c *Component) PointerDown(pointer int, element uint32, p r2.Vec) {
	t, ok := c.renderer.Lookup(element)
	if !ok {
		c.log.V(2).Info("stale pointer target", "element", element)
		return
	}
	c.ctrl.PointerDown(pointer, t, p)
}

// PointerDownAt starts a gesture on whatever is drawn at view point p. slack
// widens node shapes for coarse pointing devices.
func (c *Component) PointerDownAt(pointer int, p r2.Vec, slack float64) {
	c.ctrl.PointerDown(pointer, c.renderer.HitTest(p, slack), p)
}

// HitTest reports what is drawn at view point p.
func (c *Component) HitTest(p r2.Vec, slack float64) scene.Target {
	return c.renderer.HitTest(p, slack)
}

// PointerMove continues a gesture.
func (c *Component) PointerMove(pointer int, p r2.Vec) { c.ctrl.PointerMove(pointer, p) }

// PointerUp ends a gesture.
func (c *Component) PointerUp(pointer int, p r2.Vec) { c.ctrl.PointerUp(pointer, p) }

// PointerCancel abandons a gesture.
func (c *Component) PointerCancel(pointer int) { c.ctrl.PointerCancel(pointer) }

// Wheel zooms around view point p.
func (c *Component) Wheel(p r2.Vec, deltaY float64) { c.ctrl.Wheel(p, deltaY) }

// PointerState returns the gesture state of a pointer.
func (c *Component) PointerState(pointer int) interact.State { return c.ctrl.State(pointer) }
