// Package netgraph is the embeddable network diagram component.
//
// A Component ties together the data holder, the force simulation, the scene
// renderer and the interaction controller. The host assigns a data set, feeds
// pointer input, and receives selection events. All methods must be called
// from the goroutine that drives the component's frame source.
package netgraph

import (
	"io"
	"math"

	"github.com/go-logr/logr"

	"github.com/recera/netgraph/pkg/force"
	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/interact"
	"github.com/recera/netgraph/pkg/reactive"
	"github.com/recera/netgraph/pkg/scene"
)

// DefaultZoomFactor is the factor Zoom applies when given zero.
const DefaultZoomFactor = 2.0

// Component is a force-directed network diagram.
type Component struct {
	opts   Options
	log    logr.Logger
	frames force.Frames

	holder   *graphdata.Holder
	renderer *scene.Renderer
	ctrl     *interact.Controller
	sim      *force.Simulation

	// Bumped on every rebuild. Tick handlers bound to an older value are stale.
	generation uint64
	assigned   bool

	inputs                           *reactive.Scope
	width, height, radius, repulsion *reactive.State[float64]
	enabled                          *reactive.State[bool]

	onSelect []func(graphdata.Node)
	onBuild  []func()
}

// New creates a component whose simulation ticks on frames.
func New(frames force.Frames, opts *Options) *Component {
	o := opts.withDefaults()
	sc := reactive.NewScope()
	c := &Component{
		inputs:    sc,
		opts:      o,
		log:       o.Logger,
		frames:    frames,
		holder:    graphdata.NewHolder(),
		width:     reactive.In(sc, o.Width),
		height:    reactive.In(sc, o.Height),
		radius:    reactive.In(sc, o.NodeRadius),
		repulsion: reactive.In(sc, o.Repulsion),
		enabled:   reactive.In(sc, !o.Disabled),
	}
	c.renderer = scene.NewRenderer(c.sceneConfig())
	c.renderer.SetOpacity(c.enabled.Get())

	c.ctrl = interact.NewController(c.interactConfig(), nil)
	c.ctrl.SetEnabled(c.enabled.Get())
	c.ctrl.OnSelect = c.emitSelect
	c.ctrl.OnToggle = c.ToggleCategory
	c.ctrl.OnTransform = func(t interact.Transform) {
		c.renderer.SetTransform(t.X, t.Y, t.K)
	}

	// Dimensions take effect on a scene rebuild, repulsion on a fresh layout.
	relayout := reactive.NewEffect(func() { c.refresh(false) })
	c.width.Watch(relayout)
	c.height.Watch(relayout)
	c.radius.Watch(relayout)
	c.repulsion.Watch(reactive.NewEffect(func() { c.refresh(true) }))
	c.enabled.Watch(reactive.NewEffect(func() {
		e := c.enabled.Get()
		c.ctrl.SetEnabled(e)
		c.renderer.SetOpacity(e)
	}))
	return c
}

// Assign replaces the data set and starts a fresh layout. An invalid data set
// is rejected with an error and the current scene is left as it was.
func (c *Component) Assign(d graphdata.Data) error {
	if err := c.holder.Assign(d); err != nil {
		c.log.V(1).Info("data rejected", "error", err.Error())
		return err
	}
	c.assigned = true
	c.log.V(1).Info("data assigned", "nodes", len(d.Nodes), "links", len(d.Links),
		"categories", len(c.holder.Categories()))
	c.rebuild(true)
	return nil
}

func (c *Component) refresh(fresh bool) {
	if c.assigned {
		c.rebuild(fresh)
	}
}

// rebuild detaches the current tick handler, replaces the scene and, when
// fresh is set, replaces the simulation.
func (c *Component) rebuild(fresh bool) {
	c.generation++
	gen := c.generation

	if c.sim != nil {
		c.sim.OnTick(nil)
	}
	view := c.holder.Visible()
	if fresh || c.sim == nil {
		if c.sim != nil {
			c.sim.Stop()
		}
		nodes, links := c.holder.Nodes(), c.holder.Links()
		if c.opts.ExcludeHidden {
			nodes, links = view.Nodes, view.Links
		}
		c.sim = force.New(nodes, links, c.forceOptions())
	}
	c.ctrl.Reset(c.sim)

	c.renderer.Configure(c.sceneConfig())
	c.renderer.Build(view)
	c.log.V(1).Info("scene built", "generation", gen, "nodes", len(view.Nodes), "links", len(view.Links))

	c.sim.OnTick(func() {
		if gen != c.generation {
			return
		}
		c.renderer.Tick()
	})
	c.sim.Start(c.frames)

	for _, fn := range c.onBuild {
		fn()
	}
}

// ToggleCategory flips a category in the hidden set and rebuilds the scene.
func (c *Component) ToggleCategory(category string) {
	if !c.assigned {
		return
	}
	hidden := c.holder.Toggle(category)
	c.log.V(1).Info("category toggled", "category", category, "hidden", hidden)
	c.rebuild(c.opts.ExcludeHidden)
}

// OnSelect registers fn to receive the record of every node the user clicks.
func (c *Component) OnSelect(fn func(graphdata.Node)) {
	c.onSelect = append(c.onSelect, fn)
}

// OnBuild registers fn to run after every scene rebuild.
func (c *Component) OnBuild(fn func()) {
	c.onBuild = append(c.onBuild, fn)
}

func (c *Component) emitSelect(n *graphdata.Node) {
	c.log.V(1).Info("node selected", "id", n.ID)
	for _, fn := range c.onSelect {
		fn(*n)
	}
}

// SetWidth sets the view width. Negative values are taken as their magnitude.
func (c *Component) SetWidth(w float64) { c.width.Set(math.Abs(w)) }

// SetHeight sets the view height. Negative values are taken as their magnitude.
func (c *Component) SetHeight(h float64) { c.height.Set(math.Abs(h)) }

// SetNodeRadius sets the node radius.
func (c *Component) SetNodeRadius(r float64) {
	if r > 0 {
		c.radius.Set(r)
	}
}

// SetRepulsion sets the many-body strength; negative values repel.
func (c *Component) SetRepulsion(s float64) { c.repulsion.Set(s) }

// SetEnabled enables or disables selection and dragging. It applies at once.
func (c *Component) SetEnabled(enabled bool) { c.enabled.Set(enabled) }

// Configure applies several inputs with a single rebuild per kind.
func (c *Component) Configure(fn func(c *Component)) {
	c.inputs.RunBatch(func() { fn(c) })
}

func (c *Component) Width() float64      { return c.width.Get() }
func (c *Component) Height() float64     { return c.height.Get() }
func (c *Component) NodeRadius() float64 { return c.radius.Get() }
func (c *Component) Repulsion() float64  { return c.repulsion.Get() }
func (c *Component) Enabled() bool       { return c.enabled.Get() }

// Generation returns the rebuild counter.
func (c *Component) Generation() uint64 { return c.generation }

// Categories returns the legend categories.
func (c *Component) Categories() []string { return c.holder.Categories() }

// Hidden returns the hidden categories.
func (c *Component) Hidden() []string { return c.holder.Hidden() }

// IsHidden reports whether category is in the hidden set.
func (c *Component) IsHidden(category string) bool { return c.holder.IsHidden(category) }

// Node returns a copy of the node record with the given id.
func (c *Component) Node(id string) (graphdata.Node, bool) {
	n, ok := c.holder.Node(id)
	if !ok {
		return graphdata.Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all node records.
func (c *Component) Nodes() []graphdata.Node {
	nodes := c.holder.Nodes()
	out := make([]graphdata.Node, len(nodes))
	for i, n := range nodes {
		out[i] = *n
	}
	return out
}

// Links returns the held links.
func (c *Component) Links() []*graphdata.Link { return c.holder.Links() }

// Simulation returns the current simulation, or nil before data is assigned.
func (c *Component) Simulation() *force.Simulation { return c.sim }

// Renderer returns the scene renderer. Hosts read the scene from it.
func (c *Component) Renderer() *scene.Renderer { return c.renderer }

// Flush returns the scene patches accumulated since the last flush.
func (c *Component) Flush() []scene.Patch { return c.renderer.Flush() }

// WriteSVG writes the current scene as an SVG document.
func (c *Component) WriteSVG(w io.Writer) error { return c.renderer.WriteSVG(w) }

// Settle runs the simulation synchronously until it cools or max ticks have
// run, then repositions the scene. It returns the ticks taken.
func (c *Component) Settle(max int) int {
	if c.sim == nil {
		return 0
	}
	n := c.sim.Settle(max)
	c.renderer.Tick()
	return n
}

// Close stops the simulation. The scene is kept but no longer updated.
func (c *Component) Close() {
	c.generation++
	if c.sim != nil {
		c.sim.OnTick(nil)
		c.sim.Stop()
	}
	c.ctrl.Reset(nil)
}
