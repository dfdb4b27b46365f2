package interact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/recera/netgraph/pkg/force"
	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/scene"
	"github.com/recera/netgraph/pkg/scheduler"
)

// fakeSim records the simulation calls a controller makes.
type fakeSim struct {
	force.Simulation
	targets  []float64
	restarts int
}

func (f *fakeSim) SetAlphaTarget(a float64) { f.targets = append(f.targets, a) }
func (f *fakeSim) Restart()                 { f.restarts++ }

func node(id string, x, y float64) *graphdata.Node {
	return &graphdata.Node{ID: id, X: x, Y: y}
}

func nodeTarget(n *graphdata.Node) scene.Target {
	return scene.Target{Kind: scene.TargetNode, Node: n}
}

func TestClickSelects(t *testing.T) {
	sim := &fakeSim{}
	c := NewController(Config{}, sim)
	var selected []*graphdata.Node
	c.OnSelect = func(n *graphdata.Node) { selected = append(selected, n) }

	n := node("n", 5, 5)
	c.PointerDown(1, nodeTarget(n), r2.Vec{X: 5, Y: 5})
	assert.Equal(t, Pressed, c.State(1))
	assert.True(t, n.Pinned())
	c.PointerMove(1, r2.Vec{X: 6, Y: 6}) // within the click radius
	c.PointerUp(1, r2.Vec{X: 6, Y: 6})

	require.Len(t, selected, 1)
	assert.Same(t, n, selected[0])
	assert.False(t, n.Pinned(), "a click restores the previous pin state")
	assert.Equal(t, Idle, c.State(1))
	assert.Equal(t, []float64{0.3, 0}, sim.targets)
}

func TestDragDoesNotSelect(t *testing.T) {
	sim := &fakeSim{}
	c := NewController(Config{}, sim)
	selected := 0
	c.OnSelect = func(*graphdata.Node) { selected++ }

	n := node("n", 0, 0)
	c.PointerDown(1, nodeTarget(n), r2.Vec{})
	c.PointerMove(1, r2.Vec{X: 10})
	assert.Equal(t, Dragging, c.State(1))
	// Returning inside the radius is still a drag.
	c.PointerMove(1, r2.Vec{X: 1})
	c.PointerUp(1, r2.Vec{X: 1})

	assert.Zero(t, selected)
	assert.True(t, n.Pinned())
	assert.Equal(t, 1.0, *n.FX)
}

func TestClickKeepsPriorPin(t *testing.T) {
	sim := &fakeSim{}
	c := NewController(Config{}, sim)
	n := node("n", 0, 0)
	sim.Pin(n, 7, 8)

	c.PointerDown(1, nodeTarget(n), r2.Vec{X: 7, Y: 8})
	c.PointerUp(1, r2.Vec{X: 7, Y: 8})
	require.True(t, n.Pinned())
	assert.Equal(t, 7.0, *n.FX)
	assert.Equal(t, 8.0, *n.FY)
}

func TestDisabled(t *testing.T) {
	sim := &fakeSim{}
	c := NewController(Config{}, sim)
	c.SetEnabled(false)
	selected := 0
	c.OnSelect = func(*graphdata.Node) { selected++ }
	var toggled []string
	c.OnToggle = func(cat string) { toggled = append(toggled, cat) }

	n := node("n", 0, 0)
	c.PointerDown(1, nodeTarget(n), r2.Vec{})
	c.PointerMove(1, r2.Vec{X: 50})
	c.PointerUp(1, r2.Vec{X: 50})
	assert.Zero(t, selected)
	assert.False(t, n.Pinned())
	assert.Zero(t, n.X)
	assert.Empty(t, sim.targets)

	legend := scene.Target{Kind: scene.TargetLegend, Category: "db"}
	c.PointerDown(2, legend, r2.Vec{})
	c.PointerUp(2, r2.Vec{})
	assert.Equal(t, []string{"db"}, toggled)

	c.Zoom(2)
	assert.Equal(t, 2.0, c.Transform().K)
}

func TestConcurrentDragsReheatOnce(t *testing.T) {
	sim := &fakeSim{}
	c := NewController(Config{}, sim)
	a, b := node("a", 0, 0), node("b", 10, 0)

	c.PointerDown(1, nodeTarget(a), r2.Vec{})
	c.PointerDown(2, nodeTarget(b), r2.Vec{X: 10})
	assert.Equal(t, 2, c.Dragging())
	assert.Equal(t, 1, sim.restarts)

	c.PointerMove(1, r2.Vec{X: -20})
	c.PointerUp(1, r2.Vec{X: -20})
	assert.Equal(t, []float64{0.3}, sim.targets, "stays warm while another drag is active")

	c.PointerMove(2, r2.Vec{X: 30})
	c.PointerUp(2, r2.Vec{X: 30})
	assert.Equal(t, []float64{0.3, 0}, sim.targets)
	assert.Equal(t, -20.0, a.X)
	assert.Equal(t, 30.0, b.X)
}

func TestDragUnderTransform(t *testing.T) {
	sim := &fakeSim{}
	c := NewController(Config{}, sim)
	c.SetTransform(Transform{X: 100, Y: 0, K: 2})

	n := node("n", 10, 10)
	start := c.Transform().Apply(r2.Vec{X: 10, Y: 10})
	c.PointerDown(1, nodeTarget(n), start)
	c.PointerMove(1, r2.Add(start, r2.Vec{X: 20, Y: -10}))
	c.PointerUp(1, r2.Add(start, r2.Vec{X: 20, Y: -10}))

	assert.InDelta(t, 20, n.X, 1e-9, "20 view units at scale 2")
	assert.InDelta(t, 5, n.Y, 1e-9)
}

func TestPan(t *testing.T) {
	c := NewController(Config{}, nil)
	var seen []Transform
	c.OnTransform = func(t Transform) { seen = append(seen, t) }

	bg := scene.Target{Kind: scene.TargetBackground}
	c.PointerDown(1, bg, r2.Vec{X: 1, Y: 1})
	c.PointerMove(1, r2.Vec{X: 11, Y: -4})
	c.PointerUp(1, r2.Vec{X: 21, Y: -9})

	assert.Equal(t, Transform{X: 20, Y: -10, K: 1}, c.Transform())
	assert.NotEmpty(t, seen)
}

func TestZoom(t *testing.T) {
	c := NewController(Config{MinScale: 0.5, MaxScale: 10}, nil)
	c.Zoom(2)
	c.Zoom(0.5)
	assert.InDelta(t, 1, c.Transform().K, 1e-12)

	for _, factor := range []float64{1e6, 1e-6, 3, 0.01} {
		c.Zoom(factor)
		k := c.Transform().K
		assert.GreaterOrEqual(t, k, 0.5)
		assert.LessOrEqual(t, k, 10.0)
	}
	c.Zoom(-1)
	c.Zoom(0)
	assert.InDelta(t, 0.5, c.Transform().K, 1e-12, "invalid factors are ignored")
}

func TestWheelAnchorsPointer(t *testing.T) {
	c := NewController(Config{}, nil)
	c.SetTransform(Transform{X: 30, Y: -10, K: 1.5})
	p := r2.Vec{X: 80, Y: 40}
	before := c.Transform().Invert(p)
	c.Wheel(p, -200)
	after := c.Transform().Invert(p)
	assert.Greater(t, c.Transform().K, 1.5)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestFitAndFocus(t *testing.T) {
	tr := Fit(r2.Vec{X: -100, Y: -50}, r2.Vec{X: 100, Y: 50}, 400, 300, 0, 0.5, 10)
	assert.Equal(t, Transform{K: 2}, tr)

	tr = Fit(r2.Vec{X: 10, Y: 10}, r2.Vec{X: 10, Y: 10}, 400, 300, 20, 0.5, 10)
	assert.Equal(t, 10.0, tr.K, "a single point fits at the maximum scale")
	assert.Equal(t, r2.Vec{}, tr.Apply(r2.Vec{X: 10, Y: 10}))

	tr = Focus(r2.Vec{X: 3, Y: 4}, 2, 0.5, 10)
	assert.Equal(t, r2.Vec{}, tr.Apply(r2.Vec{X: 3, Y: 4}))
}

// With the real simulation running, a released node reports exactly the
// position it was dropped at while its neighbours keep moving.
func TestDropPositionIsExact(t *testing.T) {
	h := graphdata.NewHolder()
	require.NoError(t, h.Assign(graphdata.Data{
		Nodes: []graphdata.RawNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Links: []graphdata.RawLink{{SourceID: "a", TargetID: "b"}, {SourceID: "a", TargetID: "c"}},
	}))
	sim := force.New(h.Nodes(), h.Links(), force.Options{Seed: 11})
	loop := scheduler.NewLoop(4)
	sim.Start(loop)
	for i := 0; i < 20; i++ {
		loop.Frame(time.Now())
	}

	c := NewController(Config{}, sim)
	a, _ := h.Node("a")
	b, _ := h.Node("b")
	start := r2.Vec{X: a.X, Y: a.Y}
	c.PointerDown(1, nodeTarget(a), start)
	for i := 1; i <= 10; i++ {
		f := float64(i) / 10
		c.PointerMove(1, r2.Vec{X: start.X + (100-start.X)*f, Y: start.Y + (50-start.Y)*f})
		loop.Frame(time.Now())
	}
	c.PointerUp(1, r2.Vec{X: 100, Y: 50})
	assert.Equal(t, 100.0, a.X)
	assert.Equal(t, 50.0, a.Y)

	bx := b.X
	for i := 0; i < 5; i++ {
		loop.Frame(time.Now())
	}
	assert.Equal(t, 100.0, a.X)
	assert.Equal(t, 50.0, a.Y)
	assert.NotEqual(t, bx, b.X)
	assert.Zero(t, sim.AlphaTarget())
}
