package scene

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/recera/netgraph/pkg/graphdata"
)

func holder(t *testing.T) *graphdata.Holder {
	t.Helper()
	h := graphdata.NewHolder()
	require.NoError(t, h.Assign(graphdata.Data{
		Nodes: []graphdata.RawNode{
			{ID: "r", Label: "root", Category: "core", IsRoot: true},
			{ID: "a", Label: "<a&b>", Category: "edge"},
			{ID: "b", Label: "b", Category: "edge"},
		},
		Links: []graphdata.RawLink{
			{SourceID: "r", TargetID: "a"},
			{SourceID: "r", TargetID: "b"},
		},
	}))
	for i, n := range h.Nodes() {
		n.X, n.Y = float64(10*i), float64(-5*i)
	}
	return h
}

func TestBuild(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{Width: 400, Height: 300, Radius: 5})
	r.Build(h.Visible())

	assert.Equal(t, Counts{Nodes: 3, Links: 2, Labels: 3, Legend: 2}, r.Counts())
	root := r.Root()
	require.NotNil(t, root)
	vb, _ := root.Attr("viewBox")
	assert.Equal(t, "-200 -150 400 300", vb)

	// Root node is a square offset by the radius, others are circles.
	shapes := root.Kids[0].Kids[1].Kids
	require.Len(t, shapes, 3)
	assert.Equal(t, "rect", shapes[0].Tag)
	x, _ := shapes[0].Attr("x")
	assert.Equal(t, "-5", x)
	assert.Equal(t, "circle", shapes[1].Tag)
	cx, _ := shapes[1].Attr("cx")
	assert.Equal(t, "10", cx)
	fill0, _ := shapes[0].Attr("fill")
	fill1, _ := shapes[1].Attr("fill")
	fill2, _ := shapes[2].Attr("fill")
	assert.NotEqual(t, fill0, fill1)
	assert.Equal(t, fill1, fill2, "same category, same colour")

	patches := r.Flush()
	require.Len(t, patches, 1)
	assert.Equal(t, OpInsertNode, patches[0].Op)
	assert.Same(t, root, patches[0].Node)
	assert.Empty(t, r.Flush())
}

func TestRebuildReplacesScene(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{})
	r.Build(h.Visible())
	first := r.Root()
	counts := r.Counts()
	var oldIDs []uint32
	first.Walk(func(e *Element) { oldIDs = append(oldIDs, e.ID) })
	r.Flush()

	r.Build(h.Visible())
	assert.NotSame(t, first, r.Root())
	assert.Equal(t, counts, r.Counts())
	assert.Equal(t, 2, r.Builds())

	for _, id := range oldIDs {
		_, ok := r.Lookup(id)
		assert.False(t, ok, "id %d from the discarded scene resolves", id)
	}
	patches := r.Flush()
	require.Len(t, patches, 2)
	assert.Equal(t, Patch{Op: OpRemoveNode, NodeID: first.ID}, patches[0])
	assert.Equal(t, OpInsertNode, patches[1].Op)
}

func TestRebuildsBetweenFlushesRemoveMirroredRoot(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{})
	r.Build(h.Visible())
	mirrored := r.Root()
	r.Flush()

	h.Toggle("edge")
	r.Build(h.Visible())
	h.Toggle("edge")
	r.Build(h.Visible())

	patches := r.Flush()
	require.Len(t, patches, 2)
	assert.Equal(t, Patch{Op: OpRemoveNode, NodeID: mirrored.ID}, patches[0])
	assert.Equal(t, OpInsertNode, patches[1].Op)
	assert.Same(t, r.Root(), patches[1].Node)

	// Once flushed, the next rebuild removes the root the host now holds.
	current := r.Root()
	r.Build(h.Visible())
	patches = r.Flush()
	require.Len(t, patches, 2)
	assert.Equal(t, current.ID, patches[0].NodeID)
}

func TestTickBeforeFlushTravelsWithInsert(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{Radius: 5})
	r.Build(h.Visible())

	a, _ := h.Node("a")
	a.X, a.Y = 42, 17
	r.Tick()

	patches := r.Flush()
	require.Len(t, patches, 1)
	require.Equal(t, OpInsertNode, patches[0].Op)
	shape := patches[0].Node.Kids[0].Kids[1].Kids[1]
	cx, _ := shape.Attr("cx")
	assert.Equal(t, "42", cx)
}

func TestTickOnlyMovesPrimitives(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{Radius: 5})
	r.Build(h.Visible())
	r.Flush()
	root := r.Root()

	a, _ := h.Node("a")
	a.X, a.Y = 42, 17
	r.Tick()
	r.Tick()

	assert.Same(t, root, r.Root())
	patches := r.Flush()
	for _, p := range patches {
		assert.Equal(t, OpSetAttribute, p.Op)
	}
	// cx, cy, label x, y and one link endpoint pair, coalesced across ticks.
	assert.Len(t, patches, 6)

	var got []string
	for _, p := range patches {
		got = append(got, p.Key+"="+p.Value)
	}
	assert.Contains(t, got, "cx=42")
	assert.Contains(t, got, "x2=42")
	assert.Contains(t, got, "y2=17")
}

func TestToggleRestoresPrimitives(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{})
	r.Build(h.Visible())
	before := r.Nodes()
	beforeLinks := r.Links()

	h.Toggle("edge")
	r.Build(h.Visible())
	assert.Equal(t, Counts{Nodes: 1, Links: 0, Labels: 1, Legend: 2}, r.Counts())
	legend := r.Root().Kids[1].Kids
	deco, _ := legend[1].Attr("text-decoration")
	assert.Equal(t, "line-through", deco)

	h.Toggle("edge")
	r.Build(h.Visible())
	assert.ElementsMatch(t, before, r.Nodes())
	assert.ElementsMatch(t, beforeLinks, r.Links())
}

func TestOpacityAndTransform(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{})
	r.SetOpacity(false)
	r.Build(h.Visible())
	op, _ := r.Root().Attr("opacity")
	assert.Equal(t, "0.5", op)
	r.Flush()

	r.SetOpacity(true)
	r.SetTransform(10, -20, 2)
	patches := r.Flush()
	require.Len(t, patches, 2)
	assert.Equal(t, "opacity", patches[0].Key)
	assert.Equal(t, "1", patches[0].Value)
	assert.Equal(t, "translate(10,-20) scale(2)", patches[1].Value)
}

func TestLookupAndHitTest(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{Width: 400, Height: 300, Radius: 5, FontSize: 10})
	r.Build(h.Visible())
	a, _ := h.Node("a")

	shape := r.Root().Kids[0].Kids[1].Kids[1]
	tgt, ok := r.Lookup(shape.ID)
	require.True(t, ok)
	assert.Equal(t, TargetNode, tgt.Kind)
	assert.Same(t, a, tgt.Node)

	label := r.Root().Kids[0].Kids[2].Kids[1]
	tgt, _ = r.Lookup(label.ID)
	assert.Same(t, a, tgt.Node, "labels resolve to their node")

	link := r.Root().Kids[0].Kids[0].Kids[0]
	tgt, ok = r.Lookup(link.ID)
	assert.True(t, ok)
	assert.Equal(t, TargetBackground, tgt.Kind)

	// a sits at (10, -5); with the view scaled by 2 and shifted by (100, 0)
	// it appears at (120, -10).
	r.SetTransform(100, 0, 2)
	assert.Same(t, a, r.HitTest(r2.Vec{X: 121, Y: -9}, 0).Node)
	assert.Equal(t, TargetBackground, r.HitTest(r2.Vec{X: -150, Y: 100}, 0).Kind)

	// Root square reaches its corners.
	r.SetTransform(0, 0, 1)
	assert.True(t, r.HitTest(r2.Vec{X: 4.5, Y: 4.5}, 0).Node.IsRoot)

	// Legend entries sit along the bottom edge in view space.
	x, y := r.legendPos(1)
	tgt = r.HitTest(r2.Vec{X: x + 2, Y: y - 2}, 0)
	assert.Equal(t, Target{Kind: TargetLegend, Category: "edge"}, tgt)
}

func TestWriteSVG(t *testing.T) {
	h := holder(t)
	r := NewRenderer(Config{})
	r.Build(h.Visible())
	var b strings.Builder
	require.NoError(t, r.WriteSVG(&b))
	out := b.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `xmlns="http://www.w3.org/2000/svg"`)
	assert.Contains(t, out, "&lt;a&amp;b&gt;")
	assert.Equal(t, 3, strings.Count(out, `class="ngraph-node-label"`))
}

func TestPalette(t *testing.T) {
	p := NewPalette()
	assert.Equal(t, Category10[0], p.Color("x"))
	assert.Equal(t, Category10[1], p.Color("y"))
	assert.Equal(t, Category10[0], p.Color("x"))
	assert.Equal(t, NeutralColor, p.Color(""))

	small := NewPalette("red", "blue")
	small.Color("a")
	small.Color("b")
	assert.Equal(t, "red", small.Color("c"))
}
