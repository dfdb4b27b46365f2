package export

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/recera/netgraph/pkg/scene"
)

// Attrs are Graphviz attributes. They are emitted in key order.
type Attrs map[string]string

var (
	_ encoding.Attributer = Attrs{}
	_ encoding.Attributer = dotNode{}
	_ encoding.Attributer = dotLine{}
)

func (a Attrs) Attributes() []encoding.Attribute {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	enc := make([]encoding.Attribute, 0, len(a))
	for _, k := range keys {
		enc = append(enc, encoding.Attribute{Key: k, Value: a[k]})
	}
	return enc
}

type dotNode struct {
	id    int64
	name  string
	attrs Attrs
}

func (n dotNode) ID() int64                         { return n.id }
func (n dotNode) DOTID() string                     { return n.name }
func (n dotNode) Attributes() []encoding.Attribute { return n.attrs.Attributes() }

type dotLine struct {
	from, to dotNode
	uid      int64
	attrs    Attrs
}

func (l dotLine) From() graph.Node                  { return l.from }
func (l dotLine) To() graph.Node                    { return l.to }
func (l dotLine) ID() int64                         { return l.uid }
func (l dotLine) Attributes() []encoding.Attribute { return l.attrs.Attributes() }
func (l dotLine) ReversedLine() graph.Line {
	return dotLine{from: l.to, to: l.from, uid: l.uid, attrs: l.attrs}
}

type dotGraph struct {
	*multi.DirectedGraph
	name                             string
	graphAttrs, nodeAttrs, edgeAttrs Attrs
}

func (g *dotGraph) DOTID() string { return g.name }
func (g *dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return g.graphAttrs, g.nodeAttrs, g.edgeAttrs
}

// DOT renders the visible part of the snapshot as a Graphviz digraph. Node
// positions are pinned ("pos" with "!") so neato reproduces the layout; y is
// flipped since Graphviz grows upward.
func DOT(s Snapshot, name string) ([]byte, error) {
	palette := s.Palette
	if palette == nil {
		palette = scene.NewPalette()
	}
	hidden := s.hidden()

	g := &dotGraph{
		DirectedGraph: multi.NewDirectedGraph(),
		name:          name,
		graphAttrs:    Attrs{"layout": "neato", "overlap": "true", "splines": "true"},
		nodeAttrs:     Attrs{"fontname": "Helvetica", "fontsize": "10", "style": "filled"},
		edgeAttrs:     Attrs{"arrowhead": "none"},
	}

	nodes := make(map[string]dotNode, len(s.Nodes))
	for i, n := range s.Nodes {
		if hidden[n.Category] {
			continue
		}
		attrs := Attrs{
			"label":     n.Label,
			"fillcolor": palette.Color(n.Category),
			"shape":     "circle",
		}
		if n.IsRoot {
			attrs["shape"] = "box"
		}
		if n.HasPosition() {
			attrs["pos"] = fmt.Sprintf("%s,%s!", coord(n.X), coord(-n.Y))
		}
		if n.Category != "" {
			attrs["class"] = n.Category
		}
		dn := dotNode{id: int64(i), name: n.ID, attrs: attrs}
		nodes[n.ID] = dn
		g.AddNode(dn)
	}
	for i, l := range s.Links {
		from, ok := nodes[l.Source.ID]
		if !ok {
			continue
		}
		to, ok := nodes[l.Target.ID]
		if !ok || hidden[l.Category] {
			continue
		}
		attrs := Attrs{}
		if l.Category != "" {
			attrs["class"] = l.Category
		}
		g.SetLine(dotLine{from: from, to: to, uid: int64(i), attrs: attrs})
	}
	return dot.MarshalMulti(g, name, "", "  ")
}

// coord converts layout units to Graphviz inches, taking a unit as one point.
func coord(v float64) string {
	return strconv.FormatFloat(v/72, 'f', 3, 64)
}
