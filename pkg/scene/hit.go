package scene

import (
	"math"
	"unicode/utf8"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/recera/netgraph/pkg/graphdata"
)

// TargetKind classifies what a pointer landed on.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetBackground
	TargetNode
	TargetLegend
)

func (k TargetKind) String() string {
	switch k {
	case TargetBackground:
		return "background"
	case TargetNode:
		return "node"
	case TargetLegend:
		return "legend"
	default:
		return "none"
	}
}

// Target is the interactive meaning of a primitive. Node shapes and node labels
// both resolve to their node.
type Target struct {
	Kind     TargetKind
	Node     *graphdata.Node
	Category string
}

// Lookup resolves an element id from the current scene. Ids of primitives that
// are not interactive resolve to the background; ids from a discarded scene do
// not resolve.
func (r *Renderer) Lookup(id uint32) (Target, bool) {
	if t, ok := r.targets[id]; ok {
		return t, true
	}
	if r.root == nil {
		return Target{}, false
	}
	found := false
	r.root.Walk(func(e *Element) {
		if e.ID == id {
			found = true
		}
	})
	if found {
		return Target{Kind: TargetBackground}, true
	}
	return Target{}, false
}

// HitTest finds the primitive under p, given in view coordinates. slack widens
// node shapes by that many graph units. Legend entries are tested first since
// they are drawn above the viewport, then nodes and labels from the top down.
func (r *Renderer) HitTest(p r2.Vec, slack float64) Target {
	if r.root == nil {
		return Target{}
	}
	font := r.cfg.FontSize
	for i := len(r.legend) - 1; i >= 0; i-- {
		x, y := r.legendPos(i)
		if inText(p, x, y, r.legend[i].category, font) {
			return r.targets[r.legend[i].text.ID]
		}
	}

	g := r2.Vec{X: (p.X - r.tx) / r.k, Y: (p.Y - r.ty) / r.k}
	rad := r.cfg.Radius + slack
	for i := len(r.nodes) - 1; i >= 0; i-- {
		n := r.nodes[i].node
		dx, dy := g.X-n.X, g.Y-n.Y
		if n.IsRoot {
			if math.Abs(dx) <= rad && math.Abs(dy) <= rad {
				return Target{Kind: TargetNode, Node: n}
			}
		} else if dx*dx+dy*dy <= rad*rad {
			return Target{Kind: TargetNode, Node: n}
		}
	}
	for i := len(r.nodes) - 1; i >= 0; i-- {
		n := r.nodes[i].node
		if inText(g, n.X+r.cfg.Radius+2, n.Y+0.35*font, n.Label, font) {
			return Target{Kind: TargetNode, Node: n}
		}
	}
	return Target{Kind: TargetBackground}
}

// inText approximates the box of a text run whose baseline starts at (x, y).
func inText(p r2.Vec, x, y float64, text string, font float64) bool {
	w := float64(utf8.RuneCountInString(text)) * font * 0.6
	return p.X >= x && p.X <= x+w && p.Y >= y-font && p.Y <= y+font*0.25
}
