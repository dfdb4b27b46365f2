package interact

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Transform maps graph coordinates to view coordinates: scale by K, then
// translate by (X, Y).
type Transform struct {
	X, Y float64
	K    float64
}

// Identity is the transform of an unzoomed, unpanned view.
var Identity = Transform{K: 1}

// Apply maps a graph point to view space.
func (t Transform) Apply(p r2.Vec) r2.Vec {
	return r2.Vec{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a view point to graph space.
func (t Transform) Invert(p r2.Vec) r2.Vec {
	return r2.Vec{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// Translate returns t panned by d view units.
func (t Transform) Translate(d r2.Vec) Transform {
	t.X += d.X
	t.Y += d.Y
	return t
}

// ScaleAt returns t scaled by factor around anchor, a view point that stays
// fixed. The resulting scale is clamped to [min, max].
func (t Transform) ScaleAt(factor float64, anchor r2.Vec, min, max float64) Transform {
	k := clamp(t.K*factor, min, max)
	g := t.Invert(anchor)
	return Transform{X: anchor.X - g.X*k, Y: anchor.Y - g.Y*k, K: k}
}

// Clamp returns t with its scale clamped to [min, max].
func (t Transform) Clamp(min, max float64) Transform {
	t.K = clamp(t.K, min, max)
	return t
}

func (t Transform) String() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", t.X, t.Y, t.K)
}

// Fit returns the transform that centres the graph-space box [lo, hi] in a view
// of the given size whose origin is at its centre, leaving padding on each side.
func Fit(lo, hi r2.Vec, width, height, padding, min, max float64) Transform {
	c := r2.Scale(0.5, r2.Add(lo, hi))
	gw, gh := hi.X-lo.X, hi.Y-lo.Y
	if gw <= 0 {
		gw = 1
	}
	if gh <= 0 {
		gh = 1
	}
	k := math.Min((width-2*padding)/gw, (height-2*padding)/gh)
	if k <= 0 {
		k = 1
	}
	k = clamp(k, min, max)
	return Transform{X: -c.X * k, Y: -c.Y * k, K: k}
}

// Focus returns the transform that centres graph point p at scale k.
func Focus(p r2.Vec, k, min, max float64) Transform {
	k = clamp(k, min, max)
	return Transform{X: -p.X * k, Y: -p.Y * k, K: k}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
