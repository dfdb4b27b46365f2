package force

import (
	"math"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/recera/netgraph/pkg/graphdata"
)

// body adapts a node to a Barnes-Hut particle of unit mass.
type body struct{ n *graphdata.Node }

func (b *body) Coord2() r2.Vec { return r2.Vec{X: b.n.X, Y: b.n.Y} }
func (b *body) Mass() float64  { return 1 }

// jiggle returns a tiny random offset used to separate coincident points.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

// applyLinks pulls the endpoints of every link toward the rest length. The
// lighter-connected endpoint moves more.
func (s *Simulation) applyLinks(alpha float64) {
	for i, l := range s.links {
		src, dst := l.Source, l.Target
		x := dst.X + dst.VX - src.X - src.VX
		if x == 0 {
			x = s.jiggle()
		}
		y := dst.Y + dst.VY - src.Y - src.VY
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		d = (d - s.opts.LinkDistance) / d * alpha * s.linkStrength[i]
		x *= d
		y *= d

		b := s.linkBias[i]
		dst.VX -= x * b
		dst.VY -= y * b
		src.VX += x * (1 - b)
		src.VY += y * (1 - b)
	}
}

// applyManyBody accumulates pairwise charge between all nodes, approximated
// with a Barnes-Hut quadtree. Coincident nodes make the tree too deep to build;
// those ticks fall back to the exact pairwise sum.
func (s *Simulation) applyManyBody(alpha float64) {
	if len(s.bodies) < 2 {
		return
	}
	if err := s.planeFor(); err != nil {
		s.log.V(2).Info("barnes-hut fallback", "error", err.Error())
		s.applyManyBodyExact(alpha)
		return
	}
	for _, p := range s.bodies {
		f := s.plane.ForceOn(p, s.opts.Theta, s.charge)
		b := p.(*body)
		b.n.VX += f.X * alpha
		b.n.VY += f.Y * alpha
	}
}

func (s *Simulation) planeFor() error {
	if s.plane == nil {
		plane, err := barneshut.NewPlane(s.bodies)
		if err != nil {
			return err
		}
		s.plane = plane
		return nil
	}
	if err := s.plane.Reset(); err != nil {
		s.plane = nil
		return err
	}
	return nil
}

// charge is the many-body force law: strength·m2/d² along v, with d² clamped
// below by the minimum distance. A particle exerts no force on itself.
func (s *Simulation) charge(p1, p2 barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
	if p1 != nil && p1 == p2 {
		return r2.Vec{}
	}
	if v.X == 0 {
		v.X = s.jiggle()
	}
	if v.Y == 0 {
		v.Y = s.jiggle()
	}
	l := v.X*v.X + v.Y*v.Y
	if min2 := DefaultDistanceMin * DefaultDistanceMin; l < min2 {
		l = math.Sqrt(min2 * l)
	}
	return r2.Scale(s.opts.Strength*m2/l, v)
}

func (s *Simulation) applyManyBodyExact(alpha float64) {
	for i, p := range s.bodies {
		for j, q := range s.bodies {
			if i == j {
				continue
			}
			f := s.charge(p, q, 1, 1, r2.Sub(q.Coord2(), p.Coord2()))
			n := p.(*body).n
			n.VX += f.X * alpha
			n.VY += f.Y * alpha
		}
	}
}

// applyCenter pulls every node toward the origin on each axis independently.
func (s *Simulation) applyCenter(alpha float64) {
	k := s.opts.CenterStrength * alpha
	for _, n := range s.nodes {
		n.VX -= n.X * k
		n.VY -= n.Y * k
	}
}
