package hierarchy

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/units"
)

// Kinetic returns the total kinetic energy of bs.
func Kinetic(bs []*Body) float64 {
	ke := 0.0
	for _, b := range bs {
		ke += 0.5 * b.M * r3.Norm2(b.V)
	}
	return ke
}

// Potential returns the Newtonian potential energy of bs (G = 1).
func Potential(bs []*Body) float64 {
	pe := 0.0
	for i := 0; i < len(bs); i++ {
		for j := i + 1; j < len(bs); j++ {
			pe -= bs[i].M * bs[j].M / r3.Norm(r3.Sub(bs[j].X, bs[i].X))
		}
	}
	return pe
}

// Internal returns the summed internal energy of bs.
func Internal(bs []*Body) float64 {
	e := 0.0
	for _, b := range bs {
		e += b.Eint
	}
	return e
}

// AngularMomentum returns sum m x cross v about the origin.
func AngularMomentum(bs []*Body) r3.Vec {
	var l r3.Vec
	for _, b := range bs {
		l = r3.Add(l, r3.Scale(b.M, r3.Cross(b.X, b.V)))
	}
	return l
}

// InternalAngularMomentum returns the summed internal angular momentum.
func InternalAngularMomentum(bs []*Body) r3.Vec {
	var l r3.Vec
	for _, b := range bs {
		l = r3.Add(l, b.Lint)
	}
	return l
}

// Momentum returns the total linear momentum of bs.
func Momentum(bs []*Body) r3.Vec {
	var p r3.Vec
	for _, b := range bs {
		p = r3.Add(p, r3.Scale(b.M, b.V))
	}
	return p
}

// Mass returns the total mass of bs.
func Mass(bs []*Body) float64 {
	m := 0.0
	for _, b := range bs {
		m += b.M
	}
	return m
}

// Energy is kinetic plus potential plus internal energy over all live
// leaves. Leaf states must be current.
func (h *Hierarchy) Energy() float64 {
	bs := h.LeafBodies(nil)
	return Kinetic(bs) + Potential(bs) + Internal(bs)
}

// TotalAngularMomentum is orbital plus internal angular momentum over all
// live leaves.
func (h *Hierarchy) TotalAngularMomentum() r3.Vec {
	bs := h.LeafBodies(nil)
	return r3.Add(AngularMomentum(bs), InternalAngularMomentum(bs))
}

// Normalize converts every node from cgs to code units.
func (h *Hierarchy) Normalize(u units.Units) {
	lu := u.AngularMomentum()
	for i := range h.Nodes {
		b := &h.Nodes[i]
		b.M /= u.M
		b.R /= u.L
		b.A /= u.L
		b.X = r3.Scale(1/u.L, b.X)
		b.V = r3.Scale(1/u.V, b.V)
		b.Eint /= u.E
		b.Lint = r3.Scale(1/lu, b.Lint)
	}
}

// Recenter shifts every root so the system center of mass is at rest at the
// origin. Leaves below composites must be trickled afterwards.
func (h *Hierarchy) Recenter() {
	bs := h.RootBodies(nil)
	m := Mass(bs)
	var xcm, vcm r3.Vec
	for _, b := range bs {
		xcm = r3.Add(xcm, r3.Scale(b.M/m, b.X))
		vcm = r3.Add(vcm, r3.Scale(b.M/m, b.V))
	}
	for _, b := range bs {
		b.X = r3.Sub(b.X, xcm)
		b.V = r3.Sub(b.V, vcm)
	}
}
