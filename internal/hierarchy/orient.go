package hierarchy

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// Random requests a random draw for an orientation angle.
const Random = -1.0

// Orient sets the orbital plane and pericenter direction of the composite
// at idx from inclination inc, argument of pericenter peri and longitude of
// the ascending node, and draws a uniform mean anomaly. An angle equal to
// Random is drawn instead: cos(inc) uniform in [-1,1], the others uniform in
// [0,2pi).
func (h *Hierarchy) Orient(idx int, src rand.Source, inc, peri, node float64) {
	b := &h.Nodes[idx]
	u := distuv.Uniform{Min: 0, Max: 1, Src: src}
	if inc == Random {
		inc = math.Acos(2*u.Rand() - 1)
	}
	if peri == Random {
		peri = twoPi * u.Rand()
	}
	if node == Random {
		node = twoPi * u.Rand()
	}

	si, ci := math.Sincos(inc)
	sw, cw := math.Sincos(peri)
	sn, cn := math.Sincos(node)

	b.LHat = r3.Vec{X: si * sn, Y: -si * cn, Z: ci}
	b.AHat = r3.Vec{
		X: cn*cw - sn*sw*ci,
		Y: sn*cw + cn*sw*ci,
		Z: sw * si,
	}
	b.MeanAnom = twoPi * u.Rand()
}

// RandomOrient draws an isotropic orbital orientation and a uniform mean
// anomaly for the composite at idx.
func (h *Hierarchy) RandomOrient(idx int, src rand.Source) {
	h.Orient(idx, src, Random, Random, Random)
}

// IncPartition splits a mutual inclination inc between the inner and outer
// orbits of the triple rooted at idx so that the total angular momentum is
// along z. The inner binary is the composite child.
func (h *Hierarchy) IncPartition(idx int, inc float64) (incIn, incOut float64) {
	b := &h.Nodes[idx]
	inner := &h.Nodes[b.Child[0]]
	if inner.IsLeaf() {
		inner = &h.Nodes[b.Child[1]]
	}
	lin := orbitalAngularMomentum(h, inner)
	lout := orbitalAngularMomentum(h, b)
	incOut = math.Atan2(lin*math.Sin(inc), lout+lin*math.Cos(inc))
	return inc - incOut, incOut
}

// orbitalAngularMomentum is |L| of the two-body orbit of a composite.
func orbitalAngularMomentum(h *Hierarchy, b *Body) float64 {
	m0, m1 := h.Nodes[b.Child[0]].M, h.Nodes[b.Child[1]].M
	m := m0 + m1
	return m0 * m1 / m * math.Sqrt(m*b.A*(1-b.E*b.E))
}
