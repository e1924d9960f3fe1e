package hierarchy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const twoPi = 2 * math.Pi

// CircularEcc is the eccentricity below which Upsync treats an orbit as
// circular.
const CircularEcc = 1e-12

// Upsync computes the center-of-mass state and the orbital elements of the
// composite at idx from the absolute states of its two children.
func (h *Hierarchy) Upsync(idx int, t float64) {
	b := &h.Nodes[idx]
	c0, c1 := &h.Nodes[b.Child[0]], &h.Nodes[b.Child[1]]
	m0, m1 := c0.M, c1.M
	m := m0 + m1

	b.M = m
	b.N = c0.N + c1.N
	b.IDs = append(append(b.IDs[:0], c0.IDs...), c1.IDs...)
	b.X = r3.Scale(1/m, r3.Add(r3.Scale(m0, c0.X), r3.Scale(m1, c1.X)))
	b.V = r3.Scale(1/m, r3.Add(r3.Scale(m0, c0.V), r3.Scale(m1, c1.V)))

	x, v := Relative(c0, c1)
	r := r3.Norm(x)
	l := r3.Cross(x, v)

	b.LHat = unitOr(l, perpendicular(x))
	b.A = -m / (2 * (0.5*r3.Norm2(v) - m/r))

	ecc := r3.Sub(r3.Scale(1/m, r3.Cross(v, l)), r3.Scale(1/r, x))
	ecc = r3.Sub(ecc, r3.Scale(r3.Dot(ecc, b.LHat), b.LHat))
	b.E = r3.Norm(ecc)
	if b.E < CircularEcc {
		// the Runge-Lenz direction is noise; measure phase from x instead
		b.E = 0
		b.AHat = r3.Scale(1/r, x)
	} else {
		b.AHat = r3.Scale(1/b.E, ecc)
	}
	b.T = t

	b.MeanAnom = 0
	if b.A > 0 && b.E < 1 {
		bhat := r3.Cross(b.LHat, b.AHat)
		f := math.Atan2(r3.Dot(bhat, x), r3.Dot(b.AHat, x))
		ea := 2 * math.Atan2(math.Sqrt(1-b.E)*math.Sin(f/2), math.Sqrt(1+b.E)*math.Cos(f/2))
		b.MeanAnom = wrap(ea - b.E*math.Sin(ea))
	}
}

// Downsync sets the absolute states of the two children of idx from the
// composite's center-of-mass state and its elements advanced to time t.
func (h *Hierarchy) Downsync(idx int, t float64) error {
	b := &h.Nodes[idx]
	if b.IsLeaf() {
		return fmt.Errorf("%w: node %d", ErrNotComposite, idx)
	}
	if !(b.A > 0) || b.E >= 1 {
		return fmt.Errorf("%w: node %d a=%g e=%g", ErrUnbound, idx, b.A, b.E)
	}
	c0, c1 := &h.Nodes[b.Child[0]], &h.Nodes[b.Child[1]]
	m := b.M

	meanAnom := wrap(b.MeanAnom + math.Sqrt(m/(b.A*b.A*b.A))*(t-b.T))
	ea, err := h.solve(b.E, meanAnom)
	if err != nil {
		return fmt.Errorf("%w: node %d: %w", ErrKepler, idx, err)
	}

	bhat := r3.Cross(b.LHat, b.AHat)
	cosE, sinE := math.Cos(ea), math.Sin(ea)
	sq := math.Sqrt(1 - b.E*b.E)
	r := b.A * (1 - b.E*cosE)

	x := r3.Add(r3.Scale(b.A*(cosE-b.E), b.AHat), r3.Scale(b.A*sq*sinE, bhat))
	v := r3.Scale(math.Sqrt(m*b.A)/r, r3.Add(r3.Scale(-sinE, b.AHat), r3.Scale(sq*cosE, bhat)))

	f0, f1 := c1.M/m, c0.M/m
	c0.X = r3.Sub(b.X, r3.Scale(f0, x))
	c1.X = r3.Add(b.X, r3.Scale(f1, x))
	c0.V = r3.Sub(b.V, r3.Scale(f0, v))
	c1.V = r3.Add(b.V, r3.Scale(f1, v))
	return nil
}

// Trickle propagates every root's absolute state down to all descendants at
// time t.
func (h *Hierarchy) Trickle(t float64) error {
	for _, r := range h.Roots {
		if err := h.TrickleNode(r, t); err != nil {
			return err
		}
	}
	return nil
}

// TrickleNode propagates one subtree.
func (h *Hierarchy) TrickleNode(idx int, t float64) error {
	b := &h.Nodes[idx]
	if b.IsLeaf() {
		return nil
	}
	if err := h.Downsync(idx, t); err != nil {
		return err
	}
	for _, c := range b.Child {
		if err := h.TrickleNode(c, t); err != nil {
			return err
		}
	}
	return nil
}

// Resync recomputes every composite bottom-up from current leaf states.
func (h *Hierarchy) Resync(t float64) {
	var up func(idx int)
	up = func(idx int) {
		b := &h.Nodes[idx]
		if b.IsLeaf() {
			return
		}
		up(b.Child[0])
		up(b.Child[1])
		h.Upsync(idx, t)
	}
	for _, r := range h.Roots {
		up(r)
	}
}

func wrap(x float64) float64 {
	x = math.Mod(x, twoPi)
	if x < 0 {
		x += twoPi
	}
	return x
}

func unitOr(v, fallback r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 || math.IsNaN(n) {
		return fallback
	}
	return r3.Scale(1/n, v)
}

// perpendicular returns a unit vector normal to x.
func perpendicular(x r3.Vec) r3.Vec {
	axis := r3.Vec{Z: 1}
	if math.Abs(x.Z) > 0.9*r3.Norm(x) {
		axis = r3.Vec{X: 1}
	}
	return unitOr(r3.Cross(x, axis), r3.Vec{Z: 1})
}
