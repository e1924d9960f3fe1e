package classify

import (
	"math"

	"github.com/san-kum/encounter/internal/hierarchy"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options bound the isolation and stability decisions.
type Options struct {
	// TidalTol is the largest tolerated ratio of external tidal to internal
	// acceleration for a composite treated as isolated.
	TidalTol float64
	// SpeedTol is the largest tolerated pericenter speed of a binary as a
	// fraction of C.
	SpeedTol float64
	// C is the speed of light in code units. Zero disables the speed test.
	C float64
}

// IsStable reports whether the subtree at idx is dynamically stable: every
// composite below it is stable and the node itself passes the test for its
// multiplicity.
func IsStable(h *hierarchy.Hierarchy, idx int, opts Options) bool {
	b := h.Node(idx)
	switch {
	case b.IsLeaf():
		return true
	case !(b.A > 0) || b.E >= 1:
		return false
	}
	if !IsStable(h, b.Child[0], opts) || !IsStable(h, b.Child[1], opts) {
		return false
	}
	switch b.N {
	case 2:
		return IsStableBinary(h, idx, opts)
	case 3:
		return IsStableTriple(h, idx)
	case 4:
		return IsStableQuad(h, idx)
	default:
		return isStablePairwise(h, idx)
	}
}

// IsStableBinary applies the relativistic speed test: a binary whose
// pericenter speed exceeds SpeedTol*C must stay resolved so that
// post-Newtonian terms act on it.
func IsStableBinary(h *hierarchy.Hierarchy, idx int, opts Options) bool {
	if opts.C <= 0 {
		return true
	}
	b := h.Node(idx)
	vp := math.Sqrt(b.M * (1 + b.E) / (b.A * (1 - b.E)))
	return vp < opts.SpeedTol*opts.C
}

// IsStableTriple tests the outer orbit against the inner binary.
func IsStableTriple(h *hierarchy.Hierarchy, idx int) bool {
	b := h.Node(idx)
	if h.Node(b.Child[0]).N == 2 {
		return Mardling(h, idx, 0, 1)
	}
	return Mardling(h, idx, 1, 0)
}

// IsStableQuad handles the two quadruple topologies. For a binary-binary
// each binary must survive the other as a point-mass perturber; for a
// triple-single the outer orbit is tested against the inner triple's outer
// orbit.
func IsStableQuad(h *hierarchy.Hierarchy, idx int) bool {
	b := h.Node(idx)
	n0, n1 := h.Node(b.Child[0]).N, h.Node(b.Child[1]).N
	switch {
	case n0 == 2 && n1 == 2:
		return Mardling(h, idx, 0, 1) && Mardling(h, idx, 1, 0)
	case n0 == 3:
		return Mardling(h, idx, 0, 1)
	case n1 == 3:
		return Mardling(h, idx, 1, 0)
	}
	return false
}

// isStablePairwise treats every composite child as an inner orbit perturbed
// by the other child.
func isStablePairwise(h *hierarchy.Hierarchy, idx int) bool {
	b := h.Node(idx)
	for i := 0; i < 2; i++ {
		if h.Node(b.Child[i]).IsLeaf() {
			continue
		}
		if !Mardling(h, idx, i, 1-i) {
			return false
		}
	}
	return true
}

// Mardling applies the Mardling & Aarseth (2001) criterion to the orbit of
// node idx, with child ib as the inner orbit and child is as the outer body:
//
//	Rp/a_in >= 2.8 [(1+q)(1+e_out)/sqrt(1-e_out)]^(2/5) (1 - 0.3 i/pi)
//
// where q = m_out/m_in and i is the mutual inclination.
func Mardling(h *hierarchy.Hierarchy, idx, ib, is int) bool {
	b := h.Node(idx)
	in, out := h.Node(b.Child[ib]), h.Node(b.Child[is])
	if !(in.A > 0) || !(b.A > 0) || b.E >= 1 {
		return false
	}
	q := out.M / in.M
	incl := math.Acos(math.Max(-1, math.Min(1, r3.Dot(b.LHat, in.LHat))))
	crit := 2.8 * math.Pow((1+q)*(1+b.E)/math.Sqrt(1-b.E), 0.4) * (1 - 0.3*incl/math.Pi)
	return b.Pericenter()/in.A >= crit
}

// RelTide is the ratio of the tidal acceleration exerted by a perturber of
// mass mp at distance r across the apocenter of composite idx to the
// composite's internal acceleration at apocenter.
func RelTide(h *hierarchy.Hierarchy, idx int, mp, r float64) float64 {
	b := h.Node(idx)
	d := b.Apocenter()
	if !(b.A > 0) || b.E >= 1 {
		x, _ := hierarchy.Relative(h.Node(b.Child[0]), h.Node(b.Child[1]))
		d = r3.Norm(x)
	}
	return 2 * mp * d * d * d / (b.M * r * r * r)
}
