package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/hierarchy"
)

// Approach records the closest separation between any two stars and counts
// the pericenter passages of whichever pair is currently closest.
type Approach struct {
	name    string
	rmin    float64
	pair    [2]string
	closest [2]int64
	sign    int
	minima  int
	samples int

	leaves []*hierarchy.Body
}

func NewApproach() *Approach {
	return &Approach{name: "closest_approach", rmin: math.Inf(1)}
}

func (a *Approach) Name() string { return a.name }

// Observe samples all live leaves. Leaf states must be current.
func (a *Approach) Observe(h *hierarchy.Hierarchy, _ float64) {
	a.leaves = h.LeafBodies(a.leaves[:0])
	if len(a.leaves) < 2 {
		return
	}
	best := math.Inf(1)
	var bi, bj int
	for i := 0; i < len(a.leaves); i++ {
		for j := i + 1; j < len(a.leaves); j++ {
			r := r3.Norm(r3.Sub(a.leaves[j].X, a.leaves[i].X))
			if r < best {
				best, bi, bj = r, i, j
			}
		}
	}
	p, q := a.leaves[bi], a.leaves[bj]
	if best < a.rmin {
		a.rmin = best
		a.pair = [2]string{p.IDString(), q.IDString()}
	}

	key := [2]int64{p.IDs[0], q.IDs[0]}
	x, v := hierarchy.Relative(p, q)
	sign := 1
	if r3.Dot(x, v) < 0 {
		sign = -1
	}
	if a.samples > 0 && key == a.closest && a.sign < 0 && sign > 0 {
		a.minima++
	}
	a.closest, a.sign = key, sign
	a.samples++
}

// Value is the closest separation seen.
func (a *Approach) Value() float64 { return a.rmin }

// Pair names the two stars that reached the closest separation.
func (a *Approach) Pair() [2]string { return a.pair }

// Oscillations counts the sign changes of d(r^2)/dt = 2 x.v of the closest
// pair from negative to positive, one per pericenter passage, not counting
// the first passage.
func (a *Approach) Oscillations() int { return max(a.minima-1, 0) }

// Closest returns the current separation of the closest pair of leaves in
// h.
func Closest(h *hierarchy.Hierarchy) float64 {
	leaves := h.LeafBodies(nil)
	best := math.Inf(1)
	for i := 0; i < len(leaves); i++ {
		for j := i + 1; j < len(leaves); j++ {
			best = math.Min(best, r3.Norm(r3.Sub(leaves[j].X, leaves[i].X)))
		}
	}
	return best
}

func (a *Approach) Reset() {
	*a = Approach{name: a.name, rmin: math.Inf(1), leaves: a.leaves[:0]}
}
