package hierarchy

import (
	"errors"
	"fmt"

	"github.com/san-kum/encounter/internal/kepler"
)

var (
	ErrArenaFull    = errors.New("hierarchy: no free slot at level")
	ErrNotComposite = errors.New("hierarchy: node has no children")
	ErrUnbound      = errors.New("hierarchy: composite orbit is not bound")
	ErrKepler       = errors.New("hierarchy: kepler solve failed")
)

// Hierarchy is an index-addressed arena of bodies. Level n (1..NStarInit)
// holds nodes whose subtree contains n bodies and owns the slot range
// [Index[n], Index[n+1]); only the first Count[n] slots are live. Roots lists
// the top-level nodes currently integrated as point masses.
type Hierarchy struct {
	NStarInit int
	Nodes     []Body
	Index     []int
	Count     []int
	Roots     []int

	solve kepler.Solver
}

// Indices returns the level offset table for nstar stars: level n can hold
// at most nstar/n disjoint nodes.
func Indices(nstar int) []int {
	hi := make([]int, nstar+2)
	for n := 1; n <= nstar; n++ {
		hi[n+1] = hi[n] + nstar/n
	}
	return hi
}

// New allocates an arena for nstar stars and initializes the leaves with
// ids 0..nstar-1, each its own root.
func New(nstar int, solve kepler.Solver) (*Hierarchy, error) {
	if nstar < 1 {
		return nil, fmt.Errorf("hierarchy: need at least one star, got %d", nstar)
	}
	if solve == nil {
		solve = kepler.New(kepler.DefaultOptions())
	}
	idx := Indices(nstar)
	h := &Hierarchy{
		NStarInit: nstar,
		Nodes:     make([]Body, idx[nstar+1]),
		Index:     idx,
		Count:     make([]int, nstar+1),
		Roots:     make([]int, 0, nstar),
		solve:     solve,
	}
	for i := range h.Nodes {
		h.Nodes[i].IDs = make([]int64, 0, nstar)
		h.Nodes[i].reset()
	}
	for i := 0; i < nstar; i++ {
		b := &h.Nodes[i]
		b.IDs = append(b.IDs, int64(i))
		b.N = 1
		b.NColl = 1
		h.Roots = append(h.Roots, i)
	}
	h.Count[1] = nstar
	return h, nil
}

// Clone returns an independent copy with the same arena layout.
func (h *Hierarchy) Clone() *Hierarchy {
	c := &Hierarchy{
		NStarInit: h.NStarInit,
		Nodes:     make([]Body, len(h.Nodes)),
		Index:     append([]int(nil), h.Index...),
		Count:     make([]int, len(h.Count)),
		Roots:     make([]int, 0, h.NStarInit),
		solve:     h.solve,
	}
	for i := range c.Nodes {
		c.Nodes[i].IDs = make([]int64, 0, h.NStarInit)
	}
	c.CopyFrom(h)
	return c
}

// CopyFrom overwrites h with the contents of o without reallocating. Both
// must have been built for the same star count.
func (h *Hierarchy) CopyFrom(o *Hierarchy) {
	for i := range o.Nodes {
		h.Nodes[i].copyFrom(&o.Nodes[i])
	}
	copy(h.Count, o.Count)
	h.Roots = append(h.Roots[:0], o.Roots...)
}

func (h *Hierarchy) Node(i int) *Body { return &h.Nodes[i] }

// NStar is the number of live leaves.
func (h *Hierarchy) NStar() int { return h.Count[1] }

// Leaves returns the arena indices of all live leaves, in canonical order.
func (h *Hierarchy) Leaves() []int {
	out := make([]int, h.Count[1])
	for i := range out {
		out[i] = h.Index[1] + i
	}
	return out
}

// RootBodies appends pointers to the root bodies to dst.
func (h *Hierarchy) RootBodies(dst []*Body) []*Body {
	for _, r := range h.Roots {
		dst = append(dst, &h.Nodes[r])
	}
	return dst
}

// LeafBodies appends pointers to every live leaf to dst.
func (h *Hierarchy) LeafBodies(dst []*Body) []*Body {
	for i := 0; i < h.Count[1]; i++ {
		dst = append(dst, &h.Nodes[h.Index[1]+i])
	}
	return dst
}

// Level returns the level of an arena index.
func (h *Hierarchy) Level(idx int) int {
	for n := 1; n <= h.NStarInit; n++ {
		if idx < h.Index[n+1] {
			return n
		}
	}
	return 0
}

// Alloc reserves the next free slot at level n.
func (h *Hierarchy) Alloc(n int) (int, error) {
	if n < 1 || n > h.NStarInit {
		return 0, fmt.Errorf("%w: level %d out of range", ErrArenaFull, n)
	}
	if h.Index[n]+h.Count[n] >= h.Index[n+1] {
		return 0, fmt.Errorf("%w: level %d holds %d", ErrArenaFull, n, h.Count[n])
	}
	idx := h.Index[n] + h.Count[n]
	h.Count[n]++
	h.Nodes[idx].reset()
	return idx, nil
}

// Free releases the slot at idx. The last live node of the level is moved
// into the hole and every child or root reference to it is rewritten.
func (h *Hierarchy) Free(idx int) {
	n := h.Level(idx)
	last := h.Index[n] + h.Count[n] - 1
	if idx != last {
		h.Nodes[idx], h.Nodes[last] = h.Nodes[last], h.Nodes[idx]
		h.relink(last, idx)
	}
	h.Nodes[last].reset()
	h.Count[n]--
}

func (h *Hierarchy) relink(from, to int) {
	for n := 2; n <= h.NStarInit; n++ {
		for k := 0; k < h.Count[n]; k++ {
			b := &h.Nodes[h.Index[n]+k]
			for c := range b.Child {
				if b.Child[c] == from {
					b.Child[c] = to
				}
			}
		}
	}
	for i, r := range h.Roots {
		if r == from {
			h.Roots[i] = to
		}
	}
}

// RemoveRoot drops idx from the root list, keeping order.
func (h *Hierarchy) RemoveRoot(idx int) {
	for i, r := range h.Roots {
		if r == idx {
			h.Roots = append(h.Roots[:i], h.Roots[i+1:]...)
			return
		}
	}
}

// ReplaceRoot substitutes idx with repl in the root list, keeping order.
func (h *Hierarchy) ReplaceRoot(idx int, repl ...int) {
	for i, r := range h.Roots {
		if r != idx {
			continue
		}
		tail := append([]int(nil), h.Roots[i+1:]...)
		h.Roots = append(append(h.Roots[:i], repl...), tail...)
		return
	}
}

// Link creates a composite over nodes i and j carrying their combined
// mass, size and ids. Its orbit is left for the caller to set.
func (h *Hierarchy) Link(i, j int) (int, error) {
	ci, cj := &h.Nodes[i], &h.Nodes[j]
	idx, err := h.Alloc(ci.N + cj.N)
	if err != nil {
		return 0, err
	}
	b := &h.Nodes[idx]
	b.Child = [2]int{i, j}
	b.N = ci.N + cj.N
	b.M = ci.M + cj.M
	b.IDs = append(append(b.IDs, ci.IDs...), cj.IDs...)
	return idx, nil
}

// Bind links nodes i and j and upsyncs the composite at time t. The caller
// is responsible for the root list.
func (h *Hierarchy) Bind(i, j int, t float64) (int, error) {
	idx, err := h.Link(i, j)
	if err != nil {
		return 0, err
	}
	h.Upsync(idx, t)
	return idx, nil
}

// Flatten discards every composite and makes all live leaves roots. Leaf
// states must be current (see Trickle).
func (h *Hierarchy) Flatten() {
	for n := 2; n <= h.NStarInit; n++ {
		for k := 0; k < h.Count[n]; k++ {
			h.Nodes[h.Index[n]+k].reset()
		}
		h.Count[n] = 0
	}
	h.Roots = append(h.Roots[:0], h.Leaves()...)
}

// Check verifies the structural invariants of every live root subtree.
func (h *Hierarchy) Check() error {
	seen := make(map[int64]bool, h.NStarInit)
	var walk func(idx int) (int, error)
	walk = func(idx int) (int, error) {
		b := &h.Nodes[idx]
		if b.IsLeaf() {
			for _, id := range b.IDs {
				if seen[id] {
					return 0, fmt.Errorf("hierarchy: id %d appears twice", id)
				}
				seen[id] = true
			}
			if b.N != 1 {
				return 0, fmt.Errorf("hierarchy: leaf %d has size %d", idx, b.N)
			}
			return len(b.IDs), nil
		}
		n0, err := walk(b.Child[0])
		if err != nil {
			return 0, err
		}
		n1, err := walk(b.Child[1])
		if err != nil {
			return 0, err
		}
		if b.N != h.Nodes[b.Child[0]].N+h.Nodes[b.Child[1]].N {
			return 0, fmt.Errorf("hierarchy: node %d size %d is not the sum of its children", idx, b.N)
		}
		if len(b.IDs) != n0+n1 {
			return 0, fmt.Errorf("hierarchy: node %d ids do not partition into its children", idx)
		}
		return n0 + n1, nil
	}
	total := 0
	for _, r := range h.Roots {
		n, err := walk(r)
		if err != nil {
			return err
		}
		total += n
	}
	if total != h.NStarInit {
		return fmt.Errorf("hierarchy: %d ids reachable, want %d", total, h.NStarInit)
	}
	return nil
}
