// Package hierarchy stores a small gravitating system as a forest of binary
// trees inside a fixed arena.
//
// Leaves are stars. A composite node holds the center-of-mass state of its
// two children plus the Kepler elements of their relative orbit, so a stable
// subsystem can be advanced analytically. Three operations keep the two
// representations consistent:
//
//   - [Hierarchy.Upsync]: children to parent (inverse two-body problem)
//   - [Hierarchy.Downsync]: parent to its two children at time t
//   - [Hierarchy.Trickle]: roots to every descendant
//
// The arena is sized once from the initial star count. Level n holds nodes
// whose subtree contains n bodies; collapse, expand and merge only
// repartition it.
//
// # Example
//
//	h, _ := hierarchy.New(3, kepler.New(kepler.DefaultOptions()))
//	inner, _ := h.Bind(0, 1, 0)
//	outer, _ := h.Bind(inner, 2, 0)
//	h.Roots = []int{outer}
//	fmt.Println(h) // [[0 1] 2]
package hierarchy
