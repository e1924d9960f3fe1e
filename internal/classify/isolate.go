package classify

import (
	"errors"
	"fmt"

	"github.com/san-kum/encounter/internal/hierarchy"
	"gonum.org/v1/gonum/spatial/r3"
)

var errNoCandidate = errors.New("classify: no collapsible pair")

// Collapse repeatedly replaces the tightest bound pair of roots that is
// stable and tidally isolated by a composite node advanced analytically
// from then on. It reports whether the root list changed.
func Collapse(h *hierarchy.Hierarchy, t float64, opts Options) (bool, error) {
	changed := false
	for {
		i, j, idx, err := findCollapsible(h, t, opts)
		if errors.Is(err, errNoCandidate) {
			return changed, nil
		}
		if err != nil {
			return changed, err
		}
		h.ReplaceRoot(i, idx)
		h.RemoveRoot(j)
		changed = true
	}
}

func findCollapsible(h *hierarchy.Hierarchy, t float64, opts Options) (int, int, int, error) {
	for _, p := range boundPairs(h) {
		idx, err := h.Bind(p.i, p.j, t)
		if errors.Is(err, hierarchy.ErrArenaFull) {
			continue
		}
		if err != nil {
			return 0, 0, 0, fmt.Errorf("collapse: %w", err)
		}
		if collapsible(h, idx, opts) {
			return p.i, p.j, idx, nil
		}
		h.Free(idx)
	}
	return 0, 0, 0, errNoCandidate
}

func collapsible(h *hierarchy.Hierarchy, idx int, opts Options) bool {
	b := h.Node(idx)
	c0, c1 := h.Node(b.Child[0]), h.Node(b.Child[1])
	if c0.IsLeaf() && c1.IsLeaf() && b.Pericenter() <= c0.R+c1.R {
		return false
	}
	if !IsStable(h, idx, opts) {
		return false
	}
	for _, o := range h.Roots {
		if o == b.Child[0] || o == b.Child[1] {
			continue
		}
		ob := h.Node(o)
		x, _ := hierarchy.Relative(b, ob)
		if RelTide(h, idx, ob.M, r3.Norm(x)) > opts.TidalTol {
			return false
		}
	}
	return true
}

// Expand dissolves every composite root whose tidal perturbation exceeds
// TidalTol into its two children, reseeding their states at time t, until
// no root needs expansion. It reports whether the root list changed.
func Expand(h *hierarchy.Hierarchy, t float64, opts Options) (bool, error) {
	changed := false
	for {
		idx := -1
		for _, r := range h.Roots {
			if MaxTide(h, r) > opts.TidalTol {
				idx = r
				break
			}
		}
		if idx < 0 {
			return changed, nil
		}
		if err := h.Downsync(idx, t); err != nil {
			return changed, fmt.Errorf("expand: %w", err)
		}
		b := h.Node(idx)
		h.ReplaceRoot(idx, b.Child[0], b.Child[1])
		h.Free(idx)
		changed = true
	}
}
