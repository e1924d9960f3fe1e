package classify

import (
	"fmt"
	"sort"

	"github.com/san-kum/encounter/internal/hierarchy"
	"gonum.org/v1/gonum/spatial/r3"
)

// Verdict is the classification state of one hierarchy level.
type Verdict int

const (
	Ongoing Verdict = iota
	Stable
	Unstable
)

func (v Verdict) String() string {
	switch v {
	case Stable:
		return "stable"
	case Unstable:
		return "unstable"
	default:
		return "ongoing"
	}
}

// Report is the outcome of one classification.
type Report struct {
	// Resolved is true when every top-level object is stable and the
	// top-level objects are mutually unbound, receding and tidally isolated.
	Resolved bool
	// Levels[n] aggregates the verdicts of all composites with n bodies.
	Levels     []Verdict
	Topology   string
	TopologyHR string
}

// Classifier rebuilds the full hierarchy in a private scratch arena so that
// classification never mutates the caller's tree.
type Classifier struct {
	opts    Options
	scratch *hierarchy.Hierarchy
}

func New(h *hierarchy.Hierarchy, opts Options) *Classifier {
	return &Classifier{opts: opts, scratch: h.Clone()}
}

func (c *Classifier) Options() Options { return c.opts }

// Hierarchy returns the tree built by the last call to Classify.
func (c *Classifier) Hierarchy() *hierarchy.Hierarchy { return c.scratch }

// Classify brings every leaf to time t, pairs the most tightly bound
// objects bottom-up until no bound pair remains and judges the result.
func (c *Classifier) Classify(h *hierarchy.Hierarchy, t float64) (Report, error) {
	s := c.scratch
	s.CopyFrom(h)
	if err := s.Trickle(t); err != nil {
		return Report{}, fmt.Errorf("classify: %w", err)
	}
	s.Flatten()

	for {
		pairs := boundPairs(s)
		if len(pairs) == 0 {
			break
		}
		p := pairs[0]
		idx, err := s.Bind(p.i, p.j, t)
		if err != nil {
			return Report{}, fmt.Errorf("classify: %w", err)
		}
		s.ReplaceRoot(p.i, idx)
		s.RemoveRoot(p.j)
	}

	rep := Report{Levels: make([]Verdict, s.NStarInit+1)}
	for n := 2; n <= s.NStarInit; n++ {
		for k := 0; k < s.Count[n]; k++ {
			switch {
			case !IsStable(s, s.Index[n]+k, c.opts):
				rep.Levels[n] = Unstable
			case rep.Levels[n] != Unstable:
				rep.Levels[n] = Stable
			}
		}
	}

	rep.Resolved = true
	for _, r := range s.Roots {
		if !IsStable(s, r, c.opts) {
			rep.Resolved = false
			break
		}
	}
	if rep.Resolved {
		rep.Resolved = separating(s, c.opts.TidalTol)
	}
	rep.Topology = s.String()
	rep.TopologyHR = s.HumanString()
	return rep, nil
}

type pair struct {
	i, j int
	a    float64
}

// boundPairs lists every mutually bound pair of roots, tightest first.
func boundPairs(h *hierarchy.Hierarchy) []pair {
	var out []pair
	for a := 0; a < len(h.Roots); a++ {
		for b := a + 1; b < len(h.Roots); b++ {
			i, j := h.Roots[a], h.Roots[b]
			if sma, ok := semimajor(h.Node(i), h.Node(j)); ok {
				out = append(out, pair{i: i, j: j, a: sma})
			}
		}
	}
	sort.SliceStable(out, func(x, y int) bool { return out[x].a < out[y].a })
	return out
}

// semimajor returns the two-body semimajor axis of p and q if bound.
func semimajor(p, q *hierarchy.Body) (float64, bool) {
	x, v := hierarchy.Relative(p, q)
	m := p.M + q.M
	eps := 0.5*r3.Norm2(v) - m/r3.Norm(x)
	if eps >= 0 {
		return 0, false
	}
	return -m / (2 * eps), true
}

// separating reports whether all roots are pairwise unbound, receding and
// tidally isolated.
func separating(h *hierarchy.Hierarchy, tidalTol float64) bool {
	for a := 0; a < len(h.Roots); a++ {
		for b := a + 1; b < len(h.Roots); b++ {
			p, q := h.Node(h.Roots[a]), h.Node(h.Roots[b])
			if _, bound := semimajor(p, q); bound {
				return false
			}
			x, v := hierarchy.Relative(p, q)
			if r3.Dot(x, v) < 0 {
				return false
			}
		}
	}
	return tidallyIsolated(h, tidalTol)
}

// tidallyIsolated reports whether every composite root feels a tidal
// perturbation below tol from each other root.
func tidallyIsolated(h *hierarchy.Hierarchy, tol float64) bool {
	for _, r := range h.Roots {
		if MaxTide(h, r) > tol {
			return false
		}
	}
	return true
}

// MaxTide returns the largest tidal perturbation on root idx from any other
// root. Leaves feel none.
func MaxTide(h *hierarchy.Hierarchy, idx int) float64 {
	b := h.Node(idx)
	if b.IsLeaf() {
		return 0
	}
	worst := 0.0
	for _, o := range h.Roots {
		if o == idx {
			continue
		}
		ob := h.Node(o)
		r := r3.Norm(r3.Sub(ob.X, b.X))
		worst = max(worst, RelTide(h, idx, ob.M, r))
	}
	return worst
}
