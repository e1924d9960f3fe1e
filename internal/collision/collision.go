// Package collision detects touching stars and replaces them with a single
// merger product.
package collision

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/encounter/internal/hierarchy"
	"github.com/san-kum/encounter/internal/units"
)

// Options control the merger product.
type Options struct {
	// Fexp scales the summed radii of the progenitors.
	Fexp float64
	// Kick enables the gravitational-wave recoil of the merger product.
	Kick bool
	// Units scale the recoil speed into code units.
	Units units.Units
}

// Event records one merger.
type Event struct {
	Time    float64
	First   string
	Second  string
	Product string
	// X is the position of the merger product.
	X r3.Vec
	// Kick is the recoil velocity in code units.
	Kick r3.Vec
	// KickEnergy and KickMomentum are the kinetic energy and momentum the
	// recoil added to the system.
	KickEnergy   float64
	KickMomentum r3.Vec
}

func (e Event) String() string {
	return fmt.Sprintf("t=%.6g %s + %s -> %s", e.Time, e.First, e.Second, e.Product)
}

// IsCollision reports whether two stars touch.
func IsCollision(p, q *hierarchy.Body) bool {
	return r3.Norm(r3.Sub(q.X, p.X)) <= p.R+q.R
}

// Collide merges the first touching pair of leaf roots, in root order. It
// merges at most one pair per call.
func Collide(h *hierarchy.Hierarchy, t float64, opts Options, src rand.Source) (Event, bool, error) {
	for a := 0; a < len(h.Roots); a++ {
		i := h.Roots[a]
		if !h.Node(i).IsLeaf() {
			continue
		}
		for b := a + 1; b < len(h.Roots); b++ {
			j := h.Roots[b]
			if !h.Node(j).IsLeaf() || !IsCollision(h.Node(i), h.Node(j)) {
				continue
			}
			_, ev, err := Merge(h, i, j, opts, src)
			if err != nil {
				return Event{}, false, err
			}
			ev.Time = t
			return ev, true, nil
		}
	}
	return Event{}, false, nil
}

// Merge replaces the root leaves i and j by one star at their center of
// mass. Internal energy absorbs the pair's kinetic energy relative to the
// center of mass and their mutual binding energy, so total energy is
// conserved before any recoil. The product takes the lower arena index and
// its index is returned.
func Merge(h *hierarchy.Hierarchy, i, j int, opts Options, src rand.Source) (int, Event, error) {
	if i == j || !h.Node(i).IsLeaf() || !h.Node(j).IsLeaf() {
		return 0, Event{}, fmt.Errorf("collision: cannot merge nodes %d and %d", i, j)
	}
	if j < i {
		i, j = j, i
	}
	p, q := h.Node(i), h.Node(j)
	ev := Event{First: p.IDString(), Second: q.IDString()}

	m := p.M + q.M
	xcm := r3.Scale(1/m, r3.Add(r3.Scale(p.M, p.X), r3.Scale(q.M, q.X)))
	vcm := r3.Scale(1/m, r3.Add(r3.Scale(p.M, p.V), r3.Scale(q.M, q.V)))
	r := r3.Norm(r3.Sub(q.X, p.X))

	eint := p.Eint + q.Eint +
		0.5*p.M*r3.Norm2(p.V) + 0.5*q.M*r3.Norm2(q.V) - 0.5*m*r3.Norm2(vcm) -
		p.M*q.M/r
	lint := r3.Add(r3.Add(p.Lint, q.Lint), r3.Sub(
		r3.Add(r3.Scale(p.M, r3.Cross(p.X, p.V)), r3.Scale(q.M, r3.Cross(q.X, q.V))),
		r3.Scale(m, r3.Cross(xcm, vcm)),
	))

	if opts.Kick && opts.Units.V > 0 {
		k := r3.Scale(VKick(p.M, q.M)/opts.Units.V, isotropic(src))
		ev.Kick = k
		ev.KickMomentum = r3.Scale(m, k)
		ev.KickEnergy = 0.5 * m * (r3.Norm2(r3.Add(vcm, k)) - r3.Norm2(vcm))
		vcm = r3.Add(vcm, k)
	}

	fexp := opts.Fexp
	if fexp <= 0 {
		fexp = 1
	}
	p.R = fexp * (p.R + q.R)
	p.M = m
	p.X, p.V = xcm, vcm
	p.Eint, p.Lint = eint, lint
	p.IDs = append(p.IDs, q.IDs...)
	p.NColl += q.NColl
	ev.Product = p.IDString()
	ev.X = xcm

	h.RemoveRoot(j)
	h.Free(j)
	return i, ev, nil
}

var fitchettPeak = fitchett((3 - math.Sqrt(5)) / 2)

func fitchett(q float64) float64 {
	return q * q * (1 - q) / math.Pow(1+q, 5)
}

// VKick returns the recoil speed in cm/s of the merger of two compact
// objects using the Fitchett mass-ratio dependence scaled to a maximum of
// 120 km/s.
func VKick(m1, m2 float64) float64 {
	q := math.Min(m1, m2) / math.Max(m1, m2)
	return 120 * units.KmPerS * fitchett(q) / fitchettPeak
}

func isotropic(src rand.Source) r3.Vec {
	cosTheta := distuv.Uniform{Min: -1, Max: 1, Src: src}.Rand()
	phi := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: src}.Rand()
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	return r3.Vec{X: sinTheta * math.Cos(phi), Y: sinTheta * math.Sin(phi), Z: cosTheta}
}
