package scenario

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/encounter/internal/hierarchy"
	"github.com/san-kum/encounter/internal/kepler"
	"github.com/san-kum/encounter/internal/units"
)

var ErrParams = errors.New("scenario: invalid parameters")

// Params describes initial conditions in physical units. Slices are ordered
// innermost orbit first; Masses and Radii follow star ids.
type Params struct {
	// Masses in solar masses.
	Masses []float64
	// Radii in Schwarzschild radii of each star.
	Radii []float64
	// A holds semimajor axes in AU.
	A []float64
	E []float64
	// Inc is the mutual inclination in radians, or hierarchy.Random.
	Inc float64
	// Peri holds arguments of pericenter in radians, or hierarchy.Random.
	Peri []float64
	// VInf is the relative speed at infinity in units of the critical speed.
	VInf float64
	// Impact is the impact parameter in units of the binary semimajor axis.
	Impact float64
	// TidalTol fixes the starting separation of scattering scenarios.
	TidalTol float64
}

// Builder creates a hierarchy in code units together with its unit scale.
type Builder func(p Params, src rand.Source, solve kepler.Solver) (*hierarchy.Hierarchy, units.Units, error)

func (p Params) need(nm, na int) error {
	if len(p.Masses) < nm || len(p.Radii) < nm || len(p.A) < na || len(p.E) < na {
		return fmt.Errorf("%w: need %d masses and radii and %d orbits", ErrParams, nm, na)
	}
	return nil
}

func leaves(p Params, n int, solve kepler.Solver) (*hierarchy.Hierarchy, error) {
	h, err := hierarchy.New(n, solve)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		b := h.Node(i)
		b.M = p.Masses[i] * units.MSun
		b.R = p.Radii[i] * units.SchwarzschildRadius(b.M)
	}
	return h, nil
}

// Triple builds the hierarchical triple [[0 1] 2] centered on the origin.
// The mutual inclination is split between the two orbits so the total
// angular momentum points along z.
func Triple(p Params, src rand.Source, solve kepler.Solver) (*hierarchy.Hierarchy, units.Units, error) {
	if err := p.need(3, 2); err != nil {
		return nil, units.Units{}, err
	}
	h, err := leaves(p, 3, solve)
	if err != nil {
		return nil, units.Units{}, err
	}
	inner, err := h.Link(0, 1)
	if err != nil {
		return nil, units.Units{}, err
	}
	outer, err := h.Link(inner, 2)
	if err != nil {
		return nil, units.Units{}, err
	}
	h.Roots = append(h.Roots[:0], outer)

	h.Node(inner).A, h.Node(inner).E = p.A[0]*units.AU, p.E[0]
	h.Node(outer).A, h.Node(outer).E = p.A[1]*units.AU, p.E[1]

	u, err := units.FromBinary(h.Node(0).M, h.Node(1).M, h.Node(inner).A)
	if err != nil {
		return nil, units.Units{}, err
	}
	h.Normalize(u)

	inc := p.Inc
	if inc == hierarchy.Random {
		inc = math.Acos(distuv.Uniform{Min: -1, Max: 1, Src: src}.Rand())
	}
	incIn, incOut := h.IncPartition(outer, inc)
	periIn, periOut := peri(p, 0), peri(p, 1)

	h.Orient(outer, src, incOut, periOut, 0)
	if err := h.Downsync(outer, 0); err != nil {
		return nil, units.Units{}, err
	}
	h.Orient(inner, src, incIn, periIn, math.Pi)
	if err := h.Downsync(inner, 0); err != nil {
		return nil, units.Units{}, err
	}
	return h, u, nil
}

// BinarySingle builds a randomly oriented binary [0 1] and a single star 2
// approaching on a hyperbola with the given speed at infinity and impact
// parameter, starting where the tidal perturbation on the binary equals
// TidalTol.
func BinarySingle(p Params, src rand.Source, solve kepler.Solver) (*hierarchy.Hierarchy, units.Units, error) {
	if err := p.need(3, 1); err != nil {
		return nil, units.Units{}, err
	}
	if p.TidalTol <= 0 || p.VInf <= 0 {
		return nil, units.Units{}, fmt.Errorf("%w: vinf=%g tidaltol=%g", ErrParams, p.VInf, p.TidalTol)
	}
	h, err := leaves(p, 3, solve)
	if err != nil {
		return nil, units.Units{}, err
	}
	bin, err := h.Link(0, 1)
	if err != nil {
		return nil, units.Units{}, err
	}
	h.Roots = append(h.Roots[:0], bin, 2)
	h.Node(bin).A, h.Node(bin).E = p.A[0]*units.AU, p.E[0]

	u, err := units.FromBinary(h.Node(0).M, h.Node(1).M, h.Node(bin).A)
	if err != nil {
		return nil, units.Units{}, err
	}
	h.Normalize(u)
	h.RandomOrient(bin, src)

	b, s := h.Node(bin), h.Node(2)
	m0, m1, m2 := h.Node(0).M, h.Node(1).M, s.M
	mb := m0 + m1
	m := mb + m2

	vcrit := math.Sqrt(m0 * m1 * m / (b.A * mb * m2))
	vinf := p.VInf * vcrit
	impact := p.Impact * b.A

	r := b.Apocenter() * math.Cbrt(2*m2/(mb*p.TidalTol))
	v := math.Sqrt(vinf*vinf + 2*m/r)
	vt := impact * vinf / r
	if vt > v {
		return nil, units.Units{}, fmt.Errorf("%w: impact parameter %g exceeds starting separation", ErrParams, p.Impact)
	}
	vr := -math.Sqrt(v*v - vt*vt)

	x := r3.Vec{X: r}
	vel := r3.Vec{X: vr, Y: vt}
	b.X, s.X = r3.Scale(-m2/m, x), r3.Scale(mb/m, x)
	b.V, s.V = r3.Scale(-m2/m, vel), r3.Scale(mb/m, vel)

	if err := h.Downsync(bin, 0); err != nil {
		return nil, units.Units{}, err
	}
	return h, u, nil
}

func peri(p Params, i int) float64 {
	if i < len(p.Peri) {
		return p.Peri[i]
	}
	return hierarchy.Random
}
