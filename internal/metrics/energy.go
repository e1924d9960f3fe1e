package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/hierarchy"
)

// Drift tracks the change in total energy and angular momentum since the
// first observation. Energy and angular momentum injected on purpose, such
// as merger recoil kicks, are subtracted before comparing.
type Drift struct {
	name     string
	e0       float64
	l0       r3.Vec
	e        float64
	l        r3.Vec
	kickE    float64
	kickL    r3.Vec
	maxDrift float64
	samples  int
}

func NewDrift() *Drift {
	return &Drift{name: "energy_drift"}
}

func (d *Drift) Name() string { return d.name }

// Observe samples the hierarchy. Leaf states must be current.
func (d *Drift) Observe(h *hierarchy.Hierarchy, _ float64) {
	e := h.Energy() - d.kickE
	l := r3.Sub(h.TotalAngularMomentum(), d.kickL)
	if d.samples == 0 {
		d.e0, d.l0 = e, l
	}
	d.e, d.l = e, l
	d.samples++

	if d.e0 != 0 {
		d.maxDrift = math.Max(d.maxDrift, math.Abs((e-d.e0)/d.e0))
	}
}

// AddKick records energy and angular momentum added deliberately.
func (d *Drift) AddKick(e float64, l r3.Vec) {
	d.kickE += e
	d.kickL = r3.Add(d.kickL, l)
}

// Value is the largest fractional energy drift seen.
func (d *Drift) Value() float64 { return d.maxDrift }

func (d *Drift) Initial() (float64, r3.Vec) { return d.e0, d.l0 }

// Energy returns the latest energy change and its ratio to the initial
// energy.
func (d *Drift) Energy() (delta, frac float64) {
	delta = d.e - d.e0
	if d.e0 != 0 {
		frac = delta / d.e0
	}
	return delta, frac
}

// AngularMomentum returns the magnitude of the latest angular momentum
// change and its ratio to the initial magnitude.
func (d *Drift) AngularMomentum() (delta, frac float64) {
	delta = r3.Norm(r3.Sub(d.l, d.l0))
	if l0 := r3.Norm(d.l0); l0 != 0 {
		frac = delta / l0
	}
	return delta, frac
}

func (d *Drift) Reset() {
	*d = Drift{name: d.name}
}
