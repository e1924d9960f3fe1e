package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// kepler integrates a planar two-body relative orbit with GM = 1.
type kepler struct{}

func (k *kepler) StateDim() int { return 4 }

func (k *kepler) Derive(x dynamo.State, t float64) dynamo.State {
	r := math.Hypot(x[0], x[1])
	r3 := r * r * r
	return dynamo.State{x[2], x[3], -x[0] / r3, -x[1] / r3}
}

func integrate(t *testing.T, sys dynamo.System, x dynamo.State, tEnd float64, tol dynamo.Tolerance) (dynamo.State, int) {
	t.Helper()
	stepper := NewRK45(tol)
	s, h := 0.0, 0.01
	steps := 0
	for s < tEnd {
		if s+h > tEnd {
			h = tEnd - s
		}
		var taken float64
		var err error
		x, taken, h, err = stepper.StepAdaptive(sys, x, s, h)
		require.NoError(t, err)
		s += taken
		steps++
	}
	return x, steps
}

func TestRK45_HarmonicAccuracy(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
		want float64
	}{
		{"loose", 1e-6, 1e-4},
		{"tight", 1e-10, 1e-7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tEnd := 10.0
			x, _ := integrate(t, &harmonicOscillator{}, dynamo.State{1, 0}, tEnd, dynamo.Tolerance{Abs: tt.tol, Rel: tt.tol})
			assert.InDelta(t, math.Cos(tEnd), x[0], tt.want)
			assert.InDelta(t, -math.Sin(tEnd), x[1], tt.want)
		})
	}
}

func TestRK45_EccentricOrbitEnergy(t *testing.T) {
	// e = 0.9, a = 1: pericenter speed sqrt((1+e)/(1-e)).
	e := 0.9
	x0 := dynamo.State{1 - e, 0, 0, math.Sqrt((1 + e) / (1 - e))}
	energy := func(x dynamo.State) float64 {
		return 0.5*(x[2]*x[2]+x[3]*x[3]) - 1/math.Hypot(x[0], x[1])
	}
	e0 := energy(x0)

	x, steps := integrate(t, &kepler{}, x0.Clone(), 2*math.Pi, dynamo.Tolerance{Abs: 1e-10, Rel: 1e-10})

	assert.InDelta(t, 0, (energy(x)-e0)/e0, 1e-7)
	assert.InDelta(t, x0[0], x[0], 1e-5)
	assert.Greater(t, steps, 10)
}

func TestRK45_RejectsLargeStep(t *testing.T) {
	stepper := NewRK45(dynamo.Tolerance{Abs: 1e-12, Rel: 1e-12})
	_, taken, next, err := stepper.StepAdaptive(&harmonicOscillator{}, dynamo.State{1, 0}, 0, 5.0)
	require.NoError(t, err)
	assert.Less(t, taken, 5.0)
	assert.Greater(t, next, 0.0)
}

func TestRK45_DimensionMismatch(t *testing.T) {
	stepper := NewRK45(dynamo.Tolerance{Abs: 1e-9, Rel: 1e-9})
	_, _, _, err := stepper.StepAdaptive(&harmonicOscillator{}, dynamo.State{1, 0, 0}, 0, 0.1)
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}
