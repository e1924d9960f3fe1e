package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is a first-order ODE dy/ds = f(y, s). The independent variable s is
// physical time for direct integration and fictitious time for regularized
// integration.
type System interface {
	Derive(y State, s float64) State
	StateDim() int
}

// AdaptiveIntegrator advances y by one accepted step starting from the trial
// size h. It returns the new state, the step actually taken and the suggested
// size for the next step.
type AdaptiveIntegrator interface {
	StepAdaptive(dyn System, y State, s, h float64) (State, float64, float64, error)
}

// Tolerance is the per-component error target |err_i| <= Abs + Rel*|y_i|.
type Tolerance struct {
	Abs float64
	Rel float64
}

func (t Tolerance) Validate() error {
	if t.Abs < 0 || t.Rel < 0 || (t.Abs == 0 && t.Rel == 0) {
		return fmt.Errorf("%w: tolerance abs=%g rel=%g", ErrParameterBounds, t.Abs, t.Rel)
	}
	return nil
}
