package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/encounter/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an embedded Dormand-Prince 5(4) stepper. Trial steps whose error
// exceeds the tolerance are rejected and retried with a smaller size.
type RK45 struct {
	tol      dynamo.Tolerance
	safety   float64
	minScale float64
	maxScale float64

	k     [7]dynamo.State
	stage dynamo.State
	yNew  dynamo.State
}

func NewRK45(tol dynamo.Tolerance) *RK45 {
	return &RK45{
		tol:      tol,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Tolerance() dynamo.Tolerance { return r.tol }

func (r *RK45) ensureScratch(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
	r.yNew = make(dynamo.State, n)
}

func (r *RK45) StepAdaptive(dyn dynamo.System, y dynamo.State, s, h float64) (dynamo.State, float64, float64, error) {
	n := len(y)
	if n != dyn.StateDim() {
		return nil, 0, 0, fmt.Errorf("%w: got %d, want %d", dynamo.ErrDimensionMismatch, n, dyn.StateDim())
	}
	r.ensureScratch(n)
	copy(r.k[0], dyn.Derive(y, s))

	for {
		if h == 0 || s+h == s {
			return nil, 0, 0, dynamo.ErrStepTooSmall
		}

		errRatio := r.trial(dyn, y, s, h)
		if math.IsNaN(errRatio) {
			return nil, 0, 0, dynamo.ErrInvalidState
		}

		if errRatio <= 1 {
			next := h * r.maxScale
			if errRatio > 0 {
				next = h * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			}
			return r.yNew.Clone(), h, next, nil
		}

		h *= math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	}
}

// trial fills r.yNew with the fifth-order solution and returns the largest
// scaled error component.
func (r *RK45) trial(dyn dynamo.System, y dynamo.State, s, h float64) float64 {
	k := &r.k

	r.combine(y, h, []float64{b21}, k[:1])
	copy(k[1], dyn.Derive(r.stage, s+a2*h))

	r.combine(y, h, []float64{b31, b32}, k[:2])
	copy(k[2], dyn.Derive(r.stage, s+a3*h))

	r.combine(y, h, []float64{b41, b42, b43}, k[:3])
	copy(k[3], dyn.Derive(r.stage, s+a4*h))

	r.combine(y, h, []float64{b51, b52, b53, b54}, k[:4])
	copy(k[4], dyn.Derive(r.stage, s+a5*h))

	r.combine(y, h, []float64{b61, b62, b63, b64, b65}, k[:5])
	copy(k[5], dyn.Derive(r.stage, s+h))

	r.combine(y, h, []float64{c1, 0, c3, c4, c5, c6}, k[:6])
	copy(r.yNew, r.stage)
	copy(k[6], dyn.Derive(r.yNew, s+h))

	errMax := 0.0
	for i := range y {
		errEst := h * (dc1*k[0][i] + dc3*k[2][i] + dc4*k[3][i] + dc5*k[4][i] + dc6*k[5][i] + dc7*k[6][i])
		scale := r.tol.Abs + r.tol.Rel*math.Max(math.Abs(y[i]), math.Abs(r.yNew[i]))
		if scale == 0 {
			continue
		}
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	return errMax
}

// combine sets r.stage = y + h*sum(coef[j]*ks[j]).
func (r *RK45) combine(y dynamo.State, h float64, coef []float64, ks []dynamo.State) {
	copy(r.stage, y)
	for j, c := range coef {
		if c == 0 {
			continue
		}
		floats.AddScaled(r.stage, h*c, ks[j])
	}
}
