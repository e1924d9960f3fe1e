// Package kepler solves Kepler's equation M = E - e sin E for the eccentric
// anomaly of a bound orbit.
package kepler

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultAbsTol  = 1.0e-11
	DefaultRelTol  = 1.0e-11
	DefaultMaxIter = 100
)

var ErrNoConvergence = errors.New("kepler: root solve did not converge")

// Solver returns the eccentric anomaly for eccentricity e in [0,1) and mean
// anomaly m. Implementations must be pure.
type Solver func(e, m float64) (float64, error)

type Options struct {
	AbsTol  float64
	RelTol  float64
	MaxIter int
}

func DefaultOptions() Options {
	return Options{AbsTol: DefaultAbsTol, RelTol: DefaultRelTol, MaxIter: DefaultMaxIter}
}

// New binds opts into a Solver.
func New(opts Options) Solver {
	return func(e, m float64) (float64, error) {
		return Solve(e, m, opts)
	}
}

// Solve brackets the root in [m-e, m+e] and iterates Newton steps, falling
// back to bisection whenever a Newton step leaves the bracket. It converges
// when successive iterates differ by less than AbsTol + RelTol*|E|.
func Solve(e, m float64, opts Options) (float64, error) {
	if e < 0 || e >= 1 || math.IsNaN(m) {
		return 0, fmt.Errorf("%w: e=%g M=%g out of domain", ErrNoConvergence, e, m)
	}
	if e == 0 {
		return m, nil
	}

	lo, hi := m-e, m+e
	x := m
	if e > 0.8 {
		x = math.Pi * math.Copysign(1, math.Sin(m))
		x += m - math.Remainder(m, 2*math.Pi)
		if x < lo || x > hi {
			x = m
		}
	}

	for i := 0; i < opts.MaxIter; i++ {
		f := x - e*math.Sin(x) - m
		if f == 0 {
			return x, nil
		}
		if f > 0 {
			hi = x
		} else {
			lo = x
		}

		next := x - f/(1-e*math.Cos(x))
		if next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}

		if math.Abs(next-x) < opts.AbsTol+opts.RelTol*math.Abs(next) {
			return next, nil
		}
		x = next
	}
	return x, fmt.Errorf("%w: e=%g M=%g after %d iterations", ErrNoConvergence, e, m, opts.MaxIter)
}
