package physics

import (
	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/hierarchy"
)

// Propagator advances a fixed set of root bodies. Implementations own their
// parameter block and are rebuilt, not mutated, whenever the root set
// changes.
type Propagator interface {
	dynamo.System
	// Pack returns the integration variables for the bodies at time t.
	Pack(t float64, dst dynamo.State) dynamo.State
	// Unpack writes Euclidean states back into the bodies and returns the
	// physical time of y at independent variable s.
	Unpack(y dynamo.State, s float64) float64
	// InitialStep suggests a first step in the independent variable.
	InitialStep(y dynamo.State) float64
	Regularized() bool
}

type Options struct {
	PN PN
	// C is the speed of light in code units.
	C          float64
	Regularize bool
}

// New selects the regularized propagator when requested and at least two
// bodies are live, and the direct one otherwise.
func New(bs []*hierarchy.Body, t float64, opts Options) (Propagator, error) {
	if opts.Regularize && len(bs) >= 2 {
		return NewKS(bs, t)
	}
	return NewDirect(bs, opts.PN, opts.C), nil
}
