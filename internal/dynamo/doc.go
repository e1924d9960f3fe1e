// Package dynamo provides core integration primitives shared by the
// propagators and the adaptive stepper.
//
//   - [State]: flat vector of integration variables
//   - [System]: ODE right-hand side dy/ds = f(y, s)
//   - [AdaptiveIntegrator]: error-controlled single-step integrator
//   - [SimulationError]: wraps a fatal failure with step context
//
// # Example
//
//	stepper := integrators.NewRK45(dynamo.Tolerance{Abs: 1e-9, Rel: 1e-9})
//	y, taken, next, err := stepper.StepAdaptive(sys, y, s, h)
//
// # Thread Safety
//
// Systems keep scratch buffers and are NOT safe for concurrent use. A run
// owns its propagator exclusively.
package dynamo
