// Package physics provides the right-hand sides that advance the root
// bodies of a hierarchy between classifications.
//
// Each variant implements [Propagator]:
//
//   - [Direct]: Newtonian pair forces in physical time, optionally with
//     post-Newtonian corrections from [PN]
//   - [KS]: globally regularized Kustaanheimo-Stiefel equations in
//     fictitious time
//
// # Energy Conservation
//
// With all post-Newtonian orders off both variants conserve the energy of
// the root bodies up to integrator error:
//
//	p := physics.NewDirect(bodies, physics.PN{}, 0)
//	y := p.Pack(t, nil)
//	e0 := hierarchy.Kinetic(bodies) + hierarchy.Potential(bodies)
package physics
