// Package coords maps the Euclidean states of a set of bodies to and from
// integration variables.
//
// The direct map packs position and velocity unchanged. The regularized map
// describes the system by all N(N-1)/2 pairwise separations in the
// center-of-mass frame, each lifted to a Kustaanheimo-Stiefel spinor, with
// conjugate momenta chosen so the Hamiltonian stays regular at collision.
package coords
