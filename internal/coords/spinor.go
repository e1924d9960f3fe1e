package coords

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Spinor is a four-component K-S vector.
type Spinor [4]float64

// Lift returns a spinor Q with Project(Q) = q. The free gauge angle is
// fixed by zeroing one component, choosing the branch that avoids
// cancellation.
func Lift(q r3.Vec) Spinor {
	r := r3.Norm(q)
	if r == 0 {
		return Spinor{}
	}
	if q.X >= 0 {
		q1 := math.Sqrt(0.5 * (r + q.X))
		return Spinor{q1, q.Y / (2 * q1), q.Z / (2 * q1), 0}
	}
	q2 := math.Sqrt(0.5 * (r - q.X))
	return Spinor{q.Y / (2 * q2), q2, 0, q.Z / (2 * q2)}
}

// Project maps Q to the Euclidean vector L(Q)Q.
func (Q Spinor) Project() r3.Vec {
	return r3.Vec{
		X: Q[0]*Q[0] - Q[1]*Q[1] - Q[2]*Q[2] + Q[3]*Q[3],
		Y: 2 * (Q[0]*Q[1] - Q[2]*Q[3]),
		Z: 2 * (Q[0]*Q[2] + Q[1]*Q[3]),
	}
}

// Norm2 is |Q|^2, which equals the length of the projected vector.
func (Q Spinor) Norm2() float64 {
	return Q[0]*Q[0] + Q[1]*Q[1] + Q[2]*Q[2] + Q[3]*Q[3]
}

func (Q Spinor) Dot(P Spinor) float64 {
	return Q[0]*P[0] + Q[1]*P[1] + Q[2]*P[2] + Q[3]*P[3]
}

func (Q Spinor) Scale(f float64) Spinor {
	return Spinor{f * Q[0], f * Q[1], f * Q[2], f * Q[3]}
}

func (Q Spinor) Add(P Spinor) Spinor {
	return Spinor{Q[0] + P[0], Q[1] + P[1], Q[2] + P[2], Q[3] + P[3]}
}

// Embed extends a 3-vector with a zero fourth component.
func Embed(v r3.Vec) Spinor { return Spinor{v.X, v.Y, v.Z, 0} }

// Vec drops the fourth component.
func (Q Spinor) Vec() r3.Vec { return r3.Vec{X: Q[0], Y: Q[1], Z: Q[2]} }

// LMul returns L(Q)v for the K-S matrix
//
//	| Q1 -Q2 -Q3  Q4 |
//	| Q2  Q1 -Q4 -Q3 |
//	| Q3  Q4  Q1  Q2 |
//	| Q4 -Q3  Q2 -Q1 |
func LMul(Q, v Spinor) Spinor {
	return Spinor{
		Q[0]*v[0] - Q[1]*v[1] - Q[2]*v[2] + Q[3]*v[3],
		Q[1]*v[0] + Q[0]*v[1] - Q[3]*v[2] - Q[2]*v[3],
		Q[2]*v[0] + Q[3]*v[1] + Q[0]*v[2] + Q[1]*v[3],
		Q[3]*v[0] - Q[2]*v[1] + Q[1]*v[2] - Q[0]*v[3],
	}
}

// LTMul returns the transpose product L(Q)^T v.
func LTMul(Q, v Spinor) Spinor {
	return Spinor{
		Q[0]*v[0] + Q[1]*v[1] + Q[2]*v[2] + Q[3]*v[3],
		-Q[1]*v[0] + Q[0]*v[1] + Q[3]*v[2] - Q[2]*v[3],
		-Q[2]*v[0] - Q[3]*v[1] + Q[0]*v[2] + Q[1]*v[3],
		Q[3]*v[0] - Q[2]*v[1] + Q[1]*v[2] - Q[0]*v[3],
	}
}
