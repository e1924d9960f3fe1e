package coords

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/hierarchy"
)

var ErrTooFewBodies = errors.New("coords: regularization needs at least two bodies")

// PairIndex returns the position of pair (i, j), i < j, among the n(n-1)/2
// pairs of n bodies in lexicographic order.
func PairIndex(i, j, n int) int {
	return i*n - (i+1)*(i+2)/2 + j
}

// NumPairs is n(n-1)/2.
func NumPairs(n int) int { return n * (n - 1) / 2 }

// SeparationMatrix returns the n x K matrix A with A[i][k] = -1 and
// A[j][k] = +1 for pair k = (i, j). Separations are q = A^T x and body
// momenta are p = A P for pair momenta P.
func SeparationMatrix(n int) *mat.Dense {
	k := NumPairs(n)
	a := mat.NewDense(n, max(k, 1), nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := PairIndex(i, j, n)
			a.Set(i, c, -1)
			a.Set(j, c, 1)
		}
	}
	return a
}

// KineticMatrix returns T = A^T diag(1/m) A, so that the kinetic energy is
// (1/2) sum T[k][l] p_k . p_l over pair momenta.
func KineticMatrix(a *mat.Dense, m []float64) *mat.Dense {
	inv := make([]float64, len(m))
	for i, mi := range m {
		inv[i] = 1 / mi
	}
	var t mat.Dense
	t.Product(a.T(), mat.NewDiagDense(len(m), inv), a)
	return &t
}

// KSDim is the number of integration variables per pair: Q and P.
const KSDim = 8

// KS is the regularized map for a fixed set of bodies. The center of mass
// moves uniformly and is carried outside the integration variables.
type KS struct {
	N, K  int
	Mass  []float64
	Pairs [][2]int
	Sep   *mat.Dense
	Kin   *mat.Dense
	XCom  r3.Vec
	VCom  r3.Vec
	T0    float64

	// weights maps pair separations back to center-of-mass positions.
	weights *mat.Dense
}

func NewKS(bs []*hierarchy.Body, t0 float64) (*KS, error) {
	n := len(bs)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewBodies, n)
	}
	k := &KS{
		N:     n,
		K:     NumPairs(n),
		Mass:  make([]float64, n),
		Pairs: make([][2]int, 0, NumPairs(n)),
		Sep:   SeparationMatrix(n),
		T0:    t0,
	}
	for i, b := range bs {
		k.Mass[i] = b.M
	}
	k.Kin = KineticMatrix(k.Sep, k.Mass)

	mtot := hierarchy.Mass(bs)
	k.weights = mat.NewDense(n, k.K, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := len(k.Pairs)
			k.Pairs = append(k.Pairs, [2]int{i, j})
			k.weights.Set(i, c, -k.Mass[j]/mtot)
			k.weights.Set(j, c, k.Mass[i]/mtot)
		}
	}
	for _, b := range bs {
		k.XCom = r3.Add(k.XCom, r3.Scale(b.M/mtot, b.X))
		k.VCom = r3.Add(k.VCom, r3.Scale(b.M/mtot, b.V))
	}
	return k, nil
}

// Dim is the length of the packed state: time followed by (Q, P) for each
// pair.
func (k *KS) Dim() int { return 1 + KSDim*k.K }

// Q returns the spinor of pair c in y.
func Q(y dynamo.State, c int) Spinor {
	o := 1 + KSDim*c
	return Spinor{y[o], y[o+1], y[o+2], y[o+3]}
}

// P returns the conjugate momentum of pair c in y.
func P(y dynamo.State, c int) Spinor {
	o := 1 + KSDim*c + 4
	return Spinor{y[o], y[o+1], y[o+2], y[o+3]}
}

// Momentum returns the Euclidean momentum of pair c, p = L(Q)P / (2|Q|^2).
func Momentum(q, p Spinor) r3.Vec {
	r := q.Norm2()
	if r == 0 {
		return r3.Vec{}
	}
	return LMul(q, p).Scale(1 / (2 * r)).Vec()
}

// Pack writes the regularized state of bs at time t into dst.
func (k *KS) Pack(bs []*hierarchy.Body, t float64, dst dynamo.State) dynamo.State {
	n := k.Dim()
	if cap(dst) < n {
		dst = make(dynamo.State, n)
	}
	dst = dst[:n]
	dst[0] = t

	x := mat.NewDense(k.N, 3, nil)
	for i, b := range bs {
		x.SetRow(i, []float64{b.X.X, b.X.Y, b.X.Z})
	}
	var q mat.Dense
	q.Mul(k.Sep.T(), x)

	nf := float64(k.N)
	for c, pr := range k.Pairs {
		pi := r3.Scale(bs[pr[0]].M, r3.Sub(bs[pr[0]].V, k.VCom))
		pj := r3.Scale(bs[pr[1]].M, r3.Sub(bs[pr[1]].V, k.VCom))
		pk := r3.Scale(1/nf, r3.Sub(pj, pi))

		Qk := Lift(r3.Vec{X: q.At(c, 0), Y: q.At(c, 1), Z: q.At(c, 2)})
		Pk := LTMul(Qk, Embed(pk)).Scale(2)

		o := 1 + KSDim*c
		copy(dst[o:o+4], Qk[:])
		copy(dst[o+4:o+8], Pk[:])
	}
	return dst
}

// Unpack writes Euclidean positions and velocities from y into bs and
// returns the physical time held in y.
func (k *KS) Unpack(y dynamo.State, bs []*hierarchy.Body) float64 {
	t := y[0]
	q := mat.NewDense(k.K, 3, nil)
	p := mat.NewDense(k.K, 3, nil)
	for c := range k.Pairs {
		Qk, Pk := Q(y, c), P(y, c)
		qv := Qk.Project()
		pv := Momentum(Qk, Pk)
		q.SetRow(c, []float64{qv.X, qv.Y, qv.Z})
		p.SetRow(c, []float64{pv.X, pv.Y, pv.Z})
	}

	var x, mom mat.Dense
	x.Mul(k.weights, q)
	mom.Mul(k.Sep, p)

	xcom := r3.Add(k.XCom, r3.Scale(t-k.T0, k.VCom))
	for i, b := range bs {
		b.X = r3.Add(xcom, r3.Vec{X: x.At(i, 0), Y: x.At(i, 1), Z: x.At(i, 2)})
		b.V = r3.Add(k.VCom, r3.Scale(1/k.Mass[i], r3.Vec{X: mom.At(i, 0), Y: mom.At(i, 1), Z: mom.At(i, 2)}))
	}
	return t
}
