package coords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/hierarchy"
)

func bodies() []*hierarchy.Body {
	return []*hierarchy.Body{
		{M: 0.4, X: r3.Vec{X: 1, Y: 0.2, Z: -0.1}, V: r3.Vec{X: 0.1, Y: 0.5, Z: 0}},
		{M: 0.8, X: r3.Vec{X: -0.7, Y: 0.3, Z: 0.2}, V: r3.Vec{X: -0.2, Y: -0.3, Z: 0.05}},
		{M: 0.3, X: r3.Vec{X: 2.5, Y: -4, Z: 1}, V: r3.Vec{X: 0.3, Y: 0.1, Z: -0.2}},
		{M: 1.1, X: r3.Vec{X: -3, Y: -2, Z: -0.5}, V: r3.Vec{Y: 0.2, Z: 0.1}},
	}
}

func clone(bs []*hierarchy.Body) []*hierarchy.Body {
	out := make([]*hierarchy.Body, len(bs))
	for i, b := range bs {
		c := *b
		out[i] = &c
	}
	return out
}

func assertSameState(t *testing.T, want, got []*hierarchy.Body, tol float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, 0, r3.Norm(r3.Sub(want[i].X, got[i].X)), tol, "x[%d]", i)
		assert.InDelta(t, 0, r3.Norm(r3.Sub(want[i].V, got[i].V)), tol, "v[%d]", i)
	}
}

func TestDirect_RoundTrip(t *testing.T) {
	bs := bodies()
	y := PackDirect(bs, nil)
	require.Len(t, y, 24)
	out := clone(bs)
	for _, b := range out {
		b.X, b.V = r3.Vec{}, r3.Vec{}
	}
	UnpackDirect(y, out)
	assertSameState(t, bs, out, 0)
}

func TestPairIndex(t *testing.T) {
	for _, n := range []int{2, 3, 4, 6} {
		c := 0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				assert.Equal(t, c, PairIndex(i, j, n), "n=%d (%d,%d)", n, i, j)
				c++
			}
		}
		assert.Equal(t, c, NumPairs(n))
	}
}

func TestLift_Project(t *testing.T) {
	vecs := []r3.Vec{
		{X: 1, Y: 2, Z: 3},
		{X: -1, Y: 2, Z: 3},
		{X: -5, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1e-3},
		{X: 3},
	}
	for _, q := range vecs {
		Q := Lift(q)
		assert.InDelta(t, 0, r3.Norm(r3.Sub(q, Q.Project())), 1e-13, "q=%v", q)
		assert.InDelta(t, r3.Norm(q), Q.Norm2(), 1e-13)
	}
	assert.Equal(t, Spinor{}, Lift(r3.Vec{}))
}

func TestLMatrix_Orthogonal(t *testing.T) {
	Q := Spinor{0.3, -1.2, 0.7, 0.4}
	v := Spinor{1, -2, 0.5, 3}
	got := LMul(Q, LTMul(Q, v))
	want := v.Scale(Q.Norm2())
	assert.InDeltaSlice(t, want[:], got[:], 1e-12)
}

func TestKineticMatrix_Energy(t *testing.T) {
	bs := bodies()
	k, err := NewKS(bs, 0)
	require.NoError(t, err)
	r, c := k.Kin.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 6, c)
	assert.True(t, mat.EqualApprox(k.Kin, k.Kin.T(), 1e-15))

	y := k.Pack(bs, 0, nil)
	ke := 0.0
	for a := range k.Pairs {
		pa := Momentum(Q(y, a), P(y, a))
		for b := range k.Pairs {
			pb := Momentum(Q(y, b), P(y, b))
			ke += 0.5 * k.Kin.At(a, b) * r3.Dot(pa, pb)
		}
	}

	want := 0.0
	for _, b := range bs {
		want += 0.5 * b.M * r3.Norm2(r3.Sub(b.V, k.VCom))
	}
	assert.InDelta(t, want, ke, 1e-12)
}

func TestKS_RoundTrip(t *testing.T) {
	bs := bodies()
	k, err := NewKS(bs, 2)
	require.NoError(t, err)
	y := k.Pack(bs, 2, nil)
	require.Len(t, y, k.Dim())

	out := clone(bs)
	tt := k.Unpack(y, out)
	assert.Equal(t, 2.0, tt)
	assertSameState(t, bs, out, 1e-12)
}

func TestKS_SeparationAndMomentum(t *testing.T) {
	bs := bodies()[:2]
	k, err := NewKS(bs, 0)
	require.NoError(t, err)
	y := k.Pack(bs, 0, nil)

	q := Q(y, 0).Project()
	assert.InDelta(t, 0, r3.Norm(r3.Sub(r3.Sub(bs[1].X, bs[0].X), q)), 1e-13)

	// for two bodies the pair momentum is the reduced momentum
	mu := bs[0].M * bs[1].M / (bs[0].M + bs[1].M)
	want := r3.Scale(mu, r3.Sub(bs[1].V, bs[0].V))
	got := Momentum(Q(y, 0), P(y, 0))
	assert.InDelta(t, 0, r3.Norm(r3.Sub(want, got)), 1e-13)
}

func TestKS_ComDrift(t *testing.T) {
	bs := bodies()
	k, err := NewKS(bs, 0)
	require.NoError(t, err)
	y := k.Pack(bs, 0, nil)
	y[0] = 10

	out := clone(bs)
	k.Unpack(y, out)
	var xcm r3.Vec
	for _, b := range out {
		xcm = r3.Add(xcm, r3.Scale(b.M/hierarchy.Mass(out), b.X))
	}
	want := r3.Add(k.XCom, r3.Scale(10, k.VCom))
	assert.InDelta(t, 0, r3.Norm(r3.Sub(want, xcm)), 1e-12)
}

func TestNewKS_TooFew(t *testing.T) {
	_, err := NewKS(bodies()[:1], 0)
	assert.ErrorIs(t, err, ErrTooFewBodies)
}
