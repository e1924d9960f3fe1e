package hierarchy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

func newBinary(t *testing.T, m0, m1, a, e float64, seed uint64) (*Hierarchy, int) {
	t.Helper()
	h, err := New(2, nil)
	require.NoError(t, err)
	h.Nodes[0].M, h.Nodes[1].M = m0, m1
	idx, err := h.Bind(0, 1, 0)
	require.NoError(t, err)
	h.Roots = []int{idx}
	b := h.Node(idx)
	b.A, b.E = a, e
	h.RandomOrient(idx, rand.NewSource(seed))
	require.NoError(t, h.Trickle(0))
	return h, idx
}

func assertVecNear(t *testing.T, want, got r3.Vec, tol float64, msg string) {
	t.Helper()
	assert.InDelta(t, 0, r3.Norm(r3.Sub(want, got)), tol, "%s: want %v got %v", msg, want, got)
}

func TestIndices(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{1, []int{0, 0, 1}},
		{3, []int{0, 0, 3, 4, 5}},
		{4, []int{0, 0, 4, 6, 7, 8}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Indices(tt.n), "n=%d", tt.n)
	}
}

func TestNew_Leaves(t *testing.T) {
	h, err := New(3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, h.NStar())
	assert.Equal(t, []int{0, 1, 2}, h.Roots)
	assert.Equal(t, "0 1 2", h.String())
	assert.Equal(t, "single-single-single", h.HumanString())
	require.NoError(t, h.Check())

	_, err = New(0, nil)
	assert.Error(t, err)
}

func TestBind_Topology(t *testing.T) {
	h, err := New(3, nil)
	require.NoError(t, err)
	for i := range 3 {
		h.Nodes[i].M = 1
	}
	h.Nodes[0].X = r3.Vec{X: -0.5}
	h.Nodes[1].X = r3.Vec{X: 0.5}
	h.Nodes[1].V = r3.Vec{Y: 1}
	h.Nodes[2].X = r3.Vec{X: 10}
	h.Nodes[2].V = r3.Vec{Y: 0.3}

	inner, err := h.Bind(0, 1, 0)
	require.NoError(t, err)
	outer, err := h.Bind(inner, 2, 0)
	require.NoError(t, err)
	h.Roots = []int{outer}

	assert.Equal(t, 2, h.Level(inner))
	assert.Equal(t, 3, h.Level(outer))
	assert.Equal(t, "[[0 1] 2]", h.String())
	assert.Equal(t, "triple", h.HumanString())
	assert.Equal(t, 3, h.Node(outer).N)
	assert.Equal(t, 3.0, h.Node(outer).M)
	require.NoError(t, h.Check())

	_, err = h.Alloc(3)
	assert.ErrorIs(t, err, ErrArenaFull)
}

func TestUpsyncDownsync_RoundTrip(t *testing.T) {
	for _, e := range []float64{0, 1e-9, 0.3, 0.9, 0.99} {
		for seed := uint64(1); seed <= 5; seed++ {
			h, idx := newBinary(t, 0.3, 0.7, 1.5, e, seed)
			x0, v0 := h.Nodes[0].X, h.Nodes[0].V
			x1, v1 := h.Nodes[1].X, h.Nodes[1].V

			h.Upsync(idx, 0)
			assert.InDelta(t, 1.5, h.Node(idx).A, 1e-10)
			assert.InDelta(t, e, h.Node(idx).E, 1e-9)

			require.NoError(t, h.Downsync(idx, 0))
			assertVecNear(t, x0, h.Nodes[0].X, 1e-10, "x0")
			assertVecNear(t, v0, h.Nodes[0].V, 1e-10, "v0")
			assertVecNear(t, x1, h.Nodes[1].X, 1e-10, "x1")
			assertVecNear(t, v1, h.Nodes[1].V, 1e-10, "v1")
		}
	}
}

func TestUpsync_CircularFrame(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		h, idx := newBinary(t, 1, 1, 1, 0, seed)
		x := r3.Sub(h.Nodes[1].X, h.Nodes[0].X)

		h.Upsync(idx, 0)
		b := h.Node(idx)
		assert.Equal(t, 0.0, b.E, "seed %d", seed)
		assert.InDelta(t, 0, r3.Dot(b.LHat, b.AHat), 1e-12, "seed %d", seed)
		assertVecNear(t, r3.Scale(1/r3.Norm(x), x), b.AHat, 1e-12, "ahat along separation")

		e0 := h.Energy()
		require.NoError(t, h.Downsync(idx, 3.7))
		sep := r3.Norm(r3.Sub(h.Nodes[1].X, h.Nodes[0].X))
		assert.InDelta(t, 1, sep, 1e-12, "separation stays at a")
		assert.InDelta(t, e0, h.Energy(), 1e-12)
	}
}

func TestDownsync_FullPeriod(t *testing.T) {
	h, idx := newBinary(t, 0.5, 0.5, 2, 0.6, 7)
	x0 := h.Nodes[1].X
	period := 2 * math.Pi * math.Sqrt(8/1.0)
	require.NoError(t, h.Downsync(idx, period))
	assertVecNear(t, x0, h.Nodes[1].X, 1e-9, "after one period")

	require.NoError(t, h.Downsync(idx, period/2))
	sep := r3.Norm(r3.Sub(h.Nodes[1].X, h.Nodes[0].X))
	assert.LessOrEqual(t, sep, 2*(1+0.6)+1e-9)
	assert.GreaterOrEqual(t, sep, 2*(1-0.6)-1e-9)
}

func TestDownsync_Unbound(t *testing.T) {
	h, idx := newBinary(t, 0.5, 0.5, 1, 0.2, 3)
	h.Node(idx).E = 1.2
	assert.ErrorIs(t, h.Downsync(idx, 0), ErrUnbound)
	assert.ErrorIs(t, h.Downsync(0, 0), ErrNotComposite)
}

func TestFree_Relinks(t *testing.T) {
	h, err := New(4, nil)
	require.NoError(t, err)
	for i := range 4 {
		h.Nodes[i].M = 1
		h.Nodes[i].X = r3.Vec{X: float64(i * i)}
		h.Nodes[i].V = r3.Vec{Y: 0.1 * float64(i)}
	}
	a, err := h.Bind(0, 1, 0)
	require.NoError(t, err)
	b, err := h.Bind(2, 3, 0)
	require.NoError(t, err)
	h.Roots = []int{a, b}
	require.Equal(t, "[0 1] [2 3]", h.String())

	h.ReplaceRoot(a, 0, 1)
	h.Free(a)
	assert.Equal(t, "0 1 [2 3]", h.String())
	assert.Equal(t, 1, h.Count[2])
	require.NoError(t, h.Check())
}

func TestFlatten(t *testing.T) {
	h, _ := newBinary(t, 0.5, 0.5, 1, 0, 1)
	h.Flatten()
	assert.Equal(t, "0 1", h.String())
	assert.Equal(t, 0, h.Count[2])
}

func TestOrient_Orthonormal(t *testing.T) {
	h, idx := newBinary(t, 0.5, 0.5, 1, 0.1, 1)
	src := rand.NewSource(42)
	for range 20 {
		h.RandomOrient(idx, src)
		b := h.Node(idx)
		assert.InDelta(t, 1, r3.Norm(b.LHat), 1e-12)
		assert.InDelta(t, 1, r3.Norm(b.AHat), 1e-12)
		assert.InDelta(t, 0, r3.Dot(b.LHat, b.AHat), 1e-12)
		assert.GreaterOrEqual(t, b.MeanAnom, 0.0)
		assert.Less(t, b.MeanAnom, 2*math.Pi)
	}

	h.Orient(idx, src, 0, 0, 0)
	assertVecNear(t, r3.Vec{Z: 1}, h.Node(idx).LHat, 1e-15, "lhat")
	assertVecNear(t, r3.Vec{X: 1}, h.Node(idx).AHat, 1e-15, "ahat")
}

func TestIncPartition(t *testing.T) {
	h, err := New(3, nil)
	require.NoError(t, err)
	for i := range 3 {
		h.Nodes[i].M = 1
	}
	inner, _ := h.Bind(0, 1, 0)
	outer, _ := h.Bind(inner, 2, 0)
	h.Node(inner).A, h.Node(inner).E = 1, 0
	h.Node(outer).A, h.Node(outer).E = 10, 0.2

	inc := 1.0
	in, out := h.IncPartition(outer, inc)
	assert.InDelta(t, inc, in+out, 1e-15)
	lin := orbitalAngularMomentum(h, h.Node(inner))
	lout := orbitalAngularMomentum(h, h.Node(outer))
	assert.InDelta(t, lin*math.Sin(in), lout*math.Sin(out), 1e-12)
}

func TestEnergy_CircularBinary(t *testing.T) {
	h, _ := newBinary(t, 0.5, 0.5, 1, 0, 9)
	// E = -m0 m1 / 2a
	assert.InDelta(t, -0.125, h.Energy(), 1e-12)
	// |L| = mu sqrt(M a)
	assert.InDelta(t, 0.25, r3.Norm(h.TotalAngularMomentum()), 1e-12)
	assertVecNear(t, r3.Vec{}, Momentum(h.LeafBodies(nil)), 1e-15, "momentum")
}

func TestIDString(t *testing.T) {
	b := Body{IDs: []int64{0, 2, 5}}
	assert.Equal(t, "0:2:5", b.IDString())
	assert.Equal(t, "quadruple", Multiplicity(4))
	assert.Equal(t, "6-tuple", Multiplicity(6))
}

func TestLink(t *testing.T) {
	h, err := New(2, nil)
	require.NoError(t, err)
	h.Nodes[0].M, h.Nodes[1].M = 2, 3
	idx, err := h.Link(0, 1)
	require.NoError(t, err)
	b := h.Node(idx)
	assert.Equal(t, 5.0, b.M)
	assert.Equal(t, 2, b.N)
	assert.Equal(t, []int64{0, 1}, b.IDs)
	assert.Equal(t, "0:1", b.IDString())
}
