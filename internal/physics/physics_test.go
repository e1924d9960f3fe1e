package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/coords"
	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/hierarchy"
	"github.com/san-kum/encounter/internal/integrators"
)

func circularBinary() []*hierarchy.Body {
	return []*hierarchy.Body{
		{M: 0.5, X: r3.Vec{X: -0.5}, V: r3.Vec{Y: -0.5}},
		{M: 0.5, X: r3.Vec{X: 0.5}, V: r3.Vec{Y: 0.5}},
	}
}

func cluster() []*hierarchy.Body {
	return []*hierarchy.Body{
		{M: 0.4, X: r3.Vec{X: 1, Y: 0.2, Z: -0.1}, V: r3.Vec{X: 0.1, Y: 0.5}},
		{M: 0.8, X: r3.Vec{X: -0.7, Y: 0.3, Z: 0.2}, V: r3.Vec{X: -0.2, Y: -0.3, Z: 0.05}},
		{M: 0.3, X: r3.Vec{X: 2.5, Y: -4, Z: 1}, V: r3.Vec{X: 0.3, Y: 0.1, Z: -0.2}},
	}
}

func energy(bs []*hierarchy.Body) float64 {
	return hierarchy.Kinetic(bs) + hierarchy.Potential(bs)
}

// advance integrates until the physical time reaches tEnd. Direct
// propagators land on tEnd exactly.
func advance(t *testing.T, p Propagator, y dynamo.State, tEnd float64) dynamo.State {
	t.Helper()
	stepper := integrators.NewRK45(dynamo.Tolerance{Abs: 1e-12, Rel: 1e-12})
	s, h := 0.0, p.InitialStep(y)
	for range 1_000_000 {
		tt := p.Unpack(y, s)
		if tt >= tEnd-1e-12 {
			return y
		}
		if !p.Regularized() && s+h > tEnd {
			h = tEnd - s
		}
		next, taken, hNext, err := stepper.StepAdaptive(p, y, s, h)
		require.NoError(t, err)
		y, s, h = next, s+taken, hNext
	}
	t.Fatal("step budget exhausted")
	return nil
}

func TestDirect_CircularPeriod(t *testing.T) {
	bs := circularBinary()
	p := NewDirect(bs, PN{}, 0)
	y := p.Pack(0, nil)
	advance(t, p, y, 2*math.Pi)

	assert.InDelta(t, -0.5, bs[0].X.X, 1e-7)
	assert.InDelta(t, 0, bs[0].X.Y, 1e-7)
	assert.InDelta(t, 0.5, bs[1].V.Y, 1e-7)
}

func TestDirect_Conservation(t *testing.T) {
	bs := cluster()
	e0 := energy(bs)
	l0 := hierarchy.AngularMomentum(bs)

	p := NewDirect(bs, PN{}, 0)
	advance(t, p, p.Pack(0, nil), 5)

	assert.InDelta(t, 0, (energy(bs)-e0)/e0, 1e-8)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(hierarchy.AngularMomentum(bs), l0)), 1e-8)
}

func TestDirect_PNConservesMomentum(t *testing.T) {
	bs := cluster()
	all := PN{PN1: true, PN2: true, PN25: true, PN3: true, PN35: true}
	p := NewDirect(bs, all, 5)
	y := p.Pack(0, nil)
	dy := p.Derive(y, 0)

	var f r3.Vec
	for i, b := range bs {
		o := coords.DirectDim*i + 3
		f = r3.Add(f, r3.Scale(b.M, r3.Vec{X: dy[o], Y: dy[o+1], Z: dy[o+2]}))
	}
	assert.InDelta(t, 0, r3.Norm(f), 1e-12)
}

func TestDirect_PNDisabledWithoutC(t *testing.T) {
	bs := cluster()
	newton := NewDirect(bs, PN{}, 0)
	pn := NewDirect(bs, PN{PN1: true}, 0)
	y := newton.Pack(0, nil)
	assert.Equal(t, newton.Derive(y, 0).Clone(), pn.Derive(y, 0).Clone())
}

func TestPN_CircularOrbit(t *testing.T) {
	x := r3.Vec{X: 1}
	v := r3.Vec{Y: 1}
	c := 10.0

	conservative := []PN{{PN1: true}, {PN2: true}, {PN3: true}}
	for _, pn := range conservative {
		a := pn.Relative(x, v, 0.5, 0.5, c)
		assert.InDelta(t, 0, a.Y, 1e-15, "%+v must be radial", pn)
		assert.NotZero(t, a.X)
	}

	for _, pn := range []PN{{PN25: true}, {PN35: true}} {
		a := pn.Relative(x, v, 0.5, 0.5, c)
		assert.InDelta(t, 0, a.X, 1e-15, "%+v must be tangential", pn)
	}
	rr := PN{PN25: true}.Relative(x, v, 0.5, 0.5, c)
	assert.Less(t, r3.Dot(rr, v), 0.0, "2.5PN drains orbital energy")
	assert.InDelta(t, -1.6*0.25*4/math.Pow(c, 5), rr.Y, 1e-18)
}

func TestPN_1PNValue(t *testing.T) {
	// circular orbit, m = 1, r = 1, v = 1, nu = 1/4: A = v^2(1+3nu) - (4+2nu)
	a := PN{PN1: true}.Relative(r3.Vec{X: 1}, r3.Vec{Y: 1}, 0.5, 0.5, 10)
	want := -(1 + 0.75 - 4.5) / 100
	assert.InDelta(t, want, a.X, 1e-15)
}

func TestKS_VelocityConsistency(t *testing.T) {
	bs := cluster()
	p, err := NewKS(bs, 0)
	require.NoError(t, err)
	y := p.Pack(0, nil)
	dy := p.Derive(y, 0).Clone()

	cm := hierarchy.Momentum(bs)
	mt := hierarchy.Mass(bs)
	var rel []*hierarchy.Body
	for _, b := range bs {
		c := *b
		c.V = r3.Sub(b.V, r3.Scale(1/mt, cm))
		rel = append(rel, &c)
	}
	lag := hierarchy.Kinetic(rel) - hierarchy.Potential(rel)
	assert.InDelta(t, 1/lag, dy[0], 1e-12)

	for c, pr := range p.ks.Pairs {
		o := 1 + coords.KSDim*c
		dq := coords.Spinor{dy[o], dy[o+1], dy[o+2], dy[o+3]}
		qdot := coords.LMul(coords.Q(y, c), dq).Scale(2 * lag).Vec()
		want := r3.Sub(bs[pr[1]].V, bs[pr[0]].V)
		assert.InDelta(t, 0, r3.Norm(r3.Sub(want, qdot)), 1e-12, "pair %v", pr)
	}
}

func TestKS_Conservation(t *testing.T) {
	bs := cluster()
	e0 := energy(bs)
	l0 := hierarchy.AngularMomentum(bs)

	p, err := NewKS(bs, 0)
	require.NoError(t, err)
	y := advance(t, p, p.Pack(0, nil), 5)
	assert.GreaterOrEqual(t, y[0], 5.0-1e-12)

	assert.InDelta(t, 0, (energy(bs)-e0)/e0, 1e-8)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(hierarchy.AngularMomentum(bs), l0)), 1e-8)
}

func TestKS_MatchesDirect(t *testing.T) {
	direct := cluster()
	regular := cluster()

	p, err := NewKS(regular, 0)
	require.NoError(t, err)
	y := advance(t, p, p.Pack(0, nil), 2)

	d := NewDirect(direct, PN{}, 0)
	advance(t, d, d.Pack(0, nil), y[0])

	for i := range direct {
		assert.InDelta(t, 0, r3.Norm(r3.Sub(direct[i].X, regular[i].X)), 1e-7, "x[%d]", i)
	}
}

func TestNew_Selects(t *testing.T) {
	p, err := New(cluster(), 0, Options{Regularize: true})
	require.NoError(t, err)
	assert.True(t, p.Regularized())

	p, err = New(cluster()[:1], 0, Options{Regularize: true})
	require.NoError(t, err)
	assert.False(t, p.Regularized())

	p, err = New(cluster(), 0, Options{})
	require.NoError(t, err)
	assert.False(t, p.Regularized())
}
