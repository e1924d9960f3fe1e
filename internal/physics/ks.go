package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/coords"
	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/hierarchy"
)

// KS integrates the globally regularized equations of motion of all pairs
// in the fictitious time s, with dt/ds = 1/(T+W). The first state component
// is physical time. Only Newtonian forces are included.
type KS struct {
	bodies []*hierarchy.Body
	ks     *coords.KS
	kin    []float64
	mk     []float64
	e0     float64

	dy dynamo.State
	q  []coords.Spinor
	p  []coords.Spinor
	r  []float64
	mp []r3.Vec
	w  []r3.Vec
}

func NewKS(bs []*hierarchy.Body, t float64) (*KS, error) {
	m, err := coords.NewKS(bs, t)
	if err != nil {
		return nil, err
	}
	k := &KS{
		bodies: bs,
		ks:     m,
		kin:    make([]float64, m.K*m.K),
		mk:     make([]float64, m.K),
		dy:     make(dynamo.State, m.Dim()),
		q:      make([]coords.Spinor, m.K),
		p:      make([]coords.Spinor, m.K),
		r:      make([]float64, m.K),
		mp:     make([]r3.Vec, m.K),
		w:      make([]r3.Vec, m.K),
	}
	for a := 0; a < m.K; a++ {
		for b := 0; b < m.K; b++ {
			k.kin[a*m.K+b] = m.Kin.At(a, b)
		}
	}
	for c, pr := range m.Pairs {
		k.mk[c] = m.Mass[pr[0]] * m.Mass[pr[1]]
	}
	return k, nil
}

func (k *KS) StateDim() int     { return k.ks.Dim() }
func (k *KS) Regularized() bool { return true }

// Pack also fixes the energy constant of the regularized Hamiltonian.
func (k *KS) Pack(t float64, dst dynamo.State) dynamo.State {
	dst = k.ks.Pack(k.bodies, t, dst)
	kin, pot := k.load(dst)
	k.e0 = kin - pot
	return dst
}

func (k *KS) Unpack(y dynamo.State, _ float64) float64 {
	return k.ks.Unpack(y, k.bodies)
}

// Energy returns the center-of-mass frame energy T - W fixed at Pack.
func (k *KS) Energy() float64 { return k.e0 }

// InitialStep converts a small fraction of the shortest pairwise free-fall
// time into fictitious time.
func (k *KS) InitialStep(y dynamo.State) float64 {
	kin, pot := k.load(y)
	h := math.Inf(1)
	for c, pr := range k.ks.Pairs {
		m := k.ks.Mass[pr[0]] + k.ks.Mass[pr[1]]
		h = math.Min(h, math.Sqrt(k.r[c]*k.r[c]*k.r[c]/m))
	}
	return 1e-3 * h * (kin + pot)
}

// load unpacks spinors, separations, pair momenta and the weighted momenta
// w = Kin p from y and returns the kinetic and potential energies.
func (k *KS) load(y dynamo.State) (kin, pot float64) {
	n := k.ks.K
	for c := 0; c < n; c++ {
		k.q[c], k.p[c] = coords.Q(y, c), coords.P(y, c)
		k.r[c] = k.q[c].Norm2()
		k.mp[c] = coords.Momentum(k.q[c], k.p[c])
		pot += k.mk[c] / k.r[c]
	}
	for a := 0; a < n; a++ {
		var w r3.Vec
		for b := 0; b < n; b++ {
			w = r3.Add(w, r3.Scale(k.kin[a*n+b], k.mp[b]))
		}
		k.w[a] = w
		kin += 0.5 * r3.Dot(w, k.mp[a])
	}
	return kin, pot
}

func (k *KS) Derive(y dynamo.State, _ float64) dynamo.State {
	kin, pot := k.load(y)
	lag := kin + pot
	l2 := lag * lag
	fq := (2*pot + k.e0) / l2
	fp := (2*kin - k.e0) / l2

	k.dy[0] = 1 / lag
	for c := 0; c < k.ks.K; c++ {
		q, p, r := k.q[c], k.p[c], k.r[c]
		w := coords.Embed(k.w[c])

		dq := coords.LTMul(q, w).Scale(fq / (2 * r))

		dT := coords.LTMul(p, w).Scale(1 / (2 * r)).Add(q.Scale(-2 * r3.Dot(k.w[c], k.mp[c]) / r))
		dW := q.Scale(-2 * k.mk[c] / (r * r))
		dp := dT.Scale(-fq).Add(dW.Scale(fp))

		o := 1 + coords.KSDim*c
		copy(k.dy[o:o+4], dq[:])
		copy(k.dy[o+4:o+8], dp[:])
	}
	return k.dy
}
