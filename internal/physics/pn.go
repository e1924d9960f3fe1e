package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// PN toggles the post-Newtonian orders of the two-body relative
// acceleration. Orders 2.5 and 3.5 are radiation reaction; the others are
// conservative. The 3PN terms are in harmonic coordinates without the
// logarithmic gauge terms.
type PN struct {
	PN1  bool `yaml:"pn1" toml:"pn1" json:"pn1"`
	PN2  bool `yaml:"pn2" toml:"pn2" json:"pn2"`
	PN25 bool `yaml:"pn25" toml:"pn25" json:"pn25"`
	PN3  bool `yaml:"pn3" toml:"pn3" json:"pn3"`
	PN35 bool `yaml:"pn35" toml:"pn35" json:"pn35"`
}

func (p PN) Any() bool { return p.PN1 || p.PN2 || p.PN25 || p.PN3 || p.PN35 }

// Relative returns the post-Newtonian part of the relative acceleration of
// body 1 with respect to body 2, for separation x = x1 - x2 and velocity
// v = v1 - v2, written as -(m/r^2)(A n + B v).
func (p PN) Relative(x, v r3.Vec, m1, m2, c float64) r3.Vec {
	m := m1 + m2
	k := pnTerms{
		nu: m1 * m2 / (m * m),
		r:  r3.Norm(x),
		v2: r3.Norm2(v),
	}
	n := r3.Scale(1/k.r, x)
	k.rd = r3.Dot(n, v)
	k.mr = m / k.r

	var a, b float64
	add := func(on bool, order float64, f func() (float64, float64)) {
		if !on {
			return
		}
		da, db := f()
		cn := math.Pow(c, order)
		a += da / cn
		b += db / cn
	}
	add(p.PN1, 2, k.pn1)
	add(p.PN2, 4, k.pn2)
	add(p.PN25, 5, k.pn25)
	add(p.PN3, 6, k.pn3)
	add(p.PN35, 7, k.pn35)

	return r3.Scale(-m/(k.r*k.r), r3.Add(r3.Scale(a, n), r3.Scale(b, v)))
}

type pnTerms struct {
	nu, r, rd, v2, mr float64
}

func (k pnTerms) pn1() (float64, float64) {
	nu, rd, v2, mr := k.nu, k.rd, k.v2, k.mr
	a := -1.5*rd*rd*nu + v2 + 3*nu*v2 - mr*(4+2*nu)
	b := -4*rd + 2*rd*nu
	return a, b
}

func (k pnTerms) pn2() (float64, float64) {
	nu, rd, v2, mr := k.nu, k.rd, k.v2, k.mr
	nu2 := nu * nu
	rd2 := rd * rd
	a := 15.0/8*rd2*rd2*nu - 45.0/8*rd2*rd2*nu2 -
		4.5*rd2*nu*v2 + 6*rd2*nu2*v2 +
		3*nu*v2*v2 - 4*nu2*v2*v2 +
		mr*(-2*rd2-25*rd2*nu-2*rd2*nu2-6.5*nu*v2+2*nu2*v2) +
		mr*mr*(9+87.0/4*nu)
	b := 4.5*rd2*rd*nu + 3*rd2*rd*nu2 -
		7.5*rd*nu*v2 - 2*rd*nu2*v2 +
		mr*(2*rd+20.5*rd*nu+4*rd*nu2)
	return a, b
}

func (k pnTerms) pn25() (float64, float64) {
	nu, rd, v2, mr := k.nu, k.rd, k.v2, k.mr
	a := -1.6 * nu * mr * rd * (17.0/3*mr + 3*v2)
	b := 1.6 * nu * mr * (3*mr + v2)
	return a, b
}

func (k pnTerms) pn3() (float64, float64) {
	nu, rd, v2, mr := k.nu, k.rd, k.v2, k.mr
	nu2, nu3 := nu*nu, nu*nu*nu
	rd2 := rd * rd
	rd4 := rd2 * rd2
	pi2 := math.Pi * math.Pi

	a := rd4*rd2*(-35.0/16*nu+175.0/16*nu2-175.0/16*nu3) +
		rd4*v2*(175.0/16*nu-405.0/16*nu2+175.0/8*nu3) +
		rd2*v2*v2*(-135.0/16*nu+135.0/8*nu2-255.0/16*nu3) +
		v2*v2*v2*(11.0/4*nu-49.0/4*nu2+13*nu3) +
		mr*(rd4*(79.0/2*nu-69.0/2*nu2-30*nu3)+
			rd2*v2*(-121*nu+16*nu2+20*nu3)+
			v2*v2*(75.0/4*nu+8*nu2-10*nu3)) +
		mr*mr*(rd2*(1+(22717.0/168+11.0/8*pi2)*nu+11.0/8*nu2-7*nu3)+
			v2*(-(20827.0/840+123.0/64*pi2)*nu+nu3)) +
		mr*mr*mr*(-16-(1399.0/12-41.0/16*pi2)*nu-71.0/2*nu2)

	b := rd4*rd*(-45.0/8*nu+15*nu2+15.0/4*nu3) +
		rd2*rd*v2*(12*nu-111.0/4*nu2-12*nu3) +
		rd*v2*v2*(-65.0/8*nu+19*nu2+6*nu3) +
		mr*(rd2*rd*(329.0/6*nu+59.0/2*nu2+18*nu3)+
			rd*v2*(-15*nu-27*nu2-10*nu3)) +
		mr*mr*rd*(-4-(5849.0/840+123.0/32*pi2)*nu-25*nu2-8*nu3)
	return a, b
}

func (k pnTerms) pn35() (float64, float64) {
	nu, rd, v2, mr := k.nu, k.rd, k.v2, k.mr
	rd2 := rd * rd
	v4 := v2 * v2

	a := mr*nu*rd*(-366.0/35*v4-12*nu*v4+114*v2*rd2+12*nu*v2*rd2-112*rd2*rd2) +
		mr*mr*nu*rd*(-692.0/35*v2+724.0/15*nu*v2+294.0/5*rd2+376.0/5*nu*rd2) +
		mr*mr*mr*nu*rd*(3956.0/35+184.0/5*nu)
	b := mr*nu*(626.0/35*v4+12.0/5*nu*v4-678.0/5*v2*rd2-12.0/5*nu*v2*rd2+120*rd2*rd2) +
		mr*mr*nu*(164.0/21*v2+148.0/5*nu*v2-82.0/3*rd2-848.0/15*nu*rd2) +
		mr*mr*mr*nu*(-1060.0/21-104.0/5*nu)
	return a, b
}
