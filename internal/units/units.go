// Package units holds cgs physical constants and the scale tuple that maps a
// run into code units with G = 1.
package units

import (
	"fmt"
	"math"
)

// Physical constants (cgs).
const (
	MSun   = 1.989e33
	RSun   = 6.9599e10
	C      = 2.99792458e10
	G      = 6.67384e-8
	AU     = 1.496e13
	Parsec = 3.0857e18
	Yr     = 3.155693e7
	KmPerS = 1.0e5
)

// Units converts code quantities to cgs by multiplication.
type Units struct {
	V float64 `json:"v" yaml:"v"`
	L float64 `json:"l" yaml:"l"`
	T float64 `json:"t" yaml:"t"`
	M float64 `json:"m" yaml:"m"`
	E float64 `json:"E" yaml:"E"`
}

// FromBinary derives units from the masses (g) and semimajor axis (cm) of the
// innermost binary: one length unit is its semimajor axis and one time unit
// is its orbital period over 2 pi.
func FromBinary(m0, m1, a float64) (Units, error) {
	if m0 <= 0 || m1 <= 0 || a <= 0 {
		return Units{}, fmt.Errorf("units: non-positive binary parameters m0=%g m1=%g a=%g", m0, m1, a)
	}
	v := math.Sqrt(G * (m0 + m1) / a)
	l := a
	m := l * v * v / G
	return Units{
		V: v,
		L: l,
		T: l / v,
		M: m,
		E: m * v * v,
	}, nil
}

// SpeedOfLight returns c in code velocity units.
func (u Units) SpeedOfLight() float64 { return C / u.V }

// AngularMomentum is the code unit of angular momentum in cgs.
func (u Units) AngularMomentum() float64 { return u.M * u.L * u.V }

// SchwarzschildRadius returns 2Gm/c^2 in cm for a mass in grams.
func SchwarzschildRadius(m float64) float64 { return 2 * G * m / (C * C) }
