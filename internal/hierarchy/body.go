package hierarchy

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// NoChild marks an absent child reference.
const NoChild = -1

// Body is one node of the hierarchy. Leaves are stars (possibly merger
// products); composites carry the orbital elements of their two children
// about each other, valid at time T.
type Body struct {
	IDs   []int64
	NColl int
	M     float64
	R     float64
	Eint  float64
	Lint  r3.Vec
	X     r3.Vec
	V     r3.Vec
	N     int
	Child [2]int

	A        float64
	E        float64
	LHat     r3.Vec
	AHat     r3.Vec
	T        float64
	MeanAnom float64
}

func (b *Body) IsLeaf() bool { return b.Child[0] == NoChild }

// IDString joins the primordial ids with colons, e.g. "0:2".
func (b *Body) IDString() string {
	var sb strings.Builder
	for i, id := range b.IDs {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatInt(id, 10))
	}
	return sb.String()
}

// Pericenter returns a(1-e) for a composite.
func (b *Body) Pericenter() float64 { return b.A * (1 - b.E) }

// Apocenter returns a(1+e) for a composite.
func (b *Body) Apocenter() float64 { return b.A * (1 + b.E) }

func (b *Body) reset() {
	b.IDs = b.IDs[:0]
	b.NColl = 0
	b.M, b.R, b.Eint = 0, 0, 0
	b.Lint, b.X, b.V = r3.Vec{}, r3.Vec{}, r3.Vec{}
	b.N = 0
	b.Child = [2]int{NoChild, NoChild}
	b.A, b.E, b.T, b.MeanAnom = 0, 0, 0, 0
	b.LHat, b.AHat = r3.Vec{}, r3.Vec{}
}

func (b *Body) copyFrom(o *Body) {
	ids := append(b.IDs[:0], o.IDs...)
	*b = *o
	b.IDs = ids
}

// Relative returns the position and velocity of q with respect to p.
func Relative(p, q *Body) (x, v r3.Vec) {
	return r3.Sub(q.X, p.X), r3.Sub(q.V, p.V)
}
