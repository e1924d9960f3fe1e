package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/coords"
	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/hierarchy"
)

// Direct integrates Euclidean positions and velocities in physical time
// under Newtonian gravity plus the enabled post-Newtonian pair terms.
type Direct struct {
	bodies []*hierarchy.Body
	mass   []float64
	pn     PN
	c      float64

	dy  dynamo.State
	acc []r3.Vec
}

func NewDirect(bs []*hierarchy.Body, pn PN, c float64) *Direct {
	d := &Direct{
		bodies: bs,
		mass:   make([]float64, len(bs)),
		pn:     pn,
		c:      c,
		dy:     make(dynamo.State, coords.DirectDim*len(bs)),
		acc:    make([]r3.Vec, len(bs)),
	}
	for i, b := range bs {
		d.mass[i] = b.M
	}
	if c <= 0 {
		d.pn = PN{}
	}
	return d
}

func (d *Direct) StateDim() int     { return coords.DirectDim * len(d.mass) }
func (d *Direct) Regularized() bool { return false }

func (d *Direct) Pack(_ float64, dst dynamo.State) dynamo.State {
	return coords.PackDirect(d.bodies, dst)
}

func (d *Direct) Unpack(y dynamo.State, s float64) float64 {
	coords.UnpackDirect(y, d.bodies)
	return s
}

// InitialStep is a small fraction of the shortest pairwise free-fall time.
func (d *Direct) InitialStep(y dynamo.State) float64 {
	h := math.Inf(1)
	for i := range d.mass {
		for j := i + 1; j < len(d.mass); j++ {
			r := r3.Norm(r3.Sub(pos(y, j), pos(y, i)))
			h = math.Min(h, math.Sqrt(r*r*r/(d.mass[i]+d.mass[j])))
		}
	}
	if math.IsInf(h, 1) {
		return 1
	}
	return 1e-3 * h
}

func (d *Direct) Derive(y dynamo.State, _ float64) dynamo.State {
	n := len(d.mass)
	for i := range d.acc {
		d.acc[i] = r3.Vec{}
	}
	for i := 0; i < n; i++ {
		xi, vi := pos(y, i), vel(y, i)
		for j := i + 1; j < n; j++ {
			x := r3.Sub(xi, pos(y, j))
			r := r3.Norm(x)
			r3inv := 1 / (r * r * r)

			d.acc[i] = r3.Sub(d.acc[i], r3.Scale(d.mass[j]*r3inv, x))
			d.acc[j] = r3.Add(d.acc[j], r3.Scale(d.mass[i]*r3inv, x))

			if !d.pn.Any() {
				continue
			}
			m := d.mass[i] + d.mass[j]
			a := d.pn.Relative(x, r3.Sub(vi, vel(y, j)), d.mass[i], d.mass[j], d.c)
			d.acc[i] = r3.Add(d.acc[i], r3.Scale(d.mass[j]/m, a))
			d.acc[j] = r3.Sub(d.acc[j], r3.Scale(d.mass[i]/m, a))
		}
	}
	for i := 0; i < n; i++ {
		o := coords.DirectDim * i
		d.dy[o], d.dy[o+1], d.dy[o+2] = y[o+3], y[o+4], y[o+5]
		d.dy[o+3], d.dy[o+4], d.dy[o+5] = d.acc[i].X, d.acc[i].Y, d.acc[i].Z
	}
	return d.dy
}

func pos(y dynamo.State, i int) r3.Vec {
	o := coords.DirectDim * i
	return r3.Vec{X: y[o], Y: y[o+1], Z: y[o+2]}
}

func vel(y dynamo.State, i int) r3.Vec {
	o := coords.DirectDim*i + 3
	return r3.Vec{X: y[o], Y: y[o+1], Z: y[o+2]}
}
