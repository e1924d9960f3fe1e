package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/hierarchy"
)

func twoStars(t *testing.T, x, v float64) *hierarchy.Hierarchy {
	t.Helper()
	h, err := hierarchy.New(2, nil)
	if err != nil {
		t.Fatal(err)
	}
	h.Node(0).M, h.Node(1).M = 0.5, 0.5
	h.Node(0).X, h.Node(1).X = r3.Vec{X: -x}, r3.Vec{X: x}
	h.Node(0).V, h.Node(1).V = r3.Vec{Y: -v}, r3.Vec{Y: v}
	return h
}

func TestDrift(t *testing.T) {
	h := twoStars(t, 0.5, 0.5)
	d := NewDrift()
	d.Observe(h, 0)

	e0, _ := d.Initial()
	if math.Abs(e0-(-0.125)) > 1e-12 {
		t.Errorf("expected initial energy -0.125, got %f", e0)
	}

	h.Node(1).V.Y = 0.6
	d.Observe(h, 1)
	delta, frac := d.Energy()
	want := 0.5 * 0.5 * (0.36 - 0.25)
	if math.Abs(delta-want) > 1e-12 {
		t.Errorf("expected energy change %f, got %f", want, delta)
	}
	if math.Abs(frac-want/-0.125) > 1e-12 {
		t.Errorf("unexpected fractional drift %f", frac)
	}
	if d.Value() != math.Abs(frac) {
		t.Errorf("expected max drift %f, got %f", math.Abs(frac), d.Value())
	}

	dl, _ := d.AngularMomentum()
	if math.Abs(dl-0.5*0.5*0.1) > 1e-12 {
		t.Errorf("unexpected angular momentum change %f", dl)
	}
}

func TestDrift_Kick(t *testing.T) {
	h := twoStars(t, 0.5, 0.5)
	d := NewDrift()
	d.Observe(h, 0)

	h.Node(1).V.Y = 0.6
	d.AddKick(0.5*0.5*(0.36-0.25), r3.Vec{Z: 0.5 * 0.5 * 0.1})
	d.Observe(h, 1)

	delta, _ := d.Energy()
	if math.Abs(delta) > 1e-12 {
		t.Errorf("kick energy should not count as drift, got %g", delta)
	}
	dl, _ := d.AngularMomentum()
	if dl > 1e-12 {
		t.Errorf("kick angular momentum should not count as drift, got %g", dl)
	}
}

func TestDrift_Reset(t *testing.T) {
	d := NewDrift()
	d.Observe(twoStars(t, 0.5, 0.5), 0)
	d.Reset()
	if d.Value() != 0 || d.Name() != "energy_drift" {
		t.Error("expected cleared drift after reset")
	}
}
