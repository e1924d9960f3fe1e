package config

import (
	"math"
	"sort"
)

func triple(masses []float64, a, e []float64, inc float64, run func(*RunConfig)) *Config {
	c := DefaultTriple()
	c.Masses, c.A, c.E, c.Inc = masses, a, e, inc
	c.Peri = []float64{0, 0}
	if run != nil {
		run(&c.Run)
	}
	return c
}

var Presets = map[string]map[string]*Config{
	"triple": {
		"stable": triple([]float64{1, 1, 1}, []float64{1, 10}, []float64{0, 0}, 0, nil),
		"unstable": triple([]float64{1, 1, 1}, []float64{1, 2.5}, []float64{0, 0}, 0, func(r *RunConfig) {
			r.Regularize = true
			r.TStop = 1e4
		}),
		"inclined": triple([]float64{1, 0.5, 1}, []float64{1, 20}, []float64{0.1, 0.3}, 0.4*math.Pi, func(r *RunConfig) {
			r.TStop = 1e4
		}),
		"relativistic": triple([]float64{10, 10, 10}, []float64{1e-3, 2e-2}, []float64{0.7, 0}, 0, func(r *RunConfig) {
			r.PN.PN1 = true
			r.PN.PN2 = true
			r.PN.PN25 = true
			r.TStop = 1e4
		}),
		"regularized": triple([]float64{1, 1, 1}, []float64{1, 4}, []float64{0.9, 0.2}, 0, func(r *RunConfig) {
			r.Regularize = true
			r.TStop = 1e4
		}),
	},
	"binsingle": {
		"flyby": func() *Config {
			c := DefaultBinarySingle()
			c.VInf, c.Impact = 2, 5
			return c
		}(),
		"resonant": func() *Config {
			c := DefaultBinarySingle()
			c.VInf = 0.3
			c.Run.Regularize = true
			c.Run.TStop = 1e5
			return c
		}(),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
