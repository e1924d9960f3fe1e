package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/engine"
	"github.com/san-kum/encounter/internal/hierarchy"
	"github.com/san-kum/encounter/internal/physics"
	"github.com/san-kum/encounter/internal/scenario"
)

const (
	DefaultScenario = "triple"
	DefaultMass     = 1.0
	// DefaultRadius is in Schwarzschild radii.
	DefaultRadius = 3.0
	DefaultAIn    = 1.0
	DefaultAOut   = 10.0
	DefaultVInf   = 1.0
	// DefaultCPUStop is in seconds.
	DefaultCPUStop = 3600.0
)

var (
	ErrInvalid       = errors.New("config: invalid value")
	ErrUnknownFormat = errors.New("config: unknown file format")
)

// Config is the on-disk description of one run. Lengths are in AU, masses
// in solar masses, radii in Schwarzschild radii, angles in radians and the
// stopping time in code units.
type Config struct {
	Scenario string `yaml:"scenario" toml:"scenario"`
	// Seed of the run generator; zero draws one at run time.
	Seed uint64 `yaml:"seed" toml:"seed"`

	Masses []float64 `yaml:"masses" toml:"masses"`
	Radii  []float64 `yaml:"radii" toml:"radii"`
	A      []float64 `yaml:"a" toml:"a"`
	E      []float64 `yaml:"e" toml:"e"`
	Inc    float64   `yaml:"inc" toml:"inc"`
	Peri   []float64 `yaml:"peri" toml:"peri"`
	VInf   float64   `yaml:"vinf" toml:"vinf"`
	Impact float64   `yaml:"impact" toml:"impact"`

	Run RunConfig `yaml:"run" toml:"run"`
}

type RunConfig struct {
	TStop      float64    `yaml:"tstop" toml:"tstop"`
	CPUStop    float64    `yaml:"cpustop" toml:"cpustop"`
	AbsAcc     float64    `yaml:"absacc" toml:"absacc"`
	RelAcc     float64    `yaml:"relacc" toml:"relacc"`
	NCount     int        `yaml:"ncount" toml:"ncount"`
	OutFreq    int        `yaml:"outfreq" toml:"outfreq"`
	TidalTol   float64    `yaml:"tidaltol" toml:"tidaltol"`
	SpeedTol   float64    `yaml:"speedtol" toml:"speedtol"`
	Fexp       float64    `yaml:"fexp" toml:"fexp"`
	Kick       bool       `yaml:"kick" toml:"kick"`
	Regularize bool       `yaml:"regularize" toml:"regularize"`
	PN         physics.PN `yaml:"pn" toml:"pn"`
	FirstLog   string     `yaml:"first_log_entry" toml:"first_log_entry"`
}

func defaultRun() RunConfig {
	return RunConfig{
		TStop:    engine.DefaultTStop,
		CPUStop:  DefaultCPUStop,
		AbsAcc:   engine.DefaultAbsAcc,
		RelAcc:   engine.DefaultRelAcc,
		NCount:   engine.DefaultNCount,
		OutFreq:  engine.DefaultOutFreq,
		TidalTol: engine.DefaultTidalTol,
		SpeedTol: engine.DefaultSpeedTol,
		Fexp:     engine.DefaultFexp,
	}
}

// DefaultTriple is a wide equal-mass coplanar triple with random pericenter
// arguments.
func DefaultTriple() *Config {
	return &Config{
		Scenario: "triple",
		Masses:   []float64{DefaultMass, DefaultMass, DefaultMass},
		Radii:    []float64{DefaultRadius, DefaultRadius, DefaultRadius},
		A:        []float64{DefaultAIn, DefaultAOut},
		E:        []float64{0, 0},
		Inc:      0,
		Peri:     []float64{hierarchy.Random, hierarchy.Random},
		Run:      defaultRun(),
	}
}

// DefaultBinarySingle is a head-on equal-mass scattering at the critical
// speed.
func DefaultBinarySingle() *Config {
	return &Config{
		Scenario: "binsingle",
		Masses:   []float64{DefaultMass, DefaultMass, DefaultMass},
		Radii:    []float64{DefaultRadius, DefaultRadius, DefaultRadius},
		A:        []float64{DefaultAIn},
		E:        []float64{0},
		VInf:     DefaultVInf,
		Run:      defaultRun(),
	}
}

// Default returns the defaults for the named scenario.
func Default(name string) (*Config, error) {
	switch name {
	case "triple":
		return DefaultTriple(), nil
	case "binsingle":
		return DefaultBinarySingle(), nil
	default:
		return nil, fmt.Errorf("%w: unknown scenario %q", ErrInvalid, name)
	}
}

// Load reads a YAML or TOML file, chosen by extension, on top of the
// defaults of the scenario it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec, err := decoder(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Scenario string `yaml:"scenario" toml:"scenario"`
	}
	if err := dec(data, &head); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if head.Scenario == "" {
		head.Scenario = DefaultScenario
	}
	cfg, err := Default(head.Scenario)
	if err != nil {
		return nil, err
	}
	if err := dec(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func decoder(path string) (func([]byte, any) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	case ".toml":
		return func(b []byte, v any) error {
			_, err := toml.Decode(string(b), v)
			return err
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func Save(path string, cfg *Config) error {
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	orbits := 2
	switch c.Scenario {
	case "triple":
	case "binsingle":
		orbits = 1
		if c.VInf <= 0 {
			bad("vinf must be positive, got %g", c.VInf)
		}
		if c.Impact < 0 {
			bad("impact must not be negative, got %g", c.Impact)
		}
	default:
		bad("unknown scenario %q", c.Scenario)
	}

	if len(c.Masses) != 3 || len(c.Radii) != 3 {
		bad("need 3 masses and 3 radii, got %d and %d", len(c.Masses), len(c.Radii))
	}
	for i, m := range c.Masses {
		if m <= 0 {
			bad("masses[%d] must be positive, got %g", i, m)
		}
	}
	for i, r := range c.Radii {
		if r < 0 {
			bad("radii[%d] must not be negative, got %g", i, r)
		}
	}
	if len(c.A) != orbits || len(c.E) != orbits {
		bad("need %d semimajor axes and eccentricities, got %d and %d", orbits, len(c.A), len(c.E))
	}
	for i, a := range c.A {
		if a <= 0 {
			bad("a[%d] must be positive, got %g", i, a)
		}
	}
	for i, e := range c.E {
		if e < 0 || e >= 1 {
			bad("e[%d] must be in [0, 1), got %g", i, e)
		}
	}
	if len(c.A) == 2 && c.A[1] <= c.A[0] {
		bad("outer orbit a=%g must be wider than inner a=%g", c.A[1], c.A[0])
	}

	r := c.Run
	if r.TStop <= 0 {
		bad("tstop must be positive, got %g", r.TStop)
	}
	if r.CPUStop < 0 {
		bad("cpustop must not be negative, got %g", r.CPUStop)
	}
	if err := (dynamo.Tolerance{Abs: r.AbsAcc, Rel: r.RelAcc}).Validate(); err != nil {
		errs = append(errs, err)
	}
	if r.NCount <= 0 {
		bad("ncount must be positive, got %d", r.NCount)
	}
	if r.TidalTol <= 0 {
		bad("tidaltol must be positive, got %g", r.TidalTol)
	}
	if r.SpeedTol <= 0 || r.SpeedTol > 1 {
		bad("speedtol must be in (0, 1], got %g", r.SpeedTol)
	}
	if r.Fexp < 1 {
		bad("fexp must be at least 1, got %g", r.Fexp)
	}
	return errors.Join(errs...)
}

// Params converts the initial conditions for a scenario builder.
func (c *Config) Params() scenario.Params {
	return scenario.Params{
		Masses:   c.Masses,
		Radii:    c.Radii,
		A:        c.A,
		E:        c.E,
		Inc:      c.Inc,
		Peri:     c.Peri,
		VInf:     c.VInf,
		Impact:   c.Impact,
		TidalTol: c.Run.TidalTol,
	}
}

// Engine converts the run section for the integrator core.
func (c *Config) Engine() engine.Config {
	r := c.Run
	return engine.Config{
		Regularize:    r.Regularize,
		TStop:         r.TStop,
		CPUStop:       time.Duration(r.CPUStop * float64(time.Second)),
		Tol:           dynamo.Tolerance{Abs: r.AbsAcc, Rel: r.RelAcc},
		NCount:        r.NCount,
		OutFreq:       r.OutFreq,
		TidalTol:      r.TidalTol,
		SpeedTol:      r.SpeedTol,
		Fexp:          r.Fexp,
		Kick:          r.Kick,
		PN:            r.PN,
		FirstLogEntry: r.FirstLog,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Masses = append([]float64(nil), c.Masses...)
	cp.Radii = append([]float64(nil), c.Radii...)
	cp.A = append([]float64(nil), c.A...)
	cp.E = append([]float64(nil), c.E...)
	cp.Peri = append([]float64(nil), c.Peri...)
	return &cp
}
