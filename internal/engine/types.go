package engine

import (
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/classify"
	"github.com/san-kum/encounter/internal/collision"
	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/hierarchy"
	"github.com/san-kum/encounter/internal/physics"
)

const (
	DefaultTStop    = 1e6
	DefaultCPUStop  = time.Hour
	DefaultAbsAcc   = 1e-9
	DefaultRelAcc   = 1e-9
	DefaultNCount   = 500
	DefaultOutFreq  = 1
	DefaultTidalTol = 1e-5
	DefaultSpeedTol = 0.1
	DefaultFexp     = 1.0
)

// Config holds the run parameters in code units.
type Config struct {
	Regularize bool
	TStop      float64
	CPUStop    time.Duration
	Tol        dynamo.Tolerance
	// NCount is the number of accepted steps between classifications.
	NCount int
	// OutFreq is the number of accepted steps between snapshots; zero or
	// negative disables them.
	OutFreq       int
	TidalTol      float64
	SpeedTol      float64
	Fexp          float64
	Kick          bool
	PN            physics.PN
	FirstLogEntry string
}

func DefaultConfig() Config {
	return Config{
		TStop:    DefaultTStop,
		CPUStop:  DefaultCPUStop,
		Tol:      dynamo.Tolerance{Abs: DefaultAbsAcc, Rel: DefaultRelAcc},
		NCount:   DefaultNCount,
		OutFreq:  DefaultOutFreq,
		TidalTol: DefaultTidalTol,
		SpeedTol: DefaultSpeedTol,
		Fexp:     DefaultFexp,
	}
}

// Code is the reason a run stopped.
type Code int

const (
	Error Code = iota
	Resolved
	TimeLimit
	CPULimit
)

func (c Code) String() string {
	switch c {
	case Resolved:
		return "resolved"
	case TimeLimit:
		return "time_limit"
	case CPULimit:
		return "cpu_limit"
	default:
		return "error"
	}
}

// Result summarizes a finished run.
type Result struct {
	Code          Code
	Steps         int64
	ClassifyCalls int64
	CPUTime       time.Duration

	E0         float64
	L0         float64
	DeltaE     float64
	DeltaEFrac float64
	DeltaL     float64
	DeltaLFrac float64

	Rmin     float64
	RminPair [2]string
	Nosc     int

	Collisions   []collision.Event
	KickEnergy   float64
	KickMomentum r3.Vec

	Topology   string
	TopologyHR string
	Levels     []classify.Verdict
}

// Snapshot is passed to observers every OutFreq accepted steps. H must not
// be retained or modified.
type Snapshot struct {
	Step    int64
	Time    float64
	H       *hierarchy.Hierarchy
	Drift   float64
	Closest float64
}

type Observer interface {
	OnSnapshot(s Snapshot)
}

// Env is the run context: everything a run needs besides its physics.
type Env struct {
	Log       *zap.Logger
	Debug     bool
	Clock     func() time.Time
	Observers []Observer
}

type Option func(*Env)

func WithLogger(l *zap.Logger) Option { return func(e *Env) { e.Log = l } }

func WithDebug(on bool) Option { return func(e *Env) { e.Debug = on } }

// WithClock replaces the clock used for the CPU budget.
func WithClock(now func() time.Time) Option { return func(e *Env) { e.Clock = now } }

func WithObserver(o Observer) Option {
	return func(e *Env) { e.Observers = append(e.Observers, o) }
}

func newEnv(opts []Option) *Env {
	e := &Env{Log: zap.NewNop(), Clock: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}
