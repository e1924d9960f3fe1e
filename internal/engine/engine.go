package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/encounter/internal/classify"
	"github.com/san-kum/encounter/internal/collision"
	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/hierarchy"
	"github.com/san-kum/encounter/internal/integrators"
	"github.com/san-kum/encounter/internal/metrics"
	"github.com/san-kum/encounter/internal/physics"
	"github.com/san-kum/encounter/internal/units"
)

type run struct {
	cfg   Config
	env   *Env
	h     *hierarchy.Hierarchy
	t     *float64
	src   rand.Source
	start time.Time

	copts    classify.Options
	popts    physics.Options
	collOpts collision.Options

	cls      *classify.Classifier
	drift    *metrics.Drift
	approach *metrics.Approach
	stepper  *integrators.RK45

	prop  physics.Propagator
	roots []*hierarchy.Body
	y     dynamo.State
	s     float64
	hstep float64

	res Result
}

// Run integrates h from *t until the encounter resolves or a budget runs
// out, advancing *t. On return h holds the final classified hierarchy. The
// error is non-nil only when the run could not continue, in which case the
// result code is Error.
func Run(ctx context.Context, cfg Config, u units.Units, h *hierarchy.Hierarchy, t *float64, src rand.Source, opts ...Option) (Result, error) {
	if err := cfg.Tol.Validate(); err != nil {
		return Result{Code: Error}, err
	}
	if cfg.NCount <= 0 {
		cfg.NCount = DefaultNCount
	}

	env := newEnv(opts)
	var c float64
	if cfg.PN.Any() {
		c = u.SpeedOfLight()
	}
	r := &run{
		cfg:   cfg,
		env:   env,
		h:     h,
		t:     t,
		src:   src,
		start: env.Clock(),
		copts: classify.Options{TidalTol: cfg.TidalTol, SpeedTol: cfg.SpeedTol, C: c},
		popts: physics.Options{PN: cfg.PN, C: c, Regularize: cfg.Regularize},
		collOpts: collision.Options{
			Fexp:  cfg.Fexp,
			Kick:  cfg.Kick,
			Units: u,
		},
		drift:    metrics.NewDrift(),
		approach: metrics.NewApproach(),
		stepper:  integrators.NewRK45(cfg.Tol),
	}

	env.Log.Info("run started",
		zap.String("first_log_entry", cfg.FirstLogEntry),
		zap.Int("nstar", h.NStarInit),
		zap.Bool("regularize", cfg.Regularize),
		zap.Any("pn", cfg.PN),
		zap.Float64("tstop", cfg.TStop),
		zap.Duration("cpustop", cfg.CPUStop),
	)

	err := r.execute(ctx)
	r.res.CPUTime = env.Clock().Sub(r.start)
	r.summarize()
	if err != nil {
		r.res.Code = Error
		err = &dynamo.SimulationError{Step: r.res.Steps, Time: *t, State: r.y.Clone(), Wrapped: err}
		env.Log.Error("run failed", zap.Error(err))
		return r.res, err
	}

	env.Log.Info("run finished",
		zap.Stringer("code", r.res.Code),
		zap.Float64("t", *t),
		zap.Int64("steps", r.res.Steps),
		zap.String("topology", r.res.Topology),
		zap.Float64("de_frac", r.res.DeltaEFrac),
	)
	return r.res, nil
}

func (r *run) execute(ctx context.Context) error {
	if err := r.h.Trickle(*r.t); err != nil {
		return err
	}
	r.h.Flatten()
	if _, err := classify.Collapse(r.h, *r.t, r.copts); err != nil {
		return err
	}
	r.cls = classify.New(r.h, r.copts)
	r.observe()
	if err := r.rebuild(); err != nil {
		return err
	}
	r.snapshot()

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
		}
		if err := r.step(); err != nil {
			return err
		}
		if r.cfg.OutFreq > 0 && r.res.Steps%int64(r.cfg.OutFreq) == 0 {
			r.snapshot()
		}

		// A lone root is judged at once.
		var rep classify.Report
		classified := r.res.Steps%int64(r.cfg.NCount) == 0 || len(r.h.Roots) == 1
		if classified {
			var err error
			if rep, err = r.reclassify(); err != nil {
				return err
			}
		}

		switch {
		case *r.t >= r.cfg.TStop:
			r.res.Code = TimeLimit
		case r.cfg.CPUStop > 0 && r.env.Clock().Sub(r.start) >= r.cfg.CPUStop:
			r.res.Code = CPULimit
		case classified && rep.Resolved:
			r.res.Code = Resolved
			r.commit(rep)
			return nil
		default:
			continue
		}
		return r.finish()
	}
}

func (r *run) step() error {
	next, taken, hnext, err := r.stepper.StepAdaptive(r.prop, r.y, r.s, r.hstep)
	if err != nil {
		return err
	}
	if !next.IsValid() {
		return dynamo.ErrInvalidState
	}
	r.y, r.s, r.hstep = next, r.s+taken, hnext
	r.res.Steps++
	*r.t = r.prop.Unpack(r.y, r.s)

	if err := r.h.Trickle(*r.t); err != nil {
		return err
	}
	r.observe()
	return r.collide()
}

func (r *run) observe() {
	r.drift.Observe(r.h, *r.t)
	r.approach.Observe(r.h, *r.t)
}

func (r *run) collide() error {
	ev, ok, err := collision.Collide(r.h, *r.t, r.collOpts, r.src)
	if err != nil || !ok {
		return err
	}
	r.res.Collisions = append(r.res.Collisions, ev)
	r.res.KickEnergy += ev.KickEnergy
	r.res.KickMomentum = r3.Add(r.res.KickMomentum, ev.KickMomentum)
	r.drift.AddKick(ev.KickEnergy, r3.Cross(ev.X, ev.KickMomentum))

	r.env.Log.Info("collision",
		zap.Float64("t", *r.t),
		zap.String("first", ev.First),
		zap.String("second", ev.Second),
		zap.String("product", ev.Product),
		zap.Float64("kick", r3.Norm(ev.Kick)),
	)
	return r.rebuild()
}

// reclassify expands perturbed composites, collapses isolated pairs,
// rebuilds the propagator if the root set changed and classifies.
func (r *run) reclassify() (classify.Report, error) {
	expanded, err := classify.Expand(r.h, *r.t, r.copts)
	if err != nil {
		return classify.Report{}, err
	}
	collapsed, err := classify.Collapse(r.h, *r.t, r.copts)
	if err != nil {
		return classify.Report{}, err
	}
	if expanded || collapsed {
		if r.env.Debug {
			r.env.Log.Debug("hierarchy changed",
				zap.Float64("t", *r.t),
				zap.Bool("expanded", expanded),
				zap.Bool("collapsed", collapsed),
				zap.String("roots", r.h.String()),
			)
		}
		if err := r.rebuild(); err != nil {
			return classify.Report{}, err
		}
	}

	rep, err := r.cls.Classify(r.h, *r.t)
	if err != nil {
		return classify.Report{}, err
	}
	r.res.ClassifyCalls++
	if r.env.Debug {
		r.env.Log.Debug("classified",
			zap.Float64("t", *r.t),
			zap.String("topology", rep.Topology),
			zap.Bool("resolved", rep.Resolved),
		)
	}
	return rep, nil
}

// rebuild replaces the propagator for the current roots.
func (r *run) rebuild() error {
	r.roots = r.h.RootBodies(r.roots[:0])
	p, err := physics.New(r.roots, *r.t, r.popts)
	if err != nil {
		return err
	}
	r.prop = p
	r.y = p.Pack(*r.t, nil)
	r.s = *r.t
	r.hstep = p.InitialStep(r.y)
	return nil
}

// finish classifies the final state of an unresolved run.
func (r *run) finish() error {
	rep, err := r.cls.Classify(r.h, *r.t)
	if err != nil {
		return err
	}
	r.res.ClassifyCalls++
	r.commit(rep)
	return nil
}

func (r *run) commit(rep classify.Report) {
	r.h.CopyFrom(r.cls.Hierarchy())
	r.res.Topology = rep.Topology
	r.res.TopologyHR = rep.TopologyHR
	r.res.Levels = rep.Levels
}

func (r *run) snapshot() {
	if r.env.Debug {
		r.env.Log.Debug("step",
			zap.Int64("step", r.res.Steps),
			zap.Float64("t", *r.t),
			zap.Float64("h", r.hstep),
			zap.Int("roots", len(r.h.Roots)),
			zap.String("topology", r.h.String()),
		)
	}
	if len(r.env.Observers) == 0 {
		return
	}
	_, frac := r.drift.Energy()
	s := Snapshot{
		Step:    r.res.Steps,
		Time:    *r.t,
		H:       r.h,
		Drift:   frac,
		Closest: metrics.Closest(r.h),
	}
	for _, o := range r.env.Observers {
		o.OnSnapshot(s)
	}
}

func (r *run) summarize() {
	e0, l0 := r.drift.Initial()
	r.res.E0 = e0
	r.res.L0 = r3.Norm(l0)
	r.res.DeltaE, r.res.DeltaEFrac = r.drift.Energy()
	r.res.DeltaL, r.res.DeltaLFrac = r.drift.AngularMomentum()
	r.res.Rmin = r.approach.Value()
	r.res.RminPair = r.approach.Pair()
	r.res.Nosc = r.approach.Oscillations()
}
