package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/san-kum/encounter/internal/config"
	"github.com/san-kum/encounter/internal/engine"
	"github.com/san-kum/encounter/internal/hierarchy"
	"github.com/san-kum/encounter/internal/report"
	"github.com/san-kum/encounter/internal/scenario"
	"github.com/san-kum/encounter/internal/storage"
	"github.com/san-kum/encounter/internal/units"
)

type runFlags struct {
	configFile string
	preset     string
	noSave     bool

	seed               uint64
	m0, m1, m2         float64
	r0, r1, r2         float64
	a0, a1, e0, e1     float64
	inc, peri0, peri1  float64
	vinf, impact       float64
	tstop, cpustop     float64
	absacc, relacc     float64
	ncount, outfreq    int
	tidaltol, speedtol float64
	fexp               float64
	kick, ks           bool
	pn1, pn2, pn25     bool
	pn3, pn35          bool
	firstLog           string
}

func newRunCmd(name string) *cobra.Command {
	cmd, _ := newRunCmdFlags(name)
	return cmd
}

func newRunCmdFlags(name string) (*cobra.Command, *runFlags) {
	f := &runFlags{}
	short := "integrate a hierarchical triple"
	if name == "binsingle" {
		short = "scatter a single star off a binary"
	}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, name, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml or toml)")
	fs.StringVar(&f.preset, "preset", "", "use preset configuration")
	fs.BoolVar(&f.noSave, "no-save", false, "do not store the run")

	fs.Uint64Var(&f.seed, "seed", 0, "random seed (0 draws one)")
	fs.Float64Var(&f.m0, "m0", config.DefaultMass, "mass of star 0 (MSUN)")
	fs.Float64Var(&f.m1, "m1", config.DefaultMass, "mass of star 1 (MSUN)")
	fs.Float64Var(&f.m2, "m2", config.DefaultMass, "mass of star 2 (MSUN)")
	fs.Float64Var(&f.r0, "r0", config.DefaultRadius, "radius of star 0 (Schwarzschild radii)")
	fs.Float64Var(&f.r1, "r1", config.DefaultRadius, "radius of star 1 (Schwarzschild radii)")
	fs.Float64Var(&f.r2, "r2", config.DefaultRadius, "radius of star 2 (Schwarzschild radii)")
	fs.Float64Var(&f.a0, "a0", config.DefaultAIn, "inner semimajor axis (AU)")
	fs.Float64Var(&f.e0, "e0", 0, "inner eccentricity")
	fs.Float64Var(&f.peri0, "peri0", hierarchy.Random, "inner argument of pericenter (rad, negative draws)")

	if name == "binsingle" {
		fs.Float64Var(&f.vinf, "vinf", config.DefaultVInf, "speed at infinity (units of the critical speed)")
		fs.Float64Var(&f.impact, "impact", 0, "impact parameter (units of a0)")
	} else {
		fs.Float64Var(&f.a1, "a1", config.DefaultAOut, "outer semimajor axis (AU)")
		fs.Float64Var(&f.e1, "e1", 0, "outer eccentricity")
		fs.Float64Var(&f.inc, "inc", 0, "mutual inclination (rad, negative draws)")
		fs.Float64Var(&f.peri1, "peri1", hierarchy.Random, "outer argument of pericenter (rad, negative draws)")
	}

	fs.Float64Var(&f.tstop, "tstop", engine.DefaultTStop, "stopping time (code units)")
	fs.Float64Var(&f.cpustop, "cpustop", config.DefaultCPUStop, "wall clock budget (s)")
	fs.Float64Var(&f.absacc, "absacc", engine.DefaultAbsAcc, "absolute integration accuracy")
	fs.Float64Var(&f.relacc, "relacc", engine.DefaultRelAcc, "relative integration accuracy")
	fs.IntVar(&f.ncount, "ncount", engine.DefaultNCount, "steps between classifications")
	fs.IntVar(&f.outfreq, "outfreq", engine.DefaultOutFreq, "steps between snapshots (0 disables)")
	fs.Float64Var(&f.tidaltol, "tidaltol", engine.DefaultTidalTol, "tidal tolerance")
	fs.Float64Var(&f.speedtol, "speedtol", engine.DefaultSpeedTol, "binary speed tolerance (fraction of c)")
	fs.Float64Var(&f.fexp, "fexp", engine.DefaultFexp, "merger radius expansion factor")
	fs.BoolVar(&f.kick, "kick", false, "apply merger recoil kicks")
	fs.BoolVar(&f.ks, "ks", false, "use K-S regularization")
	fs.BoolVar(&f.pn1, "pn1", false, "1PN terms")
	fs.BoolVar(&f.pn2, "pn2", false, "2PN terms")
	fs.BoolVar(&f.pn25, "pn25", false, "2.5PN terms")
	fs.BoolVar(&f.pn3, "pn3", false, "3PN terms")
	fs.BoolVar(&f.pn35, "pn35", false, "3.5PN terms")
	fs.StringVar(&f.firstLog, "first-log", "", "free-form first log entry")
	return cmd, f
}

// resolveConfig layers defaults, preset, config file and changed flags.
func resolveConfig(fs *pflag.FlagSet, name string, f *runFlags) (*config.Config, error) {
	cfg, err := config.Default(name)
	if err != nil {
		return nil, err
	}
	if f.preset != "" {
		if cfg = config.GetPreset(name, f.preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets(name))
		}
	}
	if f.configFile != "" {
		if cfg, err = config.Load(f.configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Scenario != name {
			return nil, fmt.Errorf("config %s describes scenario %q, not %q", f.configFile, cfg.Scenario, name)
		}
	}

	set := func(flag string, dst *float64, v float64) {
		if fs.Changed(flag) {
			*dst = v
		}
	}
	setAt := func(flag string, s *[]float64, i int, v, pad float64) {
		if !fs.Changed(flag) {
			return
		}
		for len(*s) <= i {
			*s = append(*s, pad)
		}
		(*s)[i] = v
	}

	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	setAt("m0", &cfg.Masses, 0, f.m0, 0)
	setAt("m1", &cfg.Masses, 1, f.m1, 0)
	setAt("m2", &cfg.Masses, 2, f.m2, 0)
	setAt("r0", &cfg.Radii, 0, f.r0, 0)
	setAt("r1", &cfg.Radii, 1, f.r1, 0)
	setAt("r2", &cfg.Radii, 2, f.r2, 0)
	setAt("a0", &cfg.A, 0, f.a0, 0)
	setAt("e0", &cfg.E, 0, f.e0, 0)
	setAt("peri0", &cfg.Peri, 0, f.peri0, hierarchy.Random)
	if name == "binsingle" {
		set("vinf", &cfg.VInf, f.vinf)
		set("impact", &cfg.Impact, f.impact)
	} else {
		setAt("a1", &cfg.A, 1, f.a1, 0)
		setAt("e1", &cfg.E, 1, f.e1, 0)
		set("inc", &cfg.Inc, f.inc)
		setAt("peri1", &cfg.Peri, 1, f.peri1, hierarchy.Random)
	}

	r := &cfg.Run
	set("tstop", &r.TStop, f.tstop)
	set("cpustop", &r.CPUStop, f.cpustop)
	set("absacc", &r.AbsAcc, f.absacc)
	set("relacc", &r.RelAcc, f.relacc)
	set("tidaltol", &r.TidalTol, f.tidaltol)
	set("speedtol", &r.SpeedTol, f.speedtol)
	set("fexp", &r.Fexp, f.fexp)
	if fs.Changed("ncount") {
		r.NCount = f.ncount
	}
	if fs.Changed("outfreq") {
		r.OutFreq = f.outfreq
	}
	flags := map[string]*bool{
		"kick": &r.Kick, "ks": &r.Regularize,
		"pn1": &r.PN.PN1, "pn2": &r.PN.PN2, "pn25": &r.PN.PN25, "pn3": &r.PN.PN3, "pn35": &r.PN.PN35,
	}
	for flag, dst := range flags {
		if fs.Changed(flag) {
			*dst, _ = fs.GetBool(flag)
		}
	}
	if fs.Changed("first-log") {
		r.FirstLog = f.firstLog
	}
	return cfg, cfg.Validate()
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runScenario(cmd *cobra.Command, name string, f *runFlags) error {
	cfg, err := resolveConfig(cmd.Flags(), name, f)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.With(zap.String("scenario", name), zap.Uint64("seed", seed))

	build, err := scenario.NewRegistry().Get(name)
	if err != nil {
		return err
	}
	src := rand.NewSource(seed)
	h, u, err := build(cfg.Params(), src, nil)
	if err != nil {
		return err
	}
	fmt.Printf("PARAMETERS: scenario=%s seed=%d topology=%s\n", name, seed, h.String())
	fmt.Printf("UNITS: v=%g km/s  l=%g AU  t=%g yr  M=%g MSUN  E=%g erg\n",
		u.V/units.KmPerS, u.L/units.AU, u.T/units.Yr, u.M/units.MSun, u.E)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec := storage.NewRecorder(h.NStarInit)
	var t float64
	res, runErr := engine.Run(ctx, cfg.Engine(), u, h, &t, src,
		engine.WithLogger(logger),
		engine.WithDebug(debug),
		engine.WithObserver(rec),
	)

	meta := storage.NewMetadata(cfg, seed, u, res, t)
	if !f.noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(meta, rec)
		if err != nil {
			return err
		}
		meta.ID = id
	}
	if runErr != nil {
		return runErr
	}

	fmt.Println(report.Summary(meta))
	fmt.Println(report.Outcome(meta))
	fmt.Println(report.Final(meta))
	return nil
}
