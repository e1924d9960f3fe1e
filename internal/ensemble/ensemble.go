// Package ensemble runs one configuration over a range of seeds in parallel
// and tallies the outcomes, the usual way scattering cross sections and
// branching ratios are measured.
package ensemble

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/san-kum/encounter/internal/config"
	"github.com/san-kum/encounter/internal/engine"
	"github.com/san-kum/encounter/internal/scenario"
)

// Outcome is the result of one member run.
type Outcome struct {
	Seed   uint64
	T      float64
	Result engine.Result
	Err    error
}

type Ensemble struct {
	build     scenario.Builder
	cfg       *config.Config
	numRuns   int
	seedStart uint64
	workers   int
	log       *zap.Logger
}

func New(build scenario.Builder, cfg *config.Config, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{
		build:     build,
		cfg:       cfg,
		numRuns:   numRuns,
		seedStart: seedStart,
		workers:   runtime.GOMAXPROCS(0),
		log:       zap.NewNop(),
	}
}

// WithWorkers bounds the number of concurrent runs.
func (e *Ensemble) WithWorkers(n int) *Ensemble {
	if n > 0 {
		e.workers = n
	}
	return e
}

func (e *Ensemble) WithLogger(l *zap.Logger) *Ensemble {
	e.log = l
	return e
}

// Run integrates every member with seeds seedStart, seedStart+1, ... and
// returns the outcomes in seed order. A member that fails keeps its error
// in Outcome.Err; Run itself fails only when ctx is canceled.
func (e *Ensemble) Run(ctx context.Context) ([]Outcome, error) {
	outs := make([]Outcome, e.numRuns)
	sem := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outs[idx] = Outcome{Seed: e.seedStart + uint64(idx), Err: ctx.Err()}
				return
			}
			outs[idx] = e.member(ctx, e.seedStart+uint64(idx))
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return outs, err
	}
	return outs, nil
}

func (e *Ensemble) member(ctx context.Context, seed uint64) Outcome {
	out := Outcome{Seed: seed}
	src := rand.NewSource(seed)
	h, u, err := e.build(e.cfg.Params(), src, nil)
	if err != nil {
		out.Err = fmt.Errorf("seed %d: %w", seed, err)
		return out
	}

	log := e.log.With(zap.Uint64("seed", seed))
	out.Result, out.Err = engine.Run(ctx, e.cfg.Engine(), u, h, &out.T, src, engine.WithLogger(log))
	if out.Err != nil {
		log.Warn("member failed", zap.Error(out.Err))
	}
	return out
}

// Branch is the share of an ensemble that ended in one outcome.
type Branch struct {
	Code     engine.Code
	Topology string
	Count    int
	Fraction float64
}

// Tally groups outcomes by stopping code and human-readable topology,
// most frequent first. Failed members are counted under Error.
func Tally(outs []Outcome) []Branch {
	type key struct {
		code engine.Code
		topo string
	}
	counts := make(map[key]int)
	for _, o := range outs {
		k := key{o.Result.Code, o.Result.TopologyHR}
		if o.Err != nil {
			k = key{engine.Error, ""}
		}
		counts[k]++
	}

	branches := make([]Branch, 0, len(counts))
	for k, n := range counts {
		branches = append(branches, Branch{
			Code:     k.code,
			Topology: k.topo,
			Count:    n,
			Fraction: float64(n) / float64(len(outs)),
		})
	}
	sort.Slice(branches, func(i, j int) bool {
		if branches[i].Count != branches[j].Count {
			return branches[i].Count > branches[j].Count
		}
		if branches[i].Code != branches[j].Code {
			return branches[i].Code < branches[j].Code
		}
		return branches[i].Topology < branches[j].Topology
	})
	return branches
}
