package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/encounter/internal/ensemble"
	"github.com/san-kum/encounter/internal/scenario"
)

func newEnsembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run a scenario over consecutive seeds and tally the outcomes",
	}
	for _, name := range scenario.NewRegistry().List() {
		cmd.AddCommand(newEnsembleMemberCmd(name))
	}
	return cmd
}

func newEnsembleMemberCmd(name string) *cobra.Command {
	sub, f := newRunCmdFlags(name)
	var runs, workers int
	var seedStart uint64
	sub.Flags().IntVar(&runs, "runs", 100, "number of runs")
	sub.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 uses GOMAXPROCS)")
	sub.Flags().Uint64Var(&seedStart, "seed-start", 1, "seed of the first run")
	sub.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd.Flags(), name, f)
		if err != nil {
			return err
		}
		build, err := scenario.NewRegistry().Get(name)
		if err != nil {
			return err
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		outs, err := ensemble.New(build, cfg, runs, seedStart).
			WithWorkers(workers).
			WithLogger(logger).
			Run(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tTOPOLOGY\tCOUNT\tFRACTION")
		for _, b := range ensemble.Tally(outs) {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\n", b.Code, b.Topology, b.Count, b.Fraction)
		}
		return w.Flush()
	}
	return sub
}
