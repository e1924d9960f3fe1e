package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/encounter/internal/config"
	"github.com/san-kum/encounter/internal/report"
	"github.com/san-kum/encounter/internal/scenario"
	"github.com/san-kum/encounter/internal/storage"
)

var (
	dataDir string
	debug   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "encounter",
		Short:        "hierarchical few-body gravitational encounters",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".encounter", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "development logging with per-step records")

	for _, name := range scenario.NewRegistry().List() {
		rootCmd.AddCommand(newRunCmd(name))
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show the outcome of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot separations and energy drift of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(listCmd, showCmd, plotCmd, presetsCmd, newEnsembleCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tCODE\tTOPOLOGY\tT\tDE/E0")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.4g\t%.2e\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Code,
			run.Topology,
			run.T,
			run.DeltaEFrac,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Println(report.Summary(*meta))
	if series, err := st.LoadSeries(meta.ID); err == nil && series.Len() > 0 {
		fmt.Printf("%s %s\n", report.Label.Render("drift"), report.Sparkline(series.Drift, 60))
		fmt.Printf("%s %s\n", report.Label.Render("rmin "), report.Sparkline(series.Closest, 60))
	}
	fmt.Println(report.Outcome(*meta))
	fmt.Println(report.Final(*meta))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(meta.ID)
	if err != nil {
		return err
	}
	if series.Len() == 0 {
		return fmt.Errorf("no snapshots recorded for run %s", meta.ID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", series.Len())

	nstar := len(series.Pos[0])
	for i := 0; i < nstar; i++ {
		for j := i + 1; j < nstar; j++ {
			fmt.Println(report.Plot(series.Separation(i, j), fmt.Sprintf("separation %d-%d", i, j)))
			fmt.Println()
		}
	}
	fmt.Println(report.Plot(series.Closest, "closest separation"))
	fmt.Println()
	fmt.Println(report.Plot(series.Drift, "energy drift dE/E0"))
	fmt.Println(strings.Repeat(" ", 2) + report.Outcome(*meta))
	return nil
}
