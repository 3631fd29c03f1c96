package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rouletteopt/internal/stats"
)

func newRunsCommand(globals *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored run ids, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, globals, nil)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd, cfg.Storage.Kind, cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer closeStore()

			ids, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}

func newShowCommand(globals *globalOptions) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a stored run and, optionally, its convergence history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, globals, nil)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd, cfg.Storage.Kind, cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer closeStore()

			runID := args[0]
			run, ok, err := store.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("run not found: %s", runID)
			}

			out := cmd.OutOrStdout()
			s := run.Settings
			fmt.Fprintf(out, "run=%s created_at=%s seed=%d\n", run.ID, run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), s.Seed)
			fmt.Fprintf(out, "population=%d generations=%d survivors=%d crossover=%t exact_population=%t\n",
				s.PopulationSize, s.Generations, s.Survivors, s.UseCrossover, s.ExactPopulation)
			fmt.Fprintf(out, "weight_policy=%s degenerate_policy=%s selection_fallbacks=%d\n",
				s.WeightPolicy, s.DegeneratePolicy, run.SelectionFallbacks)
			for _, top := range run.Top {
				fmt.Fprintf(out, "rank=%d candidate=%.6f fitness=%.3f\n", top.Rank, top.Candidate, top.Fitness)
			}

			if !history {
				return nil
			}
			diagnostics, ok, err := store.GetGenerationDiagnostics(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no diagnostics stored for run %s", runID)
			}
			return stats.WriteConvergenceSeries(out, diagnostics)
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "append the per-generation convergence CSV")
	return cmd
}
