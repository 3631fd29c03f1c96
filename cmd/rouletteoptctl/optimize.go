package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rouletteopt/internal/config"
	"rouletteopt/internal/evo"
	"rouletteopt/internal/model"
	"rouletteopt/internal/stats"
	"rouletteopt/internal/storage"
)

func runOptimize(cmd *cobra.Command, globals *globalOptions, opts *runOptions) error {
	logger, err := newLogger(cmd.ErrOrStderr(), globals.logLevel)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, globals, opts)
	if err != nil {
		return err
	}
	if cfg.Evolution.Seed == 0 {
		cfg.Evolution.Seed = time.Now().UnixNano()
	}

	runID := opts.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With("run_id", runID)

	store, closeStore, err := openStore(cmd, cfg.Storage.Kind, cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder := stats.NewRecorder()
	driverCfg := cfg.DriverConfig()
	driverCfg.Logger = logger
	driverCfg.Observer = recorder

	driver, err := evo.NewDriver(driverCfg)
	if err != nil {
		return err
	}
	result, err := driver.Run(cmd.Context(), nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, top := range result.Top {
		fmt.Fprintf(out, "%.3f\n", top.Fitness)
	}

	record := model.RunRecord{
		VersionedRecord:    storage.Versioned(),
		ID:                 runID,
		Settings:           cfg.Settings(),
		Top:                result.Top,
		SelectionFallbacks: result.SelectionFallbacks,
		CreatedAt:          time.Now().UTC(),
	}
	if err := store.SaveRun(cmd.Context(), record); err != nil {
		return fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := store.SaveGenerationDiagnostics(cmd.Context(), runID, result.Diagnostics); err != nil {
		return fmt.Errorf("save diagnostics %s: %w", runID, err)
	}

	if opts.metricsFile != "" {
		if err := recorder.WriteTextfile(opts.metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if opts.historyCSV != "" {
		if err := stats.WriteConvergenceSeriesFile(opts.historyCSV, result.Diagnostics); err != nil {
			return fmt.Errorf("write history: %w", err)
		}
	}

	logger.Info("run stored", "store", cfg.Storage.Kind, "seed", cfg.Evolution.Seed)
	return nil
}

// loadConfig layers explicitly set flags over the config file (or the
// defaults) and validates the result.
func loadConfig(cmd *cobra.Command, globals *globalOptions, opts *runOptions) (config.Config, error) {
	cfg := config.Default()
	if globals.configPath != "" {
		loaded, err := config.Load(globals.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Storage.Kind = globals.storeKind
	}
	if flags.Changed("db-path") {
		cfg.Storage.DBPath = globals.dbPath
	}

	if opts == nil {
		return cfg, cfg.Validate()
	}
	e := &cfg.Evolution
	if flags.Changed("population") {
		e.PopulationSize = opts.population
	}
	if flags.Changed("generations") {
		e.Generations = opts.generations
	}
	if flags.Changed("survivors") {
		e.Survivors = opts.survivors
	}
	if flags.Changed("top") {
		e.TopResults = opts.top
	}
	if flags.Changed("step") {
		e.MutationStep = opts.step
	}
	if flags.Changed("crossover") {
		e.UseCrossover = opts.crossover
	}
	if flags.Changed("seed") {
		e.Seed = opts.seed
	}
	if flags.Changed("weight-policy") {
		e.WeightPolicy = opts.weightPolicy
	}
	if flags.Changed("degenerate-policy") {
		e.DegeneratePolicy = opts.degeneratePolicy
	}
	if flags.Changed("exact-population") {
		e.ExactPopulation = opts.exactPopulation
	}
	return cfg, cfg.Validate()
}
