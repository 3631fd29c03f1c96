package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rouletteopt/internal/storage"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	storeKind  string
	dbPath     string
	logLevel   string
}

// runOptions mirror the [evolution] config section. They only override the
// loaded configuration when set on the command line.
type runOptions struct {
	population       int
	generations      int
	survivors        int
	top              int
	step             float64
	crossover        bool
	seed             int64
	weightPolicy     string
	degeneratePolicy string
	exactPopulation  bool
	runID            string
	metricsFile      string
	historyCSV       string
}

func newRootCommand() *cobra.Command {
	globals := &globalOptions{}
	rootRun := &runOptions{}

	root := &cobra.Command{
		Use:   "rouletteoptctl",
		Short: "Maximize f(x) = 4 + 2x + 2sin(20x) - 4x^2 with roulette-wheel evolution",
		Long: `Runs a roulette-wheel evolutionary optimizer over a population of real
candidates and prints the fittest fitness values, one per line.

Examples:
  rouletteoptctl                                   # defaults, print top 5
  rouletteoptctl --generations 200 --seed 7        # reproducible short run
  rouletteoptctl run --config run.yaml --store sqlite --db-path runs.db
  rouletteoptctl runs --store sqlite --db-path runs.db
  rouletteoptctl show <run-id> --store sqlite --db-path runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOptimize(cmd, globals, rootRun)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&globals.configPath, "config", "", "config file (.ini, .yaml or .yml)")
	pf.StringVar(&globals.storeKind, "store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	pf.StringVar(&globals.dbPath, "db-path", "rouletteopt.db", "sqlite database path")
	pf.StringVar(&globals.logLevel, "log-level", "info", "log level: debug|info|warn|error")

	bindRunFlags(root, rootRun)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the optimizer and print the top results",
		Args:  cobra.NoArgs,
	}
	explicitRun := &runOptions{}
	bindRunFlags(runCmd, explicitRun)
	runCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runOptimize(cmd, globals, explicitRun)
	}

	root.AddCommand(runCmd, newRunsCommand(globals), newShowCommand(globals))
	return root
}

func bindRunFlags(cmd *cobra.Command, opts *runOptions) {
	fs := cmd.Flags()
	fs.IntVar(&opts.population, "population", 100, "population size")
	fs.IntVar(&opts.generations, "generations", 1000, "number of generations")
	fs.IntVar(&opts.survivors, "survivors", 75, "survivors selected per generation")
	fs.IntVar(&opts.top, "top", 5, "number of results to print")
	fs.Float64Var(&opts.step, "step", 0.01, "mutation step")
	fs.BoolVar(&opts.crossover, "crossover", true, "repopulate by crossover instead of random candidates")
	fs.Int64Var(&opts.seed, "seed", 0, "random seed, 0 picks one from the clock")
	fs.StringVar(&opts.weightPolicy, "weight-policy", "shift", "negative fitness handling: shift|strict")
	fs.StringVar(&opts.degeneratePolicy, "degenerate-policy", "fail", "zero total weight handling: fail|uniform")
	fs.BoolVar(&opts.exactPopulation, "exact-population", false, "repopulate to the full population size")
	fs.StringVar(&opts.runID, "run-id", "", "run id, generated when empty")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	fs.StringVar(&opts.historyCSV, "history-csv", "", "write per-generation convergence history as CSV")
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func openStore(cmd *cobra.Command, kind, dbPath string) (storage.Store, func(), error) {
	store, err := storage.NewStore(kind, dbPath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		_ = storage.CloseIfSupported(store)
	}
	if err := store.Init(cmd.Context()); err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}
