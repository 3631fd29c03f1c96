package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"rouletteopt/internal/model"
	"rouletteopt/internal/stats"
)

// State is the driver's lifecycle position.
type State int

const (
	StateInitializing State = iota
	StateEvolving
	StateRanking
	StateReporting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateEvolving:
		return "evolving"
	case StateRanking:
		return "ranking"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer receives diagnostics after every generation.
type Observer interface {
	ObserveGeneration(model.GenerationDiagnostics)
}

type DriverConfig struct {
	PopulationSize int
	Generations    int
	Survivors      int
	TopResults     int
	MutationStep   float64
	UseCrossover   bool
	// ExactPopulation repopulates to PopulationSize instead of
	// PopulationSize-1.
	ExactPopulation bool
	Selector        RouletteSelector
	Seed            int64
	Logger          *slog.Logger
	Observer        Observer
}

// RunResult is everything a finished run produced.
type RunResult struct {
	// Top holds the reported candidates, fittest first.
	Top []model.TopResult
	// Ranked is the final population sorted ascending by fitness.
	Ranked             []float64
	Diagnostics        []model.GenerationDiagnostics
	SelectionFallbacks int
}

// Driver runs the generational loop. It owns its random source; two
// drivers built from the same config produce identical results.
type Driver struct {
	cfg        DriverConfig
	rng        *rand.Rand
	mutator    Mutator
	recombiner Recombiner
	logger     *slog.Logger
	state      State
}

func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.Generations < 0 {
		return nil, fmt.Errorf("generations must be >= 0")
	}
	if cfg.Survivors <= 0 || cfg.Survivors > cfg.PopulationSize {
		return nil, fmt.Errorf("survivors must be in [1, population size]")
	}
	if cfg.TopResults <= 0 || cfg.TopResults > cfg.PopulationSize {
		return nil, fmt.Errorf("top results must be in [1, population size]")
	}
	if final := FinalPopulationSize(cfg.PopulationSize, cfg.Survivors, cfg.Generations, cfg.ExactPopulation); cfg.TopResults > final {
		return nil, fmt.Errorf("top results (%d) exceed final population size (%d)", cfg.TopResults, final)
	}
	if cfg.MutationStep <= 0 || !isFinite(cfg.MutationStep) {
		return nil, fmt.Errorf("mutation step must be a finite value > 0")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Driver{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		mutator: Mutator{Step: cfg.MutationStep},
		logger:  cfg.Logger,
		state:   StateInitializing,
	}, nil
}

// FinalPopulationSize is the population length left for ranking.
func FinalPopulationSize(populationSize, survivors, generations int, exact bool) int {
	if generations == 0 {
		return populationSize
	}
	return max(survivors, repopulationTarget(populationSize, exact))
}

func repopulationTarget(populationSize int, exact bool) int {
	if exact {
		return populationSize
	}
	return populationSize - 1
}

func (d *Driver) State() State {
	return d.state
}

// Run evolves a population and reports the fittest candidates. A nil
// initial population is drawn uniformly from [0, 1); otherwise it must hold
// exactly PopulationSize candidates.
func (d *Driver) Run(ctx context.Context, initial []float64) (RunResult, error) {
	d.state = StateInitializing
	population, err := d.initialize(initial)
	if err != nil {
		return d.fail(err)
	}

	d.state = StateEvolving
	d.logger.Info("evolution started",
		"population", d.cfg.PopulationSize,
		"generations", d.cfg.Generations,
		"survivors", d.cfg.Survivors,
		"crossover", d.cfg.UseCrossover,
		"selection", d.cfg.Selector.Name(),
		"mutation", d.mutator.Name(),
		"seed", d.cfg.Seed,
	)

	diagnostics := make([]model.GenerationDiagnostics, 0, d.cfg.Generations)
	fallbacks := 0
	for gen := 1; gen <= d.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return d.fail(err)
		}

		var fellBack bool
		population, fellBack, err = d.step(population)
		if err != nil {
			return d.fail(fmt.Errorf("generation %d: %w", gen, err))
		}
		if fellBack {
			fallbacks++
			d.logger.Warn("roulette weights degenerate, sampled uniformly", "generation", gen)
		}

		diag := stats.Summarize(gen, population, FitnessAll(population))
		diag.SelectionFallback = fellBack
		diagnostics = append(diagnostics, diag)
		if d.cfg.Observer != nil {
			d.cfg.Observer.ObserveGeneration(diag)
		}
		d.logger.Debug("generation complete",
			"generation", gen,
			"best", diag.BestFitness,
			"mean", diag.MeanFitness,
			"size", diag.PopulationSize,
		)
	}

	d.state = StateRanking
	ranked, err := Rank(population)
	if err != nil {
		return d.fail(err)
	}

	d.state = StateReporting
	top, err := Report(ranked, d.cfg.TopResults)
	if err != nil {
		return d.fail(err)
	}

	d.state = StateDone
	d.logger.Info("evolution finished", "best", top[0].Fitness, "candidate", top[0].Candidate, "fallbacks", fallbacks)
	return RunResult{
		Top:                top,
		Ranked:             ranked,
		Diagnostics:        diagnostics,
		SelectionFallbacks: fallbacks,
	}, nil
}

func (d *Driver) initialize(initial []float64) ([]float64, error) {
	if initial != nil {
		if len(initial) != d.cfg.PopulationSize {
			return nil, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), d.cfg.PopulationSize)
		}
		population := make([]float64, len(initial))
		copy(population, initial)
		return population, nil
	}

	population := make([]float64, d.cfg.PopulationSize)
	for i := range population {
		population[i] = d.rng.Float64()
	}
	return population, nil
}

// step runs selection, mutation and repopulation for one generation.
func (d *Driver) step(population []float64) ([]float64, bool, error) {
	survivors, fellBack, err := d.cfg.Selector.selectDraws(d.rng, population, d.cfg.Survivors)
	if err != nil {
		return nil, false, fmt.Errorf("select: %w", err)
	}

	for i, x := range survivors {
		mutated, err := d.mutator.Mutate(d.rng, x)
		if err != nil {
			return nil, false, err
		}
		survivors[i] = mutated
	}

	next, err := d.repopulate(survivors)
	if err != nil {
		return nil, false, err
	}
	return next, fellBack, nil
}

// repopulate grows the survivors back to the target size. Crossover parents
// are drawn from the growing population, offspring included.
func (d *Driver) repopulate(population []float64) ([]float64, error) {
	target := repopulationTarget(d.cfg.PopulationSize, d.cfg.ExactPopulation)
	for len(population) < target {
		if !d.cfg.UseCrossover {
			population = append(population, d.rng.Float64())
			continue
		}

		x := population[d.rng.Intn(len(population))]
		y := population[d.rng.Intn(len(population))]
		child, err := d.recombiner.Crossover(d.rng, x, y)
		if err != nil {
			return nil, err
		}
		population = append(population, child)
	}
	return population, nil
}

func (d *Driver) fail(err error) (RunResult, error) {
	d.state = StateFailed
	d.logger.Error("evolution failed", "error", err)
	return RunResult{}, err
}

// Rank returns a copy of population sorted ascending by fitness.
func Rank(population []float64) ([]float64, error) {
	ranked := make([]float64, len(population))
	copy(ranked, population)
	for i, x := range ranked {
		if f := Fitness(x); math.IsNaN(f) {
			return nil, fmt.Errorf("rank candidate %d (%g): %w", i, x, ErrNonFiniteCandidate)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return Fitness(ranked[i]) < Fitness(ranked[j])
	})
	return ranked, nil
}

// Report pops the k fittest candidates off the end of an ascending ranking.
func Report(ranked []float64, k int) ([]model.TopResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("invalid result count: %d", k)
	}
	if k > len(ranked) {
		return nil, fmt.Errorf("%w: cannot report %d results from %d candidates", ErrEmptyPopulation, k, len(ranked))
	}

	top := make([]model.TopResult, 0, k)
	remaining := ranked
	for rank := 1; rank <= k; rank++ {
		x := remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
		top = append(top, model.TopResult{Rank: rank, Candidate: x, Fitness: Fitness(x)})
	}
	return top, nil
}
