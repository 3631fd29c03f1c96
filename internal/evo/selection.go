package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptyPopulation        = errors.New("population is empty")
	ErrDegenerateDistribution = errors.New("degenerate selection distribution")
	ErrNegativeFitness        = errors.New("negative fitness cannot be used as roulette weight")
)

// WeightPolicy decides how negative fitness values become roulette weights.
type WeightPolicy string

const (
	// WeightShift offsets every fitness by the population minimum when that
	// minimum is negative, so the worst candidate gets weight 0.
	WeightShift WeightPolicy = "shift"
	// WeightStrict rejects populations containing negative fitness.
	WeightStrict WeightPolicy = "strict"
)

// DegeneratePolicy decides what happens when the weights sum to zero.
type DegeneratePolicy string

const (
	DegenerateFail    DegeneratePolicy = "fail"
	DegenerateUniform DegeneratePolicy = "uniform"
)

// RouletteSelector performs fitness-proportional sampling with replacement.
// The zero value uses WeightShift and DegenerateFail.
type RouletteSelector struct {
	Weighting  WeightPolicy
	Degenerate DegeneratePolicy
}

func (RouletteSelector) Name() string {
	return "roulette"
}

// Select draws exactly draws candidates from population. draws may exceed
// len(population).
func (s RouletteSelector) Select(rng *rand.Rand, population []float64, draws int) ([]float64, error) {
	out, _, err := s.selectDraws(rng, population, draws)
	return out, err
}

// Weights returns the normalized selection probability of every candidate.
func (s RouletteSelector) Weights(population []float64) ([]float64, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}

	weights := FitnessAll(population)
	minFitness := math.Inf(1)
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: candidate %d (%g) scores %v", ErrNonFiniteCandidate, i, population[i], w)
		}
		if w < minFitness {
			minFitness = w
		}
	}

	if minFitness < 0 {
		switch s.weighting() {
		case WeightStrict:
			return nil, fmt.Errorf("%w: minimum fitness %g", ErrNegativeFitness, minFitness)
		case WeightShift:
			for i := range weights {
				weights[i] -= minFitness
			}
		default:
			return nil, fmt.Errorf("unsupported weight policy: %s", s.Weighting)
		}
	}

	total := floats.Sum(weights)
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		return nil, fmt.Errorf("%w: total weight %g", ErrDegenerateDistribution, total)
	}
	floats.Scale(1/total, weights)
	return weights, nil
}

// selectDraws reports whether the uniform fallback was used.
func (s RouletteSelector) selectDraws(rng *rand.Rand, population []float64, draws int) ([]float64, bool, error) {
	if rng == nil {
		return nil, false, fmt.Errorf("random source is required")
	}
	if draws < 0 {
		return nil, false, fmt.Errorf("invalid draw count: %d", draws)
	}
	out := make([]float64, 0, draws)
	if draws == 0 {
		return out, false, nil
	}
	if len(population) == 0 {
		return nil, false, ErrEmptyPopulation
	}

	weights, err := s.Weights(population)
	if err != nil {
		if !errors.Is(err, ErrDegenerateDistribution) || s.degenerate() != DegenerateUniform {
			return nil, false, err
		}
		for i := 0; i < draws; i++ {
			out = append(out, population[rng.Intn(len(population))])
		}
		return out, true, nil
	}

	cumulative := make([]float64, len(weights))
	floats.CumSum(cumulative, weights)
	upper := cumulative[len(cumulative)-1]

	for i := 0; i < draws; i++ {
		r := rng.Float64() * upper
		// First index whose cumulative weight is strictly above r; zero
		// weight candidates share their predecessor's bound and are skipped.
		idx := sort.Search(len(cumulative), func(j int) bool {
			return cumulative[j] > r
		})
		if idx == len(cumulative) {
			idx = lastWeighted(weights)
		}
		out = append(out, population[idx])
	}
	return out, false, nil
}

// lastWeighted covers r rounding up to the table's upper bound.
func lastWeighted(weights []float64) int {
	for i := len(weights) - 1; i > 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return 0
}

func (s RouletteSelector) weighting() WeightPolicy {
	if s.Weighting == "" {
		return WeightShift
	}
	return s.Weighting
}

func (s RouletteSelector) degenerate() DegeneratePolicy {
	if s.Degenerate == "" {
		return DegenerateFail
	}
	return s.Degenerate
}
