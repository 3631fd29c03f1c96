package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// DefaultMutationStep is the fixed perturbation applied by Mutator.
const DefaultMutationStep = 0.01

const (
	moveLeftBelow  = 0.3
	moveRightAbove = 0.7
)

var ErrNonFiniteCandidate = errors.New("candidate is not a finite number")

// Mutator nudges a candidate one step left (30%), one step right (30%) or
// leaves it alone (40%). Results are not clamped to the seeding range.
type Mutator struct {
	Step float64
}

func (Mutator) Name() string {
	return "step"
}

func (m Mutator) Mutate(rng *rand.Rand, x float64) (float64, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if !isFinite(x) {
		return 0, fmt.Errorf("mutate %v: %w", x, ErrNonFiniteCandidate)
	}

	step := m.Step
	if step == 0 {
		step = DefaultMutationStep
	}

	u := rng.Float64()
	out := x
	switch {
	case u < moveLeftBelow:
		out = x - step
	case u > moveRightAbove:
		out = x + step
	}
	if !isFinite(out) {
		return 0, fmt.Errorf("mutate %v by %v: %w", x, step, ErrNonFiniteCandidate)
	}
	return out, nil
}

// Recombiner blends two parents into one offspring using a random convex
// weight.
type Recombiner struct{}

func (Recombiner) Name() string {
	return "blend"
}

func (Recombiner) Crossover(rng *rand.Rand, x, y float64) (float64, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if !isFinite(x) || !isFinite(y) {
		return 0, fmt.Errorf("crossover %v x %v: %w", x, y, ErrNonFiniteCandidate)
	}

	w := rng.Float64()
	out := w*x + (1-w)*y
	if !isFinite(out) {
		return 0, fmt.Errorf("crossover %v x %v: %w", x, y, ErrNonFiniteCandidate)
	}
	return out, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
