package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rouletteopt/internal/model"
)

// Summarize builds diagnostics for one generation. fitness[i] must be the
// score of population[i].
func Summarize(generation int, population, fitness []float64) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation:     generation,
		PopulationSize: len(population),
	}
	if len(fitness) == 0 || len(fitness) != len(population) {
		return diag
	}

	best := floats.MaxIdx(fitness)
	diag.BestFitness = fitness[best]
	diag.BestCandidate = population[best]
	diag.MinFitness = floats.Min(fitness)
	diag.MeanFitness = stat.Mean(fitness, nil)
	if len(fitness) > 1 {
		diag.StdDevFitness = stat.StdDev(fitness, nil)
	}
	return diag
}

// BestSeries extracts the best fitness of every generation.
func BestSeries(diagnostics []model.GenerationDiagnostics) []float64 {
	out := make([]float64, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = d.BestFitness
	}
	return out
}
