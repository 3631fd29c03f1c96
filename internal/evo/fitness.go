package evo

import "math"

// Fitness scores a candidate. Higher is better.
//
//	f(x) = 4 + 2x + 2·sin(20x) − 4x²
//
// The function is pure and defined for every finite x; callers recompute it
// whenever they need a score instead of caching it next to the candidate.
func Fitness(x float64) float64 {
	return 4 + 2*x + 2*math.Sin(20*x) - 4*x*x
}

// FitnessAll scores every candidate of a population, preserving order.
func FitnessAll(population []float64) []float64 {
	out := make([]float64, len(population))
	for i, x := range population {
		out[i] = Fitness(x)
	}
	return out
}
