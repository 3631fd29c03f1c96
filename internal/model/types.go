package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunSettings is the tunable surface of one optimization run.
type RunSettings struct {
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Survivors        int     `json:"survivors"`
	TopResults       int     `json:"top_results"`
	MutationStep     float64 `json:"mutation_step"`
	UseCrossover     bool    `json:"use_crossover"`
	ExactPopulation  bool    `json:"exact_population"`
	WeightPolicy     string  `json:"weight_policy"`
	DegeneratePolicy string  `json:"degenerate_policy"`
	Seed             int64   `json:"seed"`
}

// TopResult is one reported candidate. Rank 1 is the fittest.
type TopResult struct {
	Rank      int     `json:"rank"`
	Candidate float64 `json:"candidate"`
	Fitness   float64 `json:"fitness"`
}

type RunRecord struct {
	VersionedRecord
	ID                 string      `json:"id"`
	Settings           RunSettings `json:"settings"`
	Top                []TopResult `json:"top"`
	SelectionFallbacks int         `json:"selection_fallbacks"`
	CreatedAt          time.Time   `json:"created_at"`
}

// GenerationDiagnostics summarizes the population after a generation's
// repopulation phase.
type GenerationDiagnostics struct {
	Generation        int     `json:"generation"`
	PopulationSize    int     `json:"population_size"`
	BestFitness       float64 `json:"best_fitness"`
	MeanFitness       float64 `json:"mean_fitness"`
	MinFitness        float64 `json:"min_fitness"`
	StdDevFitness     float64 `json:"stddev_fitness"`
	BestCandidate     float64 `json:"best_candidate"`
	SelectionFallback bool    `json:"selection_fallback,omitempty"`
}
