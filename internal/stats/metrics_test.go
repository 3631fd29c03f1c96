package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"rouletteopt/internal/model"
)

func TestRecorderObservesGenerations(t *testing.T) {
	r := NewRecorder()
	r.ObserveGeneration(model.GenerationDiagnostics{Generation: 1, PopulationSize: 99, BestFitness: 5.5, MeanFitness: 3})
	r.ObserveGeneration(model.GenerationDiagnostics{Generation: 2, PopulationSize: 99, BestFitness: 6.1, MeanFitness: 4, SelectionFallback: true})

	if got := testutil.ToFloat64(r.generations); got != 2 {
		t.Fatalf("generations_total=%f", got)
	}
	if got := testutil.ToFloat64(r.fallbacks); got != 1 {
		t.Fatalf("selection_uniform_fallbacks_total=%f", got)
	}
	if got := testutil.ToFloat64(r.best); got != 6.1 {
		t.Fatalf("best_fitness=%f", got)
	}
	if got := testutil.ToFloat64(r.population); got != 99 {
		t.Fatalf("population_size=%f", got)
	}
	if n := testutil.CollectAndCount(r.Registry()); n != 6 {
		t.Fatalf("expected 6 collected metrics, got %d", n)
	}
}

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveGeneration(model.GenerationDiagnostics{Generation: 1, PopulationSize: 10, BestFitness: 4})

	path := filepath.Join(t.TempDir(), "rouletteopt.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "rouletteopt_generations_total 1") {
		t.Fatalf("missing counter in textfile:\n%s", data)
	}
}
