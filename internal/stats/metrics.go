package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"rouletteopt/internal/model"
)

const metricsNamespace = "rouletteopt"

// Recorder mirrors generation diagnostics into a private Prometheus
// registry. It satisfies evo.Observer.
type Recorder struct {
	registry *prometheus.Registry

	generations prometheus.Counter
	fallbacks   prometheus.Counter
	best        prometheus.Gauge
	mean        prometheus.Gauge
	population  prometheus.Gauge
	bestHist    prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generations_total",
			Help:      "Generations completed.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "selection_uniform_fallbacks_total",
			Help:      "Generations whose roulette selection fell back to uniform sampling.",
		}),
		best: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "best_fitness",
			Help:      "Best fitness in the latest generation.",
		}),
		mean: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "mean_fitness",
			Help:      "Mean fitness in the latest generation.",
		}),
		population: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "population_size",
			Help:      "Population size after repopulation in the latest generation.",
		}),
		bestHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "generation_best_fitness",
			Help:      "Distribution of per-generation best fitness.",
			Buckets:   prometheus.LinearBuckets(0, 0.5, 14),
		}),
	}
	r.registry.MustRegister(r.generations, r.fallbacks, r.best, r.mean, r.population, r.bestHist)
	return r
}

func (r *Recorder) ObserveGeneration(d model.GenerationDiagnostics) {
	r.generations.Inc()
	if d.SelectionFallback {
		r.fallbacks.Inc()
	}
	r.best.Set(d.BestFitness)
	r.mean.Set(d.MeanFitness)
	r.population.Set(float64(d.PopulationSize))
	r.bestHist.Observe(d.BestFitness)
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
