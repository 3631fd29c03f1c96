package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"rouletteopt/internal/model"
)

var seriesHeader = []string{"generation", "population_size", "best_fitness", "mean_fitness", "min_fitness", "stddev_fitness", "best_candidate"}

// WriteConvergenceSeries writes one CSV row per generation.
func WriteConvergenceSeries(w io.Writer, diagnostics []model.GenerationDiagnostics) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(seriesHeader); err != nil {
		return err
	}
	for _, d := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(d.Generation),
			strconv.Itoa(d.PopulationSize),
			formatFloat(d.BestFitness),
			formatFloat(d.MeanFitness),
			formatFloat(d.MinFitness),
			formatFloat(d.StdDevFitness),
			formatFloat(d.BestCandidate),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteConvergenceSeriesFile(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteConvergenceSeries(file, diagnostics); err != nil {
		return err
	}
	return file.Sync()
}

// ReadConvergenceSeries parses a file produced by WriteConvergenceSeries.
func ReadConvergenceSeries(r io.Reader) ([]model.GenerationDiagnostics, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.GenerationDiagnostics{}, nil
		}
		return nil, err
	}
	if len(header) != len(seriesHeader) {
		return nil, fmt.Errorf("convergence series header must have %d columns", len(seriesHeader))
	}

	out := make([]model.GenerationDiagnostics, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var d model.GenerationDiagnostics
		if d.Generation, err = strconv.Atoi(record[0]); err != nil {
			return nil, fmt.Errorf("generation column: %w", err)
		}
		if d.PopulationSize, err = strconv.Atoi(record[1]); err != nil {
			return nil, fmt.Errorf("population_size column: %w", err)
		}
		values := make([]float64, 0, 5)
		for i, raw := range record[2:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%s column: %w", seriesHeader[i+2], err)
			}
			values = append(values, v)
		}
		d.BestFitness, d.MeanFitness, d.MinFitness, d.StdDevFitness, d.BestCandidate = values[0], values[1], values[2], values[3], values[4]
		out = append(out, d)
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
