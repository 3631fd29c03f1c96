package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rouletteopt/internal/evo"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.Evolution.PopulationSize)
	assert.Equal(t, 1000, cfg.Evolution.Generations)
	assert.Equal(t, 75, cfg.Evolution.Survivors)
	assert.Equal(t, 5, cfg.Evolution.TopResults)
	assert.Equal(t, 0.01, cfg.Evolution.MutationStep)
	assert.True(t, cfg.Evolution.UseCrossover)
	assert.False(t, cfg.Evolution.ExactPopulation)
	assert.Equal(t, "memory", cfg.Storage.Kind)
}

func TestLoadINIOverridesDefaults(t *testing.T) {
	cfg, err := LoadINI([]byte(`
[evolution]
population_size = 40
generations = 25
survivors = 30
use_crossover = false
weight_policy = Strict
seed = 9

[storage]
kind = sqlite
db_path = runs.db
`))
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Evolution.PopulationSize)
	assert.Equal(t, 25, cfg.Evolution.Generations)
	assert.Equal(t, 30, cfg.Evolution.Survivors)
	assert.Equal(t, 5, cfg.Evolution.TopResults)
	assert.Equal(t, 0.01, cfg.Evolution.MutationStep)
	assert.False(t, cfg.Evolution.UseCrossover)
	assert.Equal(t, "strict", cfg.Evolution.WeightPolicy)
	assert.Equal(t, int64(9), cfg.Evolution.Seed)
	assert.Equal(t, "sqlite", cfg.Storage.Kind)
	assert.Equal(t, "runs.db", cfg.Storage.DBPath)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	cfg, err := LoadYAML([]byte(`
evolution:
  population_size: 10
  survivors: 8
  top_results: 3
  mutation_step: 0.05
  exact_population: true
  degenerate_policy: uniform
`))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Evolution.PopulationSize)
	assert.Equal(t, 8, cfg.Evolution.Survivors)
	assert.Equal(t, 3, cfg.Evolution.TopResults)
	assert.Equal(t, 0.05, cfg.Evolution.MutationStep)
	assert.True(t, cfg.Evolution.ExactPopulation)
	assert.Equal(t, "uniform", cfg.Evolution.DegeneratePolicy)
	assert.Equal(t, 1000, cfg.Evolution.Generations)
}

func TestLoadYAMLEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := LoadYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	_, err := LoadYAML([]byte("evolution:\n  populaton_size: 10\n"))
	require.Error(t, err)
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	iniPath := filepath.Join(dir, "run.ini")
	require.NoError(t, os.WriteFile(iniPath, []byte("[evolution]\ngenerations = 3\n"), 0o644))
	cfg, err := Load(iniPath)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Evolution.Generations)

	yamlPath := filepath.Join(dir, "run.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("evolution:\n  generations: 4\n"), 0o644))
	cfg, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Evolution.Generations)

	_, err = Load(filepath.Join(dir, "missing.ini"))
	require.Error(t, err)
}

func TestValidateRejectsInvalidConfiguration(t *testing.T) {
	cases := map[string]func(*Config){
		"zero population":        func(c *Config) { c.Evolution.PopulationSize = 0 },
		"negative generations":   func(c *Config) { c.Evolution.Generations = -2 },
		"survivors above size":   func(c *Config) { c.Evolution.Survivors = 101 },
		"zero survivors":         func(c *Config) { c.Evolution.Survivors = 0 },
		"top above size":         func(c *Config) { c.Evolution.TopResults = 101 },
		"top above final size":   func(c *Config) { c.Evolution.TopResults = 100 },
		"zero mutation step":     func(c *Config) { c.Evolution.MutationStep = 0 },
		"unknown weight policy":  func(c *Config) { c.Evolution.WeightPolicy = "clip" },
		"unknown degenerate":     func(c *Config) { c.Evolution.DegeneratePolicy = "retry" },
		"unknown store":          func(c *Config) { c.Storage.Kind = "postgres" },
		"sqlite without db path": func(c *Config) { c.Storage.Kind, c.Storage.DBPath = "sqlite", "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
		})
	}
}

func TestValidateAllowsTopEqualToPopulationWithoutGenerations(t *testing.T) {
	cfg := Default()
	cfg.Evolution.Generations = 0
	cfg.Evolution.TopResults = cfg.Evolution.PopulationSize
	require.NoError(t, cfg.Validate())
}

func TestLoadINIReportsValidationErrors(t *testing.T) {
	_, err := LoadINI([]byte("[evolution]\nsurvivors = 500\n"))
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "Survivors")
}

func TestDriverConfigCarriesPolicies(t *testing.T) {
	cfg := Default()
	cfg.Evolution.WeightPolicy = "strict"
	cfg.Evolution.DegeneratePolicy = "uniform"
	cfg.Evolution.Seed = 12

	dc := cfg.DriverConfig()
	assert.Equal(t, evo.WeightStrict, dc.Selector.Weighting)
	assert.Equal(t, evo.DegenerateUniform, dc.Selector.Degenerate)
	assert.Equal(t, int64(12), dc.Seed)
	assert.Equal(t, cfg.Evolution.Survivors, dc.Survivors)

	_, err := evo.NewDriver(dc)
	require.NoError(t, err)

	settings := cfg.Settings()
	assert.Equal(t, "strict", settings.WeightPolicy)
	assert.Equal(t, int64(12), settings.Seed)
}
