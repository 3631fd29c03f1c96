// Package config loads and validates run settings from INI or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"rouletteopt/internal/evo"
	"rouletteopt/internal/model"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config is the full file-level configuration.
type Config struct {
	Evolution EvolutionConfig `yaml:"evolution"`
	Storage   StorageConfig   `yaml:"storage"`
}

// EvolutionConfig holds the tunables of the evolutionary loop. It maps to
// the [evolution] INI section.
type EvolutionConfig struct {
	PopulationSize   int     `ini:"population_size" yaml:"population_size" validate:"gt=0"`
	Generations      int     `ini:"generations" yaml:"generations" validate:"gte=0"`
	Survivors        int     `ini:"survivors" yaml:"survivors" validate:"gt=0,ltefield=PopulationSize"`
	TopResults       int     `ini:"top_results" yaml:"top_results" validate:"gt=0,ltefield=PopulationSize"`
	MutationStep     float64 `ini:"mutation_step" yaml:"mutation_step" validate:"gt=0"`
	UseCrossover     bool    `ini:"use_crossover" yaml:"use_crossover"`
	ExactPopulation  bool    `ini:"exact_population" yaml:"exact_population"`
	WeightPolicy     string  `ini:"weight_policy" yaml:"weight_policy" validate:"oneof=shift strict"`
	DegeneratePolicy string  `ini:"degenerate_policy" yaml:"degenerate_policy" validate:"oneof=fail uniform"`
	Seed             int64   `ini:"seed" yaml:"seed"`
}

// StorageConfig maps to the [storage] INI section.
type StorageConfig struct {
	Kind   string `ini:"kind" yaml:"kind" validate:"oneof=memory sqlite"`
	DBPath string `ini:"db_path" yaml:"db_path" validate:"required_if=Kind sqlite"`
}

var validate = validator.New()

func Default() Config {
	return Config{
		Evolution: EvolutionConfig{
			PopulationSize:   100,
			Generations:      1000,
			Survivors:        75,
			TopResults:       5,
			MutationStep:     evo.DefaultMutationStep,
			UseCrossover:     true,
			WeightPolicy:     string(evo.WeightShift),
			DegeneratePolicy: string(evo.DegenerateFail),
		},
		Storage: StorageConfig{
			Kind:   "memory",
			DBPath: "rouletteopt.db",
		},
	}
}

// Load reads path on top of Default and validates the result. Files ending
// in .yaml or .yml are parsed as YAML, everything else as INI.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = LoadYAML(data)
	default:
		cfg, err = LoadINI(data)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config '%s': %w", path, err)
	}
	return cfg, nil
}

func LoadINI(data []byte) (Config, error) {
	file, err := ini.Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse INI: %w", err)
	}

	cfg := Default()
	if err := file.Section("evolution").MapTo(&cfg.Evolution); err != nil {
		return Config{}, fmt.Errorf("failed to map [evolution] section: %w", err)
	}
	if err := file.Section("storage").MapTo(&cfg.Storage); err != nil {
		return Config{}, fmt.Errorf("failed to map [storage] section: %w", err)
	}
	cfg.Evolution.WeightPolicy = strings.ToLower(strings.TrimSpace(cfg.Evolution.WeightPolicy))
	cfg.Evolution.DegeneratePolicy = strings.ToLower(strings.TrimSpace(cfg.Evolution.DegeneratePolicy))
	cfg.Storage.Kind = strings.ToLower(strings.TrimSpace(cfg.Storage.Kind))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadYAML(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the rules that span fields. Every
// failure wraps ErrInvalidConfiguration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	e := c.Evolution
	if math.IsInf(e.MutationStep, 0) || math.IsNaN(e.MutationStep) {
		return fmt.Errorf("%w: mutation_step must be finite", ErrInvalidConfiguration)
	}
	final := evo.FinalPopulationSize(e.PopulationSize, e.Survivors, e.Generations, e.ExactPopulation)
	if e.TopResults > final {
		return fmt.Errorf("%w: top_results (%d) exceeds the final population size (%d)", ErrInvalidConfiguration, e.TopResults, final)
	}
	return nil
}

// Settings snapshots the evolution section for run records.
func (c Config) Settings() model.RunSettings {
	e := c.Evolution
	return model.RunSettings{
		PopulationSize:   e.PopulationSize,
		Generations:      e.Generations,
		Survivors:        e.Survivors,
		TopResults:       e.TopResults,
		MutationStep:     e.MutationStep,
		UseCrossover:     e.UseCrossover,
		ExactPopulation:  e.ExactPopulation,
		WeightPolicy:     e.WeightPolicy,
		DegeneratePolicy: e.DegeneratePolicy,
		Seed:             e.Seed,
	}
}

// DriverConfig converts the evolution section into driver settings.
func (c Config) DriverConfig() evo.DriverConfig {
	e := c.Evolution
	return evo.DriverConfig{
		PopulationSize:  e.PopulationSize,
		Generations:     e.Generations,
		Survivors:       e.Survivors,
		TopResults:      e.TopResults,
		MutationStep:    e.MutationStep,
		UseCrossover:    e.UseCrossover,
		ExactPopulation: e.ExactPopulation,
		Selector: evo.RouletteSelector{
			Weighting:  evo.WeightPolicy(e.WeightPolicy),
			Degenerate: evo.DegeneratePolicy(e.DegeneratePolicy),
		},
		Seed: e.Seed,
	}
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
