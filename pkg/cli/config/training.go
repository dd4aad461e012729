package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/jobrisk/pkg/ml"
	"github.com/secmon-lab/jobrisk/pkg/service/dataset"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// TrainingFile is the TOML representation of the training configuration.
// Omitted keys keep their defaults.
type TrainingFile struct {
	Seed              uint64          `toml:"seed"`
	TestRatio         float64         `toml:"test_ratio" validate:"gt=0,lt=1"`
	MinAccuracy       float64         `toml:"min_accuracy" validate:"gte=0,lte=1"`
	MaxIterations     int             `toml:"max_iterations" validate:"gte=1"`
	L2                float64         `toml:"l2" validate:"gte=0"`
	GradientThreshold float64         `toml:"gradient_threshold" validate:"gt=0"`
	Columns           dataset.Columns `toml:"columns"`
}

// DefaultTrainingFile returns the configuration used when no file is given
func DefaultTrainingFile() TrainingFile {
	def := usecase.DefaultTrainConfig()
	return TrainingFile{
		Seed:              def.Seed,
		TestRatio:         def.TestRatio,
		MinAccuracy:       def.MinAccuracy,
		MaxIterations:     def.Fit.MaxIterations,
		L2:                def.Fit.L2,
		GradientThreshold: def.Fit.GradientThreshold,
		Columns:           dataset.DefaultColumns(),
	}
}

// Validate checks value ranges and that every dataset column is named
func (f *TrainingFile) Validate() error {
	if err := validator.New().Struct(f); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "training configuration is invalid", goerr.V("cause", err.Error()))
	}
	return nil
}

// TrainConfig converts the file into use case settings
func (f *TrainingFile) TrainConfig() usecase.TrainConfig {
	return usecase.TrainConfig{
		Seed:        f.Seed,
		TestRatio:   f.TestRatio,
		MinAccuracy: f.MinAccuracy,
		Fit: ml.FitOptions{
			MaxIterations:     f.MaxIterations,
			L2:                f.L2,
			GradientThreshold: f.GradientThreshold,
		},
	}
}

// LoadTrainingFile reads a TOML training configuration on top of the defaults
func LoadTrainingFile(path string) (*TrainingFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "training config does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	cfg := DefaultTrainingFile()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &cfg, nil
}

// Training holds the CLI flags of the training pipeline. Flags override the
// values of the TOML file.
type Training struct {
	path          string
	seed          uint64
	testRatio     float64
	minAccuracy   float64
	maxIterations int
	l2            float64
}

func (t *Training) Flags() []cli.Flag {
	def := usecase.DefaultTrainConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Category:    "Training",
			Usage:       "Training configuration file (TOML)",
			Sources:     cli.EnvVars("JOBRISK_CONFIG"),
			Destination: &t.path,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Category:    "Training",
			Usage:       "Random seed of the stratified split",
			Value:       def.Seed,
			Destination: &t.seed,
		},
		&cli.Float64Flag{
			Name:        "test-ratio",
			Category:    "Training",
			Usage:       "Share of each class held out for evaluation",
			Value:       def.TestRatio,
			Destination: &t.testRatio,
		},
		&cli.Float64Flag{
			Name:        "min-accuracy",
			Category:    "Training",
			Usage:       "Evaluation accuracy required to publish the model (0 publishes always)",
			Value:       def.MinAccuracy,
			Sources:     cli.EnvVars("JOBRISK_MIN_ACCURACY"),
			Destination: &t.minAccuracy,
		},
		&cli.IntFlag{
			Name:        "max-iterations",
			Category:    "Training",
			Usage:       "Iteration bound of the optimizer",
			Value:       def.Fit.MaxIterations,
			Destination: &t.maxIterations,
		},
		&cli.Float64Flag{
			Name:        "l2",
			Category:    "Training",
			Usage:       "L2 penalty strength (inverse of C)",
			Value:       def.Fit.L2,
			Destination: &t.l2,
		},
	}
}

func (t Training) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("config", t.path),
		slog.Uint64("seed", t.seed),
		slog.Float64("test_ratio", t.testRatio),
		slog.Float64("min_accuracy", t.minAccuracy),
		slog.Int("max_iterations", t.maxIterations),
		slog.Float64("l2", t.l2),
	)
}

// Configure merges the configuration file with the flags that were set explicitly
func (t *Training) Configure(c *cli.Command) (*TrainingFile, error) {
	cfg := DefaultTrainingFile()
	if t.path != "" {
		loaded, err := LoadTrainingFile(t.path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if c.IsSet("seed") {
		cfg.Seed = t.seed
	}
	if c.IsSet("test-ratio") {
		cfg.TestRatio = t.testRatio
	}
	if c.IsSet("min-accuracy") {
		cfg.MinAccuracy = t.minAccuracy
	}
	if c.IsSet("max-iterations") {
		cfg.MaxIterations = t.maxIterations
	}
	if c.IsSet("l2") {
		cfg.L2 = t.l2
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
