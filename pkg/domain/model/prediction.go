package model

import (
	"time"

	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// PredictionResult is the outcome of one prediction.
// Probabilities and ClassNames are index-aligned with the label codec.
type PredictionResult struct {
	Prediction    int                   `json:"prediction" yaml:"prediction"`
	ClassLabel    string                `json:"class_label" yaml:"class_label"`
	Probabilities []float64             `json:"probabilities" yaml:"probabilities"`
	ClassNames    []string              `json:"class_names" yaml:"class_names"`
	Version       types.ArtifactVersion `json:"-" yaml:"version"`
}

// ModelInfo describes the model currently served
type ModelInfo struct {
	Version        types.ArtifactVersion `json:"version" yaml:"version"`
	CreatedAt      time.Time             `json:"created_at" yaml:"created_at"`
	ClassNames     []string              `json:"class_names" yaml:"class_names"`
	Categories     map[string][]string   `json:"categories" yaml:"categories"`
	NumericColumns []string              `json:"numeric_columns" yaml:"numeric_columns"`
	Metrics        TrainingMetrics       `json:"metrics" yaml:"metrics"`
}
