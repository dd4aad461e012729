package model

import (
	"time"

	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// TrainingRun records one execution of the training pipeline
type TrainingRun struct {
	ID              types.TrainingRunID   `json:"id" yaml:"id"`
	ArtifactVersion types.ArtifactVersion `json:"artifact_version" yaml:"artifact_version"`
	Dataset         string                `json:"dataset" yaml:"dataset"`
	Seed            uint64                `json:"seed" yaml:"seed"`
	Classes         []string              `json:"classes" yaml:"classes"`
	DroppedCount    int                   `json:"dropped_count" yaml:"dropped_count"`
	Metrics         TrainingMetrics       `json:"metrics" yaml:"metrics"`
	MinAccuracy     float64               `json:"min_accuracy" yaml:"min_accuracy"`
	Accepted        bool                  `json:"accepted" yaml:"accepted"`
	Published       bool                  `json:"published" yaml:"published"`
	CreatedAt       time.Time             `json:"created_at" yaml:"created_at"`
}

// ListTrainingRunOptions filters a training run listing
type ListTrainingRunOptions struct {
	AcceptedOnly bool
	Limit        int
}
