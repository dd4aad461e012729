package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ArtifactVersion identifies one published artifact bundle
type ArtifactVersion string

// NewArtifactVersion returns a time-ordered random version
func NewArtifactVersion() ArtifactVersion {
	return ArtifactVersion(newID())
}

// Validate checks if the ArtifactVersion is a UUID
func (v ArtifactVersion) Validate() error {
	if v == "" {
		return goerr.New("artifact version cannot be empty")
	}
	if _, err := uuid.Parse(string(v)); err != nil {
		return goerr.Wrap(err, "artifact version must be a UUID", goerr.V("version", v))
	}
	return nil
}

// String returns the string representation of ArtifactVersion
func (v ArtifactVersion) String() string {
	return string(v)
}

// TrainingRunID identifies one execution of the training pipeline
type TrainingRunID string

// NewTrainingRunID returns a time-ordered random ID
func NewTrainingRunID() TrainingRunID {
	return TrainingRunID(newID())
}

// Validate checks if the TrainingRunID is a UUID
func (id TrainingRunID) Validate() error {
	if id == "" {
		return goerr.New("training run ID cannot be empty")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(err, "training run ID must be a UUID", goerr.V("id", id))
	}
	return nil
}

// String returns the string representation of TrainingRunID
func (id TrainingRunID) String() string {
	return string(id)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
