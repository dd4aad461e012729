package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Serving errors
	ErrServiceUnavailable = errors.New("model is not loaded")
	ErrBatchTooLarge      = errors.New("too many records in batch")

	// Training errors
	ErrNoTrainingData         = errors.New("no usable training records")
	ErrAccuracyBelowThreshold = errors.New("evaluation accuracy is below the acceptance threshold")
)

// Context keys for error values
const (
	VersionKey  = "version"
	RunIDKey    = "run_id"
	DatasetKey  = "dataset"
	AccuracyKey = "accuracy"
)
