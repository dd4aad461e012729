package usecase

import (
	"time"

	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
)

type UseCases struct {
	repo        interfaces.Repository
	store       interfaces.ArtifactStore
	trainConfig TrainConfig
	maxBatch    int
	now         func() time.Time
	Train       *TrainUseCase
	Predict     *PredictUseCase
}

type Option func(*UseCases)

func WithTrainConfig(cfg TrainConfig) Option {
	return func(uc *UseCases) {
		uc.trainConfig = cfg
	}
}

// WithMaxBatchSize bounds the number of records of one batch prediction
func WithMaxBatchSize(n int) Option {
	return func(uc *UseCases) {
		uc.maxBatch = n
	}
}

// WithClock replaces time.Now for run timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, store interfaces.ArtifactStore, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:        repo,
		store:       store,
		trainConfig: DefaultTrainConfig(),
		maxBatch:    DefaultMaxBatchSize,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Train = NewTrainUseCase(repo, store, uc.trainConfig, uc.now)
	uc.Predict = NewPredictUseCase(store, uc.maxBatch)

	return uc
}
