package interfaces

import (
	"context"

	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	TrainingRun() TrainingRunRepository
	Close() error
}

// TrainingRunRepository stores the history of training pipeline executions
type TrainingRunRepository interface {
	Put(ctx context.Context, run *model.TrainingRun) error
	Get(ctx context.Context, id types.TrainingRunID) (*model.TrainingRun, error)
	// List returns runs ordered by CreatedAt descending
	List(ctx context.Context, opts model.ListTrainingRunOptions) ([]*model.TrainingRun, error)
}
