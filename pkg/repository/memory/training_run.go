package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

type trainingRunRepository struct {
	mu   sync.RWMutex
	runs map[types.TrainingRunID]*model.TrainingRun
}

func newTrainingRunRepository() *trainingRunRepository {
	return &trainingRunRepository{
		runs: make(map[types.TrainingRunID]*model.TrainingRun),
	}
}

func copyTrainingRun(run *model.TrainingRun) *model.TrainingRun {
	copied := *run
	copied.Classes = slices.Clone(run.Classes)
	return &copied
}

func (r *trainingRunRepository) Put(ctx context.Context, run *model.TrainingRun) error {
	if err := run.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid training run ID", goerr.V("id", run.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = copyTrainingRun(run)
	return nil
}

func (r *trainingRunRepository) Get(ctx context.Context, id types.TrainingRunID) (*model.TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "training run not found", goerr.V("id", id))
	}

	return copyTrainingRun(run), nil
}

func (r *trainingRunRepository) List(ctx context.Context, opts model.ListTrainingRunOptions) ([]*model.TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*model.TrainingRun, 0, len(r.runs))
	for _, run := range r.runs {
		if opts.AcceptedOnly && !run.Accepted {
			continue
		}
		runs = append(runs, copyTrainingRun(run))
	}

	// Sort by CreatedAt descending; ID breaks ties so listing is stable
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if opts.Limit > 0 && len(runs) > opts.Limit {
		runs = runs[:opts.Limit]
	}

	return runs, nil
}
