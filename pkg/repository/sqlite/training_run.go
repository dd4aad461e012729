package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

const trainingRunColumns = `id, artifact_version, dataset, seed, classes, dropped_count,
	accuracy, train_count, eval_count, iterations, converged,
	min_accuracy, accepted, published, created_at`

type trainingRunRepository struct {
	db *sql.DB
}

func newTrainingRunRepository(db *sql.DB) *trainingRunRepository {
	return &trainingRunRepository{db: db}
}

func (r *trainingRunRepository) Put(ctx context.Context, run *model.TrainingRun) error {
	if err := run.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid training run ID", goerr.V("id", run.ID))
	}

	classes, err := json.Marshal(run.Classes)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal classes", goerr.V("id", run.ID))
	}

	_, err = r.db.ExecContext(ctx, `INSERT OR REPLACE INTO training_runs (`+trainingRunColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(),
		run.ArtifactVersion.String(),
		run.Dataset,
		int64(run.Seed),
		string(classes),
		run.DroppedCount,
		run.Metrics.Accuracy,
		run.Metrics.TrainCount,
		run.Metrics.EvalCount,
		run.Metrics.Iterations,
		run.Metrics.Converged,
		run.MinAccuracy,
		run.Accepted,
		run.Published,
		run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to save training run", goerr.V("id", run.ID))
	}
	return nil
}

func (r *trainingRunRepository) Get(ctx context.Context, id types.TrainingRunID) (*model.TrainingRun, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trainingRunColumns+` FROM training_runs WHERE id = ?`, id.String())

	run, err := scanTrainingRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(model.ErrNotFound, "training run not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get training run", goerr.V("id", id))
	}
	return run, nil
}

func (r *trainingRunRepository) List(ctx context.Context, opts model.ListTrainingRunOptions) ([]*model.TrainingRun, error) {
	query := `SELECT ` + trainingRunColumns + ` FROM training_runs`
	var args []any
	if opts.AcceptedOnly {
		query += ` WHERE accepted = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query training runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []*model.TrainingRun
	for rows.Next() {
		run, err := scanTrainingRun(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan training run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate training runs")
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrainingRun(s scanner) (*model.TrainingRun, error) {
	var (
		id, version, dataset, classes string
		seed, createdAt               int64
		run                           model.TrainingRun
	)
	if err := s.Scan(
		&id,
		&version,
		&dataset,
		&seed,
		&classes,
		&run.DroppedCount,
		&run.Metrics.Accuracy,
		&run.Metrics.TrainCount,
		&run.Metrics.EvalCount,
		&run.Metrics.Iterations,
		&run.Metrics.Converged,
		&run.MinAccuracy,
		&run.Accepted,
		&run.Published,
		&createdAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(classes), &run.Classes); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal classes", goerr.V("id", id))
	}
	run.ID = types.TrainingRunID(id)
	run.ArtifactVersion = types.ArtifactVersion(version)
	run.Dataset = dataset
	run.Seed = uint64(seed)
	run.CreatedAt = time.Unix(0, createdAt).UTC()

	return &run, nil
}
