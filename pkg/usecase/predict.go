package usecase

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"github.com/secmon-lab/jobrisk/pkg/ml"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const DefaultMaxBatchSize = 1000

// PredictUseCase serves predictions from the currently published model.
//
// Until the first successful Load every call returns ErrServiceUnavailable. After that the
// model is held behind an atomic pointer: Reload swaps it in one step, and a request that
// already took a snapshot finishes against that version.
type PredictUseCase struct {
	store    interfaces.ArtifactStore
	maxBatch int
	current  atomic.Pointer[ml.Model]

	// held from the version check to the swap
	loadMu sync.Mutex
}

func NewPredictUseCase(store interfaces.ArtifactStore, maxBatch int) *PredictUseCase {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}
	return &PredictUseCase{
		store:    store,
		maxBatch: maxBatch,
	}
}

// Load reads the published bundle and makes it current regardless of its version
func (uc *PredictUseCase) Load(ctx context.Context) error {
	uc.loadMu.Lock()
	defer uc.loadMu.Unlock()
	return uc.load(ctx)
}

func (uc *PredictUseCase) load(ctx context.Context) error {
	bundle, err := uc.store.Load(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to load artifact")
	}

	m, err := ml.FromBundle(bundle)
	if err != nil {
		return goerr.Wrap(err, "failed to restore model", goerr.V(VersionKey, bundle.Version))
	}

	prev := uc.current.Swap(m)
	attrs := []any{
		"version", m.Version(),
		"classes", m.Codec().Classes(),
		"dimension", m.Encoder().Dimension(),
		"accuracy", m.Metrics().Accuracy,
	}
	if prev != nil {
		attrs = append(attrs, "previous_version", prev.Version())
	}
	logging.From(ctx).Info("model loaded", attrs...)
	return nil
}

// Reload loads the published bundle only when its version differs from the current model.
// On failure the current model, if any, stays in service.
func (uc *PredictUseCase) Reload(ctx context.Context) (bool, error) {
	uc.loadMu.Lock()
	defer uc.loadMu.Unlock()

	version, err := uc.store.Version(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check artifact version")
	}

	if m := uc.current.Load(); m != nil && m.Version() == version {
		return false, nil
	}

	if err := uc.load(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Ready reports whether a model is loaded
func (uc *PredictUseCase) Ready() bool {
	return uc.current.Load() != nil
}

// Model returns the current model
func (uc *PredictUseCase) Model() (*ml.Model, error) {
	m := uc.current.Load()
	if m == nil {
		return nil, goerr.Wrap(ErrServiceUnavailable, "no model has been loaded")
	}
	return m, nil
}

// Predict validates record and classifies it with the current model
func (uc *PredictUseCase) Predict(ctx context.Context, record *model.AttributeRecord) (*model.PredictionResult, error) {
	m, err := uc.Model()
	if err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	result, err := m.Predict(record)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to predict", goerr.V(VersionKey, m.Version()))
	}

	logging.From(ctx).Debug("prediction",
		"version", m.Version(),
		"class_label", result.ClassLabel,
		"unknown_job_title", !m.Encoder().Known(types.ColumnJobTitle, record.JobTitle))
	return result, nil
}

// PredictBatch classifies every record against one snapshot of the model.
// All records are validated first; the first invalid one is reported as a
// *model.RecordError and nothing is predicted.
func (uc *PredictUseCase) PredictBatch(ctx context.Context, records []model.AttributeRecord) ([]*model.PredictionResult, error) {
	m, err := uc.Model()
	if err != nil {
		return nil, err
	}
	if len(records) > uc.maxBatch {
		return nil, goerr.Wrap(ErrBatchTooLarge, "cannot predict batch",
			goerr.V("records", len(records)), goerr.V("max", uc.maxBatch))
	}

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, &model.RecordError{Index: i, Err: err}
		}
	}

	results := make([]*model.PredictionResult, len(records))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := range records {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := m.Predict(&records[i])
			if err != nil {
				return goerr.Wrap(err, "failed to predict batch record", goerr.V("index", i))
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Info describes the current model
func (uc *PredictUseCase) Info() (*model.ModelInfo, error) {
	m, err := uc.Model()
	if err != nil {
		return nil, err
	}

	enc := m.Encoder()
	categories := make(map[string][]string)
	for _, cs := range enc.CategorySets() {
		categories[cs.Column.String()] = cs.Categories
	}
	var numeric []string
	for _, col := range enc.NumericColumns() {
		numeric = append(numeric, col.String())
	}

	return &model.ModelInfo{
		Version:        m.Version(),
		CreatedAt:      m.CreatedAt(),
		ClassNames:     m.Codec().Classes(),
		Categories:     categories,
		NumericColumns: numeric,
		Metrics:        m.Metrics(),
	}, nil
}
