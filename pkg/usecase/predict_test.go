package usecase_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"github.com/secmon-lab/jobrisk/pkg/repository/artifact"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
)

func probabilitySum(p []float64) float64 {
	var s float64
	for _, v := range p {
		s += v
	}
	return s
}

func TestPredict_Uninitialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gt.Bool(t, f.uc.Predict.Ready()).False()

	r := model.AttributeRecord{JobTitle: "Cashier", EducationLevel: "High School", YearsExperience: 1, AverageSalary: 20}
	_, err := f.uc.Predict.Predict(ctx, &r)
	gt.Error(t, err).Is(usecase.ErrServiceUnavailable)

	_, err = f.uc.Predict.PredictBatch(ctx, []model.AttributeRecord{r})
	gt.Error(t, err).Is(usecase.ErrServiceUnavailable)

	_, err = f.uc.Predict.Info()
	gt.Error(t, err).Is(usecase.ErrServiceUnavailable)

	// nothing published yet
	gt.Error(t, f.uc.Predict.Load(ctx)).Is(model.ErrNotFound)
	gt.Bool(t, f.uc.Predict.Ready()).False()
}

func TestPredict_Ready(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trained := f.train(t)

	gt.NoError(t, f.uc.Predict.Load(ctx)).Required()
	gt.Bool(t, f.uc.Predict.Ready()).True()

	t.Run("known job", func(t *testing.T) {
		r := model.AttributeRecord{JobTitle: "Cashier", EducationLevel: "High School", YearsExperience: 3, AverageSalary: 24}
		result, err := f.uc.Predict.Predict(ctx, &r)
		gt.NoError(t, err).Required()
		gt.Value(t, result.ClassLabel).Equal("High")
		gt.Value(t, result.Prediction).Equal(0)
		gt.Array(t, result.ClassNames).Equal([]string{"High", "Low", "Medium"})
		gt.Bool(t, math.Abs(probabilitySum(result.Probabilities)-1) < 1e-6).True()
		gt.Value(t, result.Version).Equal(trained.Run.ArtifactVersion)
	})

	t.Run("unknown job title", func(t *testing.T) {
		r := model.AttributeRecord{JobTitle: "Game Designer", EducationLevel: "Bachelor's", YearsExperience: 0, AverageSalary: 20000}
		result, err := f.uc.Predict.Predict(ctx, &r)
		gt.NoError(t, err).Required()
		gt.Array(t, result.ClassNames).Length(3)
		gt.Array(t, result.Probabilities).Length(3)
		gt.Bool(t, math.Abs(probabilitySum(result.Probabilities)-1) < 1e-6).True()
	})

	t.Run("invalid input yields no result", func(t *testing.T) {
		r := model.AttributeRecord{JobTitle: "Cashier", EducationLevel: " ", YearsExperience: 1, AverageSalary: -5}
		result, err := f.uc.Predict.Predict(ctx, &r)
		gt.Error(t, err).Is(model.ErrInvalidInput)
		gt.Value(t, result).Nil()

		var ie *model.InputError
		gt.Bool(t, errors.As(err, &ie)).True()
		gt.Array(t, ie.Missing).Equal([]string{"education_level"})
		gt.Array(t, ie.Invalid).Equal([]string{"average_salary"})
	})

	t.Run("info", func(t *testing.T) {
		info, err := f.uc.Predict.Info()
		gt.NoError(t, err).Required()
		gt.Value(t, info.Version).Equal(trained.Run.ArtifactVersion)
		gt.Array(t, info.ClassNames).Equal([]string{"High", "Low", "Medium"})
		gt.Array(t, info.Categories["job_title"]).Length(6)
		gt.Array(t, info.Categories["education_level"]).Equal([]string{"Associate", "Bachelor's", "High School", "PhD"})
		gt.Array(t, info.NumericColumns).Equal([]string{"years_experience", "average_salary"})
		gt.Value(t, info.Metrics).Equal(trained.Run.Metrics)
	})
}

func TestPredict_Batch(t *testing.T) {
	f := newFixture(t, usecase.WithMaxBatchSize(3))
	ctx := context.Background()
	f.train(t)
	gt.NoError(t, f.uc.Predict.Load(ctx)).Required()

	records := []model.AttributeRecord{
		{JobTitle: "Cashier", EducationLevel: "High School", YearsExperience: 1, AverageSalary: 21},
		{JobTitle: "Psychologist", EducationLevel: "PhD", YearsExperience: 9, AverageSalary: 99},
		{JobTitle: "Accountant", EducationLevel: "Bachelor's", YearsExperience: 4, AverageSalary: 60},
	}

	results, err := f.uc.Predict.PredictBatch(ctx, records)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(3).Required()
	for i := range records {
		single, err := f.uc.Predict.Predict(ctx, &records[i])
		gt.NoError(t, err).Required()
		gt.Value(t, results[i]).Equal(single)
	}

	t.Run("invalid record is reported with its index", func(t *testing.T) {
		bad := []model.AttributeRecord{records[0], {JobTitle: "Nurse"}}
		_, err := f.uc.Predict.PredictBatch(ctx, bad)
		gt.Error(t, err).Is(model.ErrInvalidInput)

		var re *model.RecordError
		gt.Bool(t, errors.As(err, &re)).True()
		gt.Value(t, re.Index).Equal(1)
	})

	t.Run("too many records", func(t *testing.T) {
		_, err := f.uc.Predict.PredictBatch(ctx, append(records, records[0]))
		gt.Error(t, err).Is(usecase.ErrBatchTooLarge)
	})

	t.Run("empty batch", func(t *testing.T) {
		results, err := f.uc.Predict.PredictBatch(ctx, nil)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(0)
	})
}

func TestPredict_Reload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.train(t)
	changed, err := f.uc.Predict.Reload(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, changed).True()

	changed, err = f.uc.Predict.Reload(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, changed).False()

	second := f.train(t)
	gt.Value(t, second.Run.ArtifactVersion).NotEqual(first.Run.ArtifactVersion)

	changed, err = f.uc.Predict.Reload(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, changed).True()

	info, err := f.uc.Predict.Info()
	gt.NoError(t, err).Required()
	gt.Value(t, info.Version).Equal(second.Run.ArtifactVersion)
}

// flakyStore announces a new version it cannot load once broken is set
type flakyStore struct {
	*artifact.MemoryStore
	broken bool
}

func (s *flakyStore) Version(ctx context.Context) (types.ArtifactVersion, error) {
	if s.broken {
		return types.NewArtifactVersion(), nil
	}
	return s.MemoryStore.Version(ctx)
}

func (s *flakyStore) Load(ctx context.Context) (*model.ArtifactBundle, error) {
	if s.broken {
		return nil, errors.New("connection reset")
	}
	return s.MemoryStore.Load(ctx)
}

func TestPredict_ReloadFailureKeepsCurrentModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trained := f.train(t)

	store := &flakyStore{MemoryStore: f.store}
	uc := usecase.NewPredictUseCase(store, 0)
	gt.NoError(t, uc.Load(ctx)).Required()

	store.broken = true
	changed, err := uc.Reload(ctx)
	gt.Error(t, err)
	gt.Bool(t, changed).False()

	gt.Bool(t, uc.Ready()).True()
	m, err := uc.Model()
	gt.NoError(t, err).Required()
	gt.Value(t, m.Version()).Equal(trained.Run.ArtifactVersion)
}

func TestPredict_ConcurrentReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.train(t)
	gt.NoError(t, f.uc.Predict.Load(ctx)).Required()

	r := model.AttributeRecord{JobTitle: "Nurse", EducationLevel: "Bachelor's", YearsExperience: 5, AverageSalary: 75}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				result, err := f.uc.Predict.Predict(ctx, &r)
				if err != nil {
					errs <- err
					return
				}
				if len(result.Probabilities) != len(result.ClassNames) {
					errs <- errors.New("probabilities and class names are not aligned")
					return
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.uc.Predict.Load(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		gt.NoError(t, err)
	}
}

// slowStore blocks its first Load after reading the bundle until release is closed
type slowStore struct {
	*artifact.MemoryStore
	once    sync.Once
	reading chan struct{}
	release chan struct{}
}

func (s *slowStore) Load(ctx context.Context) (*model.ArtifactBundle, error) {
	bundle, err := s.MemoryStore.Load(ctx)
	s.once.Do(func() {
		close(s.reading)
		<-s.release
	})
	return bundle, err
}

func TestPredict_SlowReloadDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.train(t)

	store := &slowStore{
		MemoryStore: f.store,
		reading:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	uc := usecase.NewPredictUseCase(store, 0)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := uc.Reload(ctx); err != nil {
			errs <- err
		}
	}()
	<-store.reading

	newer := f.train(t)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := uc.Reload(ctx); err != nil {
			errs <- err
		}
	}()
	close(store.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		gt.NoError(t, err)
	}

	m, err := uc.Model()
	gt.NoError(t, err).Required()
	gt.Value(t, m.Version()).Equal(newer.Run.ArtifactVersion)
}
