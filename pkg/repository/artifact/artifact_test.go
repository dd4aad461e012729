package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"github.com/secmon-lab/jobrisk/pkg/repository/artifact"
)

func newBundle() *model.ArtifactBundle {
	return &model.ArtifactBundle{
		FormatVersion: model.BundleFormatVersion,
		Version:       types.NewArtifactVersion(),
		CreatedAt:     time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		CategoricalColumns: []model.CategorySet{
			{Column: types.ColumnJobTitle, Categories: []string{"Cashier", "Nurse"}},
			{Column: types.ColumnEducationLevel, Categories: []string{"Bachelor's"}},
		},
		NumericColumns: types.NumericColumns(),
		Classes:        []string{"High", "Low"},
		Weights: [][]float64{
			{0.5, -0.25, 0.125, 0.001, -0.00002},
			{-0.5, 0.25, -0.125, -0.001, 0.00002},
		},
		Bias: []float64{0.1, -0.1},
		Metrics: model.TrainingMetrics{
			Accuracy:   0.9,
			TrainCount: 8,
			EvalCount:  2,
			Iterations: 12,
			Converged:  true,
		},
	}
}

func runArtifactStoreTest(t *testing.T, newStore func(t *testing.T) interfaces.ArtifactStore) {
	t.Helper()

	t.Run("Load before Save returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Load(ctx)
		gt.Error(t, err).Is(model.ErrNotFound)
		_, err = store.Version(ctx)
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("Save then Load round trip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		bundle := newBundle()
		gt.NoError(t, store.Save(ctx, bundle)).Required()

		loaded, err := store.Load(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, loaded.Version).Equal(bundle.Version)
		gt.Bool(t, loaded.CreatedAt.Equal(bundle.CreatedAt)).True()
		gt.Value(t, loaded.CategoricalColumns).Equal(bundle.CategoricalColumns)
		gt.Value(t, loaded.NumericColumns).Equal(bundle.NumericColumns)
		gt.Value(t, loaded.Classes).Equal(bundle.Classes)
		gt.Value(t, loaded.Weights).Equal(bundle.Weights)
		gt.Value(t, loaded.Bias).Equal(bundle.Bias)
		gt.Value(t, loaded.Metrics).Equal(bundle.Metrics)

		version, err := store.Version(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, version).Equal(bundle.Version)
	})

	t.Run("Save replaces previous bundle", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first := newBundle()
		second := newBundle()
		gt.NoError(t, store.Save(ctx, first)).Required()
		gt.NoError(t, store.Save(ctx, second)).Required()

		version, err := store.Version(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, version).Equal(second.Version)
	})

	t.Run("Save rejects invalid bundle and keeps previous", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		valid := newBundle()
		gt.NoError(t, store.Save(ctx, valid)).Required()

		broken := newBundle()
		broken.Bias = broken.Bias[:1]
		gt.Error(t, store.Save(ctx, broken)).Is(model.ErrInvalidBundle)

		version, err := store.Version(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, version).Equal(valid.Version)
	})
}

func TestMemoryStore(t *testing.T) {
	runArtifactStoreTest(t, func(t *testing.T) interfaces.ArtifactStore {
		return artifact.NewMemoryStore()
	})
}

func TestFileStore(t *testing.T) {
	runArtifactStoreTest(t, func(t *testing.T) interfaces.ArtifactStore {
		store, err := artifact.NewFileStore(filepath.Join(t.TempDir(), "models", "bundle.json"))
		gt.NoError(t, err).Required()
		return store
	})
}

func TestFileStore_NoTemporaryFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.NewFileStore(filepath.Join(dir, "bundle.json"))
	gt.NoError(t, err).Required()

	ctx := context.Background()
	gt.NoError(t, store.Save(ctx, newBundle())).Required()

	broken := newBundle()
	broken.Classes = []string{"Low", "High"}
	gt.Error(t, store.Save(ctx, broken))

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(1).Required()
	gt.Value(t, entries[0].Name()).Equal("bundle.json")
}

func TestFileStore_RejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	gt.NoError(t, os.WriteFile(path, []byte(`{"format_version": 99, "version": "x"}`), 0o600)).Required()

	store, err := artifact.NewFileStore(path)
	gt.NoError(t, err).Required()

	_, err = store.Load(context.Background())
	gt.Error(t, err).Is(model.ErrUnsupportedBundleFormat)
}

func TestFileStore_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	gt.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600)).Required()

	store, err := artifact.NewFileStore(path)
	gt.NoError(t, err).Required()

	_, err = store.Load(context.Background())
	gt.Error(t, err).Is(model.ErrInvalidBundle)
}

func TestGCSStore(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET not set")
	}

	runArtifactStoreTest(t, func(t *testing.T) interfaces.ArtifactStore {
		object := "test/" + types.NewArtifactVersion().String() + ".json"
		store, err := artifact.NewGCSStore(context.Background(), bucket, object)
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			gt.NoError(t, store.Close())
		})
		return store
	})
}
