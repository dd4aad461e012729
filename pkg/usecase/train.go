package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
	"github.com/secmon-lab/jobrisk/pkg/ml"
	"github.com/secmon-lab/jobrisk/pkg/service/dataset"
	"github.com/secmon-lab/jobrisk/pkg/utils/errutil"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
)

// TrainConfig holds the training hyperparameters
type TrainConfig struct {
	Seed      uint64
	TestRatio float64
	// MinAccuracy is the evaluation accuracy a model needs to be published. Zero publishes
	// every model.
	MinAccuracy float64
	Fit         ml.FitOptions
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Seed:      ml.DefaultSeed,
		TestRatio: ml.DefaultTestRatio,
		Fit: ml.FitOptions{
			MaxIterations:     ml.DefaultMaxIterations,
			L2:                ml.DefaultL2,
			GradientThreshold: ml.DefaultGradientThreshold,
		},
	}
}

// TrainUseCase fits, evaluates and publishes a model from a labeled dataset
type TrainUseCase struct {
	repo   interfaces.Repository
	store  interfaces.ArtifactStore
	config TrainConfig
	now    func() time.Time
}

func NewTrainUseCase(repo interfaces.Repository, store interfaces.ArtifactStore, cfg TrainConfig, now func() time.Time) *TrainUseCase {
	if now == nil {
		now = time.Now
	}
	return &TrainUseCase{
		repo:   repo,
		store:  store,
		config: cfg,
		now:    now,
	}
}

// TrainInput is one training request
type TrainInput struct {
	// Name identifies the dataset in the training run record
	Name    string
	Dataset *dataset.Dataset
	// DryRun fits and evaluates without publishing or recording the run
	DryRun bool
}

// TrainResult is the outcome of a training run
type TrainResult struct {
	Run        *model.TrainingRun
	Model      *ml.Model
	Fit        *ml.FitReport
	Evaluation *ml.Evaluation
}

// Run executes the pipeline: split, fit the label codec on every label and the encoder on
// the training partition, fit the classifier, evaluate, publish when accepted and record
// the run. A model below MinAccuracy is returned with Run.Accepted false and is not
// published.
func (uc *TrainUseCase) Run(ctx context.Context, input TrainInput) (*TrainResult, error) {
	if input.Dataset == nil || len(input.Dataset.Records) == 0 {
		return nil, goerr.Wrap(ErrNoTrainingData, "cannot train", goerr.V(DatasetKey, input.Name))
	}
	cfg := uc.config
	logger := logging.From(ctx)

	records := input.Dataset.Records
	codec, err := ml.FitLabelCodec(input.Dataset.Labels())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fit label codec", goerr.V(DatasetKey, input.Name))
	}
	if codec.Len() < 2 {
		return nil, goerr.Wrap(ml.ErrTooFewClasses, "dataset has a single risk category",
			goerr.V(DatasetKey, input.Name), goerr.V("classes", codec.Classes()))
	}

	y := make([]int, len(records))
	for i := range records {
		// every label is part of the codec, fitted above on the same slice
		if y[i], err = codec.Encode(records[i].RiskCategory); err != nil {
			return nil, goerr.Wrap(err, "failed to encode label", goerr.V("row", i))
		}
	}

	trainIdx, testIdx, err := ml.StratifiedSplit(y, cfg.TestRatio, cfg.Seed)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to split dataset")
	}

	trainAttrs := make([]model.AttributeRecord, len(trainIdx))
	for i, idx := range trainIdx {
		trainAttrs[i] = records[idx].AttributeRecord
	}
	encoder := ml.FitEncoder(trainAttrs)

	xTrain, yTrain := encodePartition(encoder, records, y, trainIdx)
	xTest, yTest := encodePartition(encoder, records, y, testIdx)

	logger.Info("fitting classifier",
		"dataset", input.Name,
		"train", len(xTrain),
		"eval", len(xTest),
		"dimension", encoder.Dimension(),
		"classes", codec.Classes())

	clf, report, err := ml.FitClassifier(xTrain, yTrain, codec.Len(), cfg.Fit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fit classifier", goerr.V(DatasetKey, input.Name))
	}
	if !report.Converged {
		logger.Warn("optimizer did not converge; weights are usable but may be suboptimal",
			ml.IterationKey, report.Iterations,
			"max_iterations", cfg.Fit.MaxIterations,
			"status", report.Status)
	}

	eval, err := ml.Evaluate(ctx, clf, xTest, yTest)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate classifier")
	}
	if eval.Total == 0 {
		logger.Warn("evaluation partition is empty; accuracy is reported as zero")
	}

	now := uc.now().UTC()
	metrics := model.TrainingMetrics{
		Accuracy:   eval.Accuracy,
		TrainCount: len(xTrain),
		EvalCount:  len(xTest),
		Iterations: report.Iterations,
		Converged:  report.Converged,
	}
	m, err := ml.NewModel(types.NewArtifactVersion(), now, encoder, codec, clf, metrics)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to assemble model")
	}

	run := &model.TrainingRun{
		ID:              types.NewTrainingRunID(),
		ArtifactVersion: m.Version(),
		Dataset:         input.Name,
		Seed:            cfg.Seed,
		Classes:         codec.Classes(),
		DroppedCount:    len(input.Dataset.Dropped),
		Metrics:         metrics,
		MinAccuracy:     cfg.MinAccuracy,
		Accepted:        eval.Accuracy >= cfg.MinAccuracy,
		CreatedAt:       now,
	}
	result := &TrainResult{
		Run:        run,
		Model:      m,
		Fit:        report,
		Evaluation: eval,
	}

	if input.DryRun {
		logger.Info("dry run; model is neither published nor recorded", "accuracy", eval.Accuracy)
		return result, nil
	}

	if run.Accepted {
		if err := uc.store.Save(ctx, m.Bundle()); err != nil {
			return nil, goerr.Wrap(err, "failed to publish artifact", goerr.V(VersionKey, m.Version()))
		}
		run.Published = true
	} else {
		logger.Warn("model rejected",
			"accuracy", eval.Accuracy,
			"min_accuracy", cfg.MinAccuracy)
	}

	if uc.repo != nil {
		if err := uc.repo.TrainingRun().Put(ctx, run); err != nil {
			// Run history is best effort once the artifact is published
			errutil.Handle(ctx, goerr.Wrap(err, "failed to record training run", goerr.V(RunIDKey, run.ID)), "training run not recorded")
		}
	}

	logger.Info("training finished",
		"run_id", run.ID,
		"version", run.ArtifactVersion,
		"accuracy", eval.Accuracy,
		"accepted", run.Accepted,
		"published", run.Published)

	return result, nil
}

func encodePartition(enc *ml.Encoder, records []model.LabeledRecord, y []int, idx []int) ([][]float64, []int) {
	X := make([][]float64, len(idx))
	labels := make([]int, len(idx))
	for i, j := range idx {
		X[i] = enc.Encode(&records[j].AttributeRecord)
		labels[i] = y[j]
	}
	return X, labels
}
