package ml

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// Model bundles the encoder, label codec and classifier produced by one training run.
// It is immutable and safe for concurrent use.
type Model struct {
	version    types.ArtifactVersion
	createdAt  time.Time
	encoder    *Encoder
	codec      *LabelCodec
	classifier *Classifier
	metrics    model.TrainingMetrics
}

// NewModel checks that the three components agree on dimensions and class count
func NewModel(version types.ArtifactVersion, createdAt time.Time, enc *Encoder, codec *LabelCodec, clf *Classifier, metrics model.TrainingMetrics) (*Model, error) {
	if enc.Dimension() != clf.Dimension() {
		return nil, goerr.Wrap(ErrDimensionMismatch, "encoder and classifier disagree on dimension",
			goerr.V("encoder", enc.Dimension()), goerr.V("classifier", clf.Dimension()))
	}
	if codec.Len() != clf.Classes() {
		return nil, goerr.Wrap(ErrDimensionMismatch, "codec and classifier disagree on class count",
			goerr.V("codec", codec.Len()), goerr.V("classifier", clf.Classes()))
	}

	return &Model{
		version:    version,
		createdAt:  createdAt,
		encoder:    enc,
		codec:      codec,
		classifier: clf,
		metrics:    metrics,
	}, nil
}

// FromBundle restores a model from a persisted bundle. The encoder layout is taken verbatim
// from the bundle.
func FromBundle(b *model.ArtifactBundle) (*Model, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	enc, err := NewEncoder(b.CategoricalColumns, b.NumericColumns)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to restore encoder", goerr.V(model.VersionKey, b.Version))
	}
	codec, err := NewLabelCodec(b.Classes)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to restore label codec", goerr.V(model.VersionKey, b.Version))
	}
	clf, err := NewClassifier(b.Weights, b.Bias)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to restore classifier", goerr.V(model.VersionKey, b.Version))
	}

	return NewModel(b.Version, b.CreatedAt, enc, codec, clf, b.Metrics)
}

// Bundle exports the model for persistence
func (m *Model) Bundle() *model.ArtifactBundle {
	return &model.ArtifactBundle{
		FormatVersion:      model.BundleFormatVersion,
		Version:            m.version,
		CreatedAt:          m.createdAt,
		CategoricalColumns: m.encoder.CategorySets(),
		NumericColumns:     m.encoder.NumericColumns(),
		Classes:            m.codec.Classes(),
		Weights:            m.classifier.Weights(),
		Bias:               m.classifier.Bias(),
		Metrics:            m.metrics,
	}
}

// Predict encodes r, classifies it and decodes the winning class.
// r is expected to be validated by the caller.
func (m *Model) Predict(r *model.AttributeRecord) (*model.PredictionResult, error) {
	x := m.encoder.Encode(r)

	probs, err := m.classifier.PredictProba(x)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compute probabilities", goerr.V(model.VersionKey, m.version))
	}
	idx := Argmax(probs)

	label, err := m.codec.Decode(idx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode prediction", goerr.V(model.VersionKey, m.version))
	}

	return &model.PredictionResult{
		Prediction:    idx,
		ClassLabel:    label,
		Probabilities: probs,
		ClassNames:    m.codec.Classes(),
		Version:       m.version,
	}, nil
}

func (m *Model) Version() types.ArtifactVersion {
	return m.version
}

func (m *Model) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Model) Metrics() model.TrainingMetrics {
	return m.metrics
}

func (m *Model) Encoder() *Encoder {
	return m.encoder
}

func (m *Model) Codec() *LabelCodec {
	return m.codec
}

func (m *Model) Classifier() *Classifier {
	return m.classifier
}
