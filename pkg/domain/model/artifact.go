package model

import (
	"math"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// BundleFormatVersion is the layout version written into every bundle.
// Bundles are produced and consumed by the same release; other versions are rejected.
const BundleFormatVersion = 1

// ArtifactBundle is the persisted output of one training run.
// It is read-only once loaded.
type ArtifactBundle struct {
	FormatVersion      int                   `json:"format_version"`
	Version            types.ArtifactVersion `json:"version"`
	CreatedAt          time.Time             `json:"created_at"`
	CategoricalColumns []CategorySet         `json:"categorical_columns"`
	NumericColumns     []types.NumericColumn `json:"numeric_columns"`
	Classes            []string              `json:"classes"`
	Weights            [][]float64           `json:"weights"`
	Bias               []float64             `json:"bias"`
	Metrics            TrainingMetrics       `json:"metrics"`
}

// CategorySet is the ordered list of values seen for one categorical column during training
type CategorySet struct {
	Column     types.CategoricalColumn `json:"column"`
	Categories []string                `json:"categories"`
}

// TrainingMetrics summarizes how the bundle was fitted
type TrainingMetrics struct {
	Accuracy   float64 `json:"accuracy" firestore:"accuracy"`
	TrainCount int     `json:"train_count" firestore:"train_count"`
	EvalCount  int     `json:"eval_count" firestore:"eval_count"`
	Iterations int     `json:"iterations" firestore:"iterations"`
	Converged  bool    `json:"converged" firestore:"converged"`
}

// Dimension returns the encoded vector length implied by the bundle's column layout
func (b *ArtifactBundle) Dimension() int {
	d := len(b.NumericColumns)
	for _, cs := range b.CategoricalColumns {
		d += len(cs.Categories)
	}
	return d
}

// Validate checks the structural consistency of the bundle
func (b *ArtifactBundle) Validate() error {
	if b.FormatVersion != BundleFormatVersion {
		return goerr.Wrap(ErrUnsupportedBundleFormat, "bundle format mismatch",
			goerr.V(FormatVersionKey, b.FormatVersion),
			goerr.V("expected", BundleFormatVersion))
	}
	if err := b.Version.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidBundle, "invalid bundle version", goerr.V(VersionKey, b.Version), goerr.V("cause", err.Error()))
	}

	seenCols := make(map[types.CategoricalColumn]bool)
	for _, cs := range b.CategoricalColumns {
		if !cs.Column.IsValid() {
			return goerr.Wrap(ErrInvalidBundle, "unknown categorical column", goerr.V(FieldKey, cs.Column))
		}
		if seenCols[cs.Column] {
			return goerr.Wrap(ErrInvalidBundle, "duplicate categorical column", goerr.V(FieldKey, cs.Column))
		}
		seenCols[cs.Column] = true
		if hasDuplicate(cs.Categories) {
			return goerr.Wrap(ErrInvalidBundle, "duplicate category", goerr.V(FieldKey, cs.Column))
		}
	}
	seenNum := make(map[types.NumericColumn]bool)
	for _, col := range b.NumericColumns {
		if !col.IsValid() || seenNum[col] {
			return goerr.Wrap(ErrInvalidBundle, "invalid numeric column", goerr.V(FieldKey, col))
		}
		seenNum[col] = true
	}

	k := len(b.Classes)
	if k < 2 {
		return goerr.Wrap(ErrInvalidBundle, "bundle needs at least two classes", goerr.V("classes", k))
	}
	if !slices.IsSorted(b.Classes) || hasDuplicate(b.Classes) {
		return goerr.Wrap(ErrInvalidBundle, "classes must be unique and sorted", goerr.V("classes", b.Classes))
	}
	if len(b.Weights) != k || len(b.Bias) != k {
		return goerr.Wrap(ErrInvalidBundle, "weight shape does not match classes",
			goerr.V("classes", k), goerr.V("weight_rows", len(b.Weights)), goerr.V("bias", len(b.Bias)))
	}

	d := b.Dimension()
	for j, row := range b.Weights {
		if len(row) != d {
			return goerr.Wrap(ErrInvalidBundle, "weight row does not match encoded dimension",
				goerr.V("row", j), goerr.V("len", len(row)), goerr.V("dimension", d))
		}
		if !allFinite(row) {
			return goerr.Wrap(ErrInvalidBundle, "weight row contains non-finite values", goerr.V("row", j))
		}
	}
	if !allFinite(b.Bias) {
		return goerr.Wrap(ErrInvalidBundle, "bias contains non-finite values")
	}
	return nil
}

func hasDuplicate(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
