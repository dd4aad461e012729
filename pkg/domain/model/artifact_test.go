package model_test

import (
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

func newValidBundle() *model.ArtifactBundle {
	return &model.ArtifactBundle{
		FormatVersion: model.BundleFormatVersion,
		Version:       types.NewArtifactVersion(),
		CreatedAt:     time.Now(),
		CategoricalColumns: []model.CategorySet{
			{Column: types.ColumnJobTitle, Categories: []string{"Chef", "Nurse"}},
			{Column: types.ColumnEducationLevel, Categories: []string{"PhD"}},
		},
		NumericColumns: types.NumericColumns(),
		Classes:        []string{"High", "Low"},
		Weights: [][]float64{
			{0.1, 0.2, 0.3, 0.4, 0.5},
			{-0.1, -0.2, -0.3, -0.4, -0.5},
		},
		Bias: []float64{0.5, -0.5},
	}
}

func TestArtifactBundle_Validate(t *testing.T) {
	gt.Value(t, newValidBundle().Dimension()).Equal(5)
	gt.NoError(t, newValidBundle().Validate())

	tests := []struct {
		name   string
		mutate func(b *model.ArtifactBundle)
		target error
	}{
		{"format version", func(b *model.ArtifactBundle) { b.FormatVersion = 2 }, model.ErrUnsupportedBundleFormat},
		{"empty version", func(b *model.ArtifactBundle) { b.Version = "" }, model.ErrInvalidBundle},
		{"unsorted classes", func(b *model.ArtifactBundle) { b.Classes = []string{"Low", "High"} }, model.ErrInvalidBundle},
		{"single class", func(b *model.ArtifactBundle) {
			b.Classes = []string{"Low"}
			b.Weights = b.Weights[:1]
			b.Bias = b.Bias[:1]
		}, model.ErrInvalidBundle},
		{"short weight row", func(b *model.ArtifactBundle) { b.Weights[1] = b.Weights[1][:4] }, model.ErrInvalidBundle},
		{"missing bias", func(b *model.ArtifactBundle) { b.Bias = b.Bias[:1] }, model.ErrInvalidBundle},
		{"nan weight", func(b *model.ArtifactBundle) { b.Weights[0][0] = math.NaN() }, model.ErrInvalidBundle},
		{"duplicate category", func(b *model.ArtifactBundle) {
			b.CategoricalColumns[0].Categories = []string{"Chef", "Chef"}
		}, model.ErrInvalidBundle},
		{"unknown column", func(b *model.ArtifactBundle) {
			b.CategoricalColumns[1].Column = "country"
		}, model.ErrInvalidBundle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newValidBundle()
			tt.mutate(b)
			gt.Error(t, b.Validate()).Is(tt.target)
		})
	}
}
