package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

func TestArtifactVersion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		version types.ArtifactVersion
		wantErr bool
	}{
		{"generated", types.NewArtifactVersion(), false},
		{"uuid v4", "7f0c1d8e-3f6b-4c1a-9a53-2f1d5f4b8a10", false},
		{"empty", "", true},
		{"not uuid", "v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.version.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ArtifactVersion.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrainingRunID_Validate(t *testing.T) {
	gt.NoError(t, types.NewTrainingRunID().Validate())
	gt.Error(t, types.TrainingRunID("").Validate())
	gt.Error(t, types.TrainingRunID("run-1").Validate())
}

func TestNewIDsAreDistinct(t *testing.T) {
	gt.Value(t, types.NewArtifactVersion()).NotEqual(types.NewArtifactVersion())
	gt.Value(t, types.NewTrainingRunID()).NotEqual(types.NewTrainingRunID())
}

func TestColumns(t *testing.T) {
	gt.Array(t, types.CategoricalColumns()).Equal([]types.CategoricalColumn{
		types.ColumnJobTitle,
		types.ColumnEducationLevel,
	})
	gt.Array(t, types.NumericColumns()).Equal([]types.NumericColumn{
		types.ColumnYearsExperience,
		types.ColumnAverageSalary,
	})

	for _, c := range types.CategoricalColumns() {
		gt.Bool(t, c.IsValid()).True()
	}
	for _, c := range types.NumericColumns() {
		gt.Bool(t, c.IsValid()).True()
	}
	gt.Bool(t, types.CategoricalColumn("salary").IsValid()).False()
	gt.Bool(t, types.NumericColumn("job_title").IsValid()).False()
}
