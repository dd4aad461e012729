package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

func TestAttributeRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  model.AttributeRecord
		missing []string
		invalid []string
	}{
		{
			name:   "valid",
			record: model.AttributeRecord{JobTitle: "Nurse", EducationLevel: "Bachelor's", YearsExperience: 0, AverageSalary: 20000},
		},
		{
			name:    "blank strings",
			record:  model.AttributeRecord{JobTitle: "", EducationLevel: " ", YearsExperience: 1, AverageSalary: 1},
			missing: []string{"job_title", "education_level"},
		},
		{
			name:    "infinite and negative",
			record:  model.AttributeRecord{JobTitle: "Nurse", EducationLevel: "PhD", YearsExperience: math.Inf(1), AverageSalary: -5},
			invalid: []string{"years_experience", "average_salary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.missing == nil && tt.invalid == nil {
				gt.NoError(t, err)
				return
			}

			var ie *model.InputError
			gt.Bool(t, errors.As(err, &ie)).True()
			if tt.missing != nil {
				gt.Array(t, ie.Missing).Equal(tt.missing)
			}
			if tt.invalid != nil {
				gt.Array(t, ie.Invalid).Equal(tt.invalid)
			}
		})
	}
}

func TestLabeledRecord_Validate(t *testing.T) {
	record := model.LabeledRecord{
		AttributeRecord: model.AttributeRecord{JobTitle: "Nurse", EducationLevel: "PhD", YearsExperience: 3, AverageSalary: 50000},
	}

	err := record.Validate()
	gt.Error(t, err).Is(model.ErrInvalidInput)

	var ie *model.InputError
	gt.Bool(t, errors.As(err, &ie)).True()
	gt.Array(t, ie.Missing).Equal([]string{"risk_category"})

	record.RiskCategory = "Low"
	gt.NoError(t, record.Validate())
}

func TestAttributeRecord_Accessors(t *testing.T) {
	record := model.AttributeRecord{JobTitle: "Nurse", EducationLevel: "PhD", YearsExperience: 3, AverageSalary: 50000}

	gt.Value(t, record.Categorical(types.ColumnJobTitle)).Equal("Nurse")
	gt.Value(t, record.Categorical(types.ColumnEducationLevel)).Equal("PhD")
	gt.Value(t, record.Numeric(types.ColumnYearsExperience)).Equal(3.0)
	gt.Value(t, record.Numeric(types.ColumnAverageSalary)).Equal(50000.0)
}
