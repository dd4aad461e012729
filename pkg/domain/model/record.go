package model

import (
	"math"
	"strings"

	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// AttributeRecord is the set of job attributes a prediction is made from.
// Field order is fixed and mirrors types.CategoricalColumns and types.NumericColumns.
type AttributeRecord struct {
	JobTitle        string  `json:"job_title" yaml:"job_title"`
	EducationLevel  string  `json:"education_level" yaml:"education_level"`
	YearsExperience float64 `json:"years_experience" yaml:"years_experience"`
	AverageSalary   float64 `json:"average_salary" yaml:"average_salary"`
}

// LabeledRecord is a historical AttributeRecord with its known risk category
type LabeledRecord struct {
	AttributeRecord
	RiskCategory string `json:"risk_category"`
}

// Categorical returns the value of a categorical column
func (r *AttributeRecord) Categorical(col types.CategoricalColumn) string {
	switch col {
	case types.ColumnJobTitle:
		return r.JobTitle
	case types.ColumnEducationLevel:
		return r.EducationLevel
	default:
		return ""
	}
}

// Numeric returns the value of a numeric column
func (r *AttributeRecord) Numeric(col types.NumericColumn) float64 {
	switch col {
	case types.ColumnYearsExperience:
		return r.YearsExperience
	case types.ColumnAverageSalary:
		return r.AverageSalary
	default:
		return 0
	}
}

// Validate checks that both categorical fields are present and both numeric fields are
// finite and non-negative. The returned error is an *InputError.
func (r *AttributeRecord) Validate() error {
	ie := &InputError{}
	for _, col := range types.CategoricalColumns() {
		if strings.TrimSpace(r.Categorical(col)) == "" {
			ie.Missing = append(ie.Missing, col.String())
		}
	}
	for _, col := range types.NumericColumns() {
		if !validNumber(r.Numeric(col)) {
			ie.Invalid = append(ie.Invalid, col.String())
		}
	}
	if ie.empty() {
		return nil
	}
	return ie
}

// Validate checks the attributes and that the risk category is present
func (r *LabeledRecord) Validate() error {
	err := r.AttributeRecord.Validate()
	if strings.TrimSpace(r.RiskCategory) != "" {
		return err
	}

	ie, ok := err.(*InputError)
	if !ok {
		ie = &InputError{}
	}
	ie.Missing = append(ie.Missing, "risk_category")
	return ie
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
