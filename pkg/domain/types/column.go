package types

// CategoricalColumn names an attribute that is one-hot encoded
type CategoricalColumn string

const (
	ColumnJobTitle       CategoricalColumn = "job_title"
	ColumnEducationLevel CategoricalColumn = "education_level"
)

// CategoricalColumns returns the categorical columns in encoding order
func CategoricalColumns() []CategoricalColumn {
	return []CategoricalColumn{
		ColumnJobTitle,
		ColumnEducationLevel,
	}
}

// IsValid checks if the column is a known categorical column
func (c CategoricalColumn) IsValid() bool {
	switch c {
	case ColumnJobTitle, ColumnEducationLevel:
		return true
	default:
		return false
	}
}

// String returns the string representation of CategoricalColumn
func (c CategoricalColumn) String() string {
	return string(c)
}

// NumericColumn names an attribute that passes through the encoder unchanged
type NumericColumn string

const (
	ColumnYearsExperience NumericColumn = "years_experience"
	ColumnAverageSalary   NumericColumn = "average_salary"
)

// NumericColumns returns the numeric columns in encoding order
func NumericColumns() []NumericColumn {
	return []NumericColumn{
		ColumnYearsExperience,
		ColumnAverageSalary,
	}
}

// IsValid checks if the column is a known numeric column
func (c NumericColumn) IsValid() bool {
	switch c {
	case ColumnYearsExperience, ColumnAverageSalary:
		return true
	default:
		return false
	}
}

// String returns the string representation of NumericColumn
func (c NumericColumn) String() string {
	return string(c)
}
