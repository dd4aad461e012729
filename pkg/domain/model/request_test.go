package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
)

func decodeRequest(t *testing.T, body string) *model.PredictionRequest {
	t.Helper()
	var req model.PredictionRequest
	gt.NoError(t, json.Unmarshal([]byte(body), &req)).Required()
	return &req
}

func TestPredictionRequest_Record(t *testing.T) {
	t.Run("valid numbers", func(t *testing.T) {
		req := decodeRequest(t, `{"job_title":"Data Analyst","education_level":"Master's","years_experience":5,"average_salary":85000.5}`)
		record, err := req.Record()
		gt.NoError(t, err).Required()
		gt.Value(t, *record).Equal(model.AttributeRecord{
			JobTitle:        "Data Analyst",
			EducationLevel:  "Master's",
			YearsExperience: 5,
			AverageSalary:   85000.5,
		})
	})

	t.Run("numeric strings are accepted", func(t *testing.T) {
		req := decodeRequest(t, `{"job_title":"Chef","education_level":"High School","years_experience":" 2.5 ","average_salary":"30000"}`)
		record, err := req.Record()
		gt.NoError(t, err).Required()
		gt.Value(t, record.YearsExperience).Equal(2.5)
		gt.Value(t, record.AverageSalary).Equal(30000.0)
	})

	t.Run("missing average_salary", func(t *testing.T) {
		req := decodeRequest(t, `{"job_title":"Chef","education_level":"High School","years_experience":3}`)
		record, err := req.Record()
		gt.Value(t, record).Nil()
		gt.Error(t, err).Is(model.ErrInvalidInput)

		var ie *model.InputError
		gt.Bool(t, errors.As(err, &ie)).True()
		gt.Array(t, ie.Missing).Equal([]string{"average_salary"})
		gt.Array(t, ie.Invalid).Length(0)
		gt.S(t, err.Error()).Contains("average_salary")
	})

	t.Run("all violations are reported together", func(t *testing.T) {
		req := decodeRequest(t, `{"job_title":"  ","education_level":42,"years_experience":"abc","average_salary":null}`)
		_, err := req.Record()

		var ie *model.InputError
		gt.Bool(t, errors.As(err, &ie)).True()
		gt.Array(t, ie.Missing).Equal([]string{"job_title", "average_salary"})
		gt.Array(t, ie.Invalid).Equal([]string{"education_level", "years_experience"})
	})

	t.Run("negative and non-finite numbers are invalid", func(t *testing.T) {
		req := decodeRequest(t, `{"job_title":"Chef","education_level":"PhD","years_experience":-1,"average_salary":"NaN"}`)
		_, err := req.Record()

		var ie *model.InputError
		gt.Bool(t, errors.As(err, &ie)).True()
		gt.Array(t, ie.Invalid).Equal([]string{"years_experience", "average_salary"})
	})

	t.Run("empty body", func(t *testing.T) {
		req := decodeRequest(t, `{}`)
		_, err := req.Record()

		var ie *model.InputError
		gt.Bool(t, errors.As(err, &ie)).True()
		gt.Array(t, ie.Missing).Length(4)
	})
}
