package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/secmon-lab/jobrisk/pkg/domain/types"
)

// PredictionRequest is the raw request body of a prediction.
// Fields are kept raw so that every violated field can be reported at once.
type PredictionRequest struct {
	JobTitle        json.RawMessage `json:"job_title"`
	EducationLevel  json.RawMessage `json:"education_level"`
	YearsExperience json.RawMessage `json:"years_experience"`
	AverageSalary   json.RawMessage `json:"average_salary"`
}

// Record converts the request into a validated AttributeRecord.
// Numbers may be given as JSON numbers or numeric strings.
func (req *PredictionRequest) Record() (*AttributeRecord, error) {
	ie := &InputError{}
	record := &AttributeRecord{}

	record.JobTitle = parseString(req.JobTitle, types.ColumnJobTitle.String(), ie)
	record.EducationLevel = parseString(req.EducationLevel, types.ColumnEducationLevel.String(), ie)
	record.YearsExperience = parseNumber(req.YearsExperience, types.ColumnYearsExperience.String(), ie)
	record.AverageSalary = parseNumber(req.AverageSalary, types.ColumnAverageSalary.String(), ie)

	if !ie.empty() {
		return nil, ie
	}
	return record, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func parseString(raw json.RawMessage, field string, ie *InputError) string {
	if isNull(raw) {
		ie.Missing = append(ie.Missing, field)
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		ie.Invalid = append(ie.Invalid, field)
		return ""
	}
	if strings.TrimSpace(s) == "" {
		ie.Missing = append(ie.Missing, field)
		return ""
	}
	return s
}

func parseNumber(raw json.RawMessage, field string, ie *InputError) float64 {
	if isNull(raw) {
		ie.Missing = append(ie.Missing, field)
		return 0
	}

	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			ie.Invalid = append(ie.Invalid, field)
			return 0
		}
		text = strings.TrimSpace(s)
		if text == "" {
			ie.Missing = append(ie.Missing, field)
			return 0
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || !validNumber(v) {
		ie.Invalid = append(ie.Invalid, field)
		return 0
	}
	return v
}
