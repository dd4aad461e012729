// Package dataset reads labeled job records for training.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
	"github.com/secmon-lab/jobrisk/pkg/utils/safe"
)

var (
	ErrMissingColumn = goerr.New("required column is missing from header")
	ErrEmptyDataset  = goerr.New("dataset has no header")
)

// Columns maps each record field to its CSV header name
type Columns struct {
	JobTitle        string `toml:"job_title" validate:"required"`
	EducationLevel  string `toml:"education_level" validate:"required"`
	YearsExperience string `toml:"years_experience" validate:"required"`
	AverageSalary   string `toml:"average_salary" validate:"required"`
	RiskCategory    string `toml:"risk_category" validate:"required"`
}

// DefaultColumns returns the header names of the public job automation risk dataset
func DefaultColumns() Columns {
	return Columns{
		JobTitle:        "Job_Title",
		EducationLevel:  "Education_Level",
		YearsExperience: "Years_Experience",
		AverageSalary:   "Average_Salary",
		RiskCategory:    "Risk_Category",
	}
}

func (c Columns) names() []string {
	return []string{c.JobTitle, c.EducationLevel, c.YearsExperience, c.AverageSalary, c.RiskCategory}
}

// DroppedRow describes a data row that was excluded from the dataset
type DroppedRow struct {
	// Line is the 1-based line number in the source, header included
	Line   int
	Reason string
}

// Dataset is the result of reading a CSV source
type Dataset struct {
	Records []model.LabeledRecord
	Dropped []DroppedRow
}

// Labels returns the risk category of every record in order
func (d *Dataset) Labels() []string {
	labels := make([]string, len(d.Records))
	for i := range d.Records {
		labels[i] = d.Records[i].RiskCategory
	}
	return labels
}

// LabelCounts counts records per risk category
func (d *Dataset) LabelCounts() map[string]int {
	counts := make(map[string]int)
	for i := range d.Records {
		counts[d.Records[i].RiskCategory]++
	}
	return counts
}

// SortedLabels returns the distinct risk categories in ascending order
func (d *Dataset) SortedLabels() []string {
	labels := make([]string, 0)
	for label := range d.LabelCounts() {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

type loader struct {
	columns Columns
}

type Option func(*loader)

// WithColumns overrides the CSV header names
func WithColumns(columns Columns) Option {
	return func(l *loader) {
		l.columns = columns
	}
}

// LoadFile reads the CSV file at path
func LoadFile(ctx context.Context, path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open dataset", goerr.V("path", path))
	}
	defer safe.Close(ctx, f)

	ds, err := Load(ctx, f, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load dataset", goerr.V("path", path))
	}
	return ds, nil
}

// Load reads labeled records from CSV. Extra columns are ignored. Rows with a missing or
// blank required field, or a numeric field that is not a finite non-negative number, are
// dropped and reported in Dataset.Dropped.
func Load(ctx context.Context, r io.Reader, opts ...Option) (*Dataset, error) {
	l := &loader{columns: DefaultColumns()}
	for _, opt := range opts {
		opt(l)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, goerr.Wrap(ErrEmptyDataset, "cannot read header")
		}
		return nil, goerr.Wrap(err, "failed to read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	pos := make([]int, 0, 5)
	for _, name := range l.columns.names() {
		i, ok := index[name]
		if !ok {
			return nil, goerr.Wrap(ErrMissingColumn, "cannot map dataset columns",
				goerr.V("column", name), goerr.V("header", header))
		}
		pos = append(pos, i)
	}

	logger := logging.From(ctx)
	ds := &Dataset{}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read dataset row", goerr.V("line", line))
		}

		record, reason := parseRow(row, pos)
		if reason != "" {
			logger.Debug("dropping dataset row", "line", line, "reason", reason)
			ds.Dropped = append(ds.Dropped, DroppedRow{Line: line, Reason: reason})
			continue
		}
		ds.Records = append(ds.Records, *record)
	}

	logger.Info("dataset loaded",
		"records", len(ds.Records),
		"dropped", len(ds.Dropped))
	return ds, nil
}

func parseRow(row []string, pos []int) (*model.LabeledRecord, string) {
	field := func(i int) string {
		if pos[i] >= len(row) {
			return ""
		}
		return row[pos[i]]
	}

	years, yearsReason := parseNumber(field(2))
	salary, salaryReason := parseNumber(field(3))
	record := &model.LabeledRecord{
		AttributeRecord: model.AttributeRecord{
			JobTitle:        field(0),
			EducationLevel:  field(1),
			YearsExperience: years,
			AverageSalary:   salary,
		},
		RiskCategory: field(4),
	}

	if yearsReason != "" {
		return nil, "years_experience " + yearsReason
	}
	if salaryReason != "" {
		return nil, "average_salary " + salaryReason
	}
	if err := record.Validate(); err != nil {
		return nil, err.Error()
	}
	return record, ""
}

func parseNumber(raw string) (float64, string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, "is missing"
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "is not a finite number"
	}
	if v < 0 {
		return 0, "is negative"
	}
	return v, ""
}
