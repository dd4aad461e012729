package dataset_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/service/dataset"
)

func TestLoadFile(t *testing.T) {
	ds, err := dataset.LoadFile(context.Background(), "testdata/jobs.csv")
	gt.NoError(t, err).Required()

	gt.Array(t, ds.Records).Length(4).Required()
	gt.Array(t, ds.Dropped).Length(5)

	first := ds.Records[0]
	gt.Value(t, first.JobTitle).Equal("Cashier")
	gt.Value(t, first.EducationLevel).Equal("High School")
	gt.Value(t, first.YearsExperience).Equal(2.0)
	gt.Value(t, first.AverageSalary).Equal(25000.0)
	gt.Value(t, first.RiskCategory).Equal("High")

	quoted := ds.Records[3]
	gt.Value(t, quoted.JobTitle).Equal("Analyst, Junior")
	gt.Value(t, quoted.YearsExperience).Equal(1.5)

	gt.Array(t, ds.SortedLabels()).Equal([]string{"High", "Low", "Medium"})
	gt.Value(t, ds.LabelCounts()["Medium"]).Equal(2)
	gt.Array(t, ds.Labels()).Equal([]string{"High", "Low", "Medium", "Medium"})
	gt.Array(t, ds.Records).Length(4)
}

func TestLoad_DroppedRows(t *testing.T) {
	ds, err := dataset.LoadFile(context.Background(), "testdata/jobs.csv")
	gt.NoError(t, err).Required()

	lines := make([]int, len(ds.Dropped))
	for i, d := range ds.Dropped {
		lines[i] = d.Line
		gt.String(t, d.Reason).NotEqual("")
	}
	gt.Array(t, lines).Equal([]int{5, 6, 7, 8, 10})

	gt.String(t, ds.Dropped[0].Reason).Contains("average_salary")
	gt.String(t, ds.Dropped[1].Reason).Contains("job_title")
	gt.String(t, ds.Dropped[2].Reason).Contains("negative")
	gt.String(t, ds.Dropped[3].Reason).Contains("risk_category")
	gt.String(t, ds.Dropped[4].Reason).Contains("finite")
}

func TestLoad_CustomColumns(t *testing.T) {
	src := "title,edu,years,salary,risk\nNurse,PhD,3,70000,Low\n"
	cols := dataset.Columns{
		JobTitle:        "title",
		EducationLevel:  "edu",
		YearsExperience: "years",
		AverageSalary:   "salary",
		RiskCategory:    "risk",
	}

	ds, err := dataset.Load(context.Background(), strings.NewReader(src), dataset.WithColumns(cols))
	gt.NoError(t, err).Required()
	gt.Array(t, ds.Records).Length(1).Required()
	gt.Value(t, ds.Records[0].EducationLevel).Equal("PhD")
}

func TestLoad_ByteOrderMark(t *testing.T) {
	src := "\ufeffJob_Title,Education_Level,Years_Experience,Average_Salary,Risk_Category\nChef,High School,1,30000,High\n"

	ds, err := dataset.Load(context.Background(), strings.NewReader(src))
	gt.NoError(t, err).Required()
	gt.Array(t, ds.Records).Length(1)
}

func TestLoad_Errors(t *testing.T) {
	_, err := dataset.Load(context.Background(), strings.NewReader(""))
	gt.Error(t, err).Is(dataset.ErrEmptyDataset)

	_, err = dataset.Load(context.Background(), strings.NewReader("Job_Title,Education_Level\nChef,High School\n"))
	gt.Error(t, err).Is(dataset.ErrMissingColumn)

	_, err = dataset.LoadFile(context.Background(), "testdata/not_found.csv")
	gt.Error(t, err)
}

func TestLoad_ShortRowIsDropped(t *testing.T) {
	src := "Job_Title,Education_Level,Years_Experience,Average_Salary,Risk_Category\nChef,High School\n"

	ds, err := dataset.Load(context.Background(), strings.NewReader(src))
	gt.NoError(t, err).Required()
	gt.Array(t, ds.Records).Length(0)
	gt.Array(t, ds.Dropped).Length(1)
}
