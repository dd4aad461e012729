package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/domain/model"
	"github.com/secmon-lab/jobrisk/pkg/repository/artifact"
	"github.com/secmon-lab/jobrisk/pkg/repository/memory"
	"github.com/secmon-lab/jobrisk/pkg/service/dataset"
	"github.com/secmon-lab/jobrisk/pkg/usecase"
)

func labeled(title, edu string, years, salary float64, risk string) model.LabeledRecord {
	return model.LabeledRecord{
		AttributeRecord: model.AttributeRecord{
			JobTitle:        title,
			EducationLevel:  edu,
			YearsExperience: years,
			AverageSalary:   salary,
		},
		RiskCategory: risk,
	}
}

// newDataset returns 90 records where the job title determines the risk category
func newDataset() *dataset.Dataset {
	ds := &dataset.Dataset{
		Dropped: []dataset.DroppedRow{{Line: 7, Reason: "average_salary is missing"}},
	}
	for i := 0; i < 15; i++ {
		f := float64(i)
		ds.Records = append(ds.Records,
			labeled("Cashier", "High School", f, 20+f, "High"),
			labeled("Telemarketer", "High School", f/2, 22+f, "High"),
			labeled("Accountant", "Bachelor's", f+1, 55+f, "Medium"),
			labeled("Paralegal", "Associate", f+2, 48+f, "Medium"),
			labeled("Psychologist", "PhD", f+4, 90+f, "Low"),
			labeled("Nurse", "Bachelor's", f+3, 70+f, "Low"),
		)
	}
	return ds
}

type fixture struct {
	repo  *memory.Memory
	store *artifact.MemoryStore
	uc    *usecase.UseCases
}

func newFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()
	repo := memory.New()
	store := artifact.NewMemoryStore()
	opts = append([]usecase.Option{
		usecase.WithClock(func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }),
	}, opts...)

	return &fixture{
		repo:  repo,
		store: store,
		uc:    usecase.New(repo, store, opts...),
	}
}

func (f *fixture) train(t *testing.T) *usecase.TrainResult {
	t.Helper()
	result, err := f.uc.Train.Run(context.Background(), usecase.TrainInput{
		Name:    "jobs.csv",
		Dataset: newDataset(),
	})
	gt.NoError(t, err).Required()
	return result
}
