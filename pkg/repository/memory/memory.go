package memory

import (
	"github.com/secmon-lab/jobrisk/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	trainingRun *trainingRunRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		trainingRun: newTrainingRunRepository(),
	}
}

func (m *Memory) TrainingRun() interfaces.TrainingRunRepository {
	return m.trainingRun
}

func (m *Memory) Close() error {
	return nil
}
