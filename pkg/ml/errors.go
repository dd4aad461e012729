package ml

import "github.com/m-mizutani/goerr/v2"

var (
	ErrUnknownLabel       = goerr.New("unknown label")
	ErrIndexOutOfRange    = goerr.New("class index out of range")
	ErrDimensionMismatch  = goerr.New("dimension mismatch")
	ErrEmptyTrainingSet   = goerr.New("training set is empty")
	ErrTooFewClasses      = goerr.New("at least two classes are required")
	ErrInvalidSplitRatio  = goerr.New("split ratio must be in (0, 1)")
	ErrOptimizerDiverged  = goerr.New("optimizer produced non-finite weights")
	ErrInvalidCategorySet = goerr.New("invalid category set")
)

// Context keys for error values
const (
	LabelKey     = "label"
	IndexKey     = "index"
	ExpectedKey  = "expected"
	ActualKey    = "actual"
	ColumnKey    = "column"
	ClassesKey   = "classes"
	RatioKey     = "ratio"
	IterationKey = "iterations"
)
