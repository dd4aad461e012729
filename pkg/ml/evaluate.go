package ml

import (
	"context"
	"runtime"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

const evaluateChunkSize = 256

// Evaluation summarizes predictions over a labeled set
type Evaluation struct {
	Accuracy float64
	Correct  int
	Total    int
	// Confusion[i][j] counts samples of true class i predicted as class j
	Confusion [][]int
}

// Evaluate predicts every vector of X in parallel and compares with y.
// An empty set evaluates to zero accuracy.
func Evaluate(ctx context.Context, clf *Classifier, X [][]float64, y []int) (*Evaluation, error) {
	if len(X) != len(y) {
		return nil, goerr.Wrap(ErrDimensionMismatch, "vectors and labels differ in length",
			goerr.V("vectors", len(X)), goerr.V("labels", len(y)))
	}

	k := clf.Classes()
	predictions := make([]int, len(X))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(X); start += evaluateChunkSize {
		end := min(start+evaluateChunkSize, len(X))
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				p, err := clf.Predict(X[i])
				if err != nil {
					return goerr.Wrap(err, "failed to predict evaluation sample", goerr.V(IndexKey, i))
				}
				predictions[i] = p
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	eval := &Evaluation{
		Total:     len(y),
		Confusion: make([][]int, k),
	}
	for i := range eval.Confusion {
		eval.Confusion[i] = make([]int, k)
	}
	for i, truth := range y {
		if truth < 0 || truth >= k {
			return nil, goerr.Wrap(ErrIndexOutOfRange, "evaluation label out of range",
				goerr.V(IndexKey, i), goerr.V(LabelKey, truth))
		}
		eval.Confusion[truth][predictions[i]]++
		if predictions[i] == truth {
			eval.Correct++
		}
	}
	eval.Accuracy = Accuracy(predictions, y)

	return eval, nil
}

// Accuracy returns the fraction of predicted equal to truth
func Accuracy(predicted, truth []int) float64 {
	if len(truth) == 0 || len(predicted) != len(truth) {
		return 0
	}
	correct := 0
	for i := range truth {
		if predicted[i] == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}
