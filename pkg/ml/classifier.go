package ml

import (
	"math"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/floats"
)

// Classifier is a multinomial linear model: score_j(x) = w_j·x + b_j, probabilities are the
// softmax of the scores. It is immutable and safe for concurrent use.
type Classifier struct {
	weights [][]float64
	bias    []float64
}

// NewClassifier copies weights (k rows of equal length) and bias (length k)
func NewClassifier(weights [][]float64, bias []float64) (*Classifier, error) {
	if len(weights) < 2 {
		return nil, goerr.Wrap(ErrTooFewClasses, "classifier needs at least two weight rows", goerr.V(ClassesKey, len(weights)))
	}
	if len(bias) != len(weights) {
		return nil, goerr.Wrap(ErrDimensionMismatch, "bias length does not match weight rows",
			goerr.V(ExpectedKey, len(weights)), goerr.V(ActualKey, len(bias)))
	}

	d := len(weights[0])
	w := make([][]float64, len(weights))
	for j, row := range weights {
		if len(row) != d {
			return nil, goerr.Wrap(ErrDimensionMismatch, "weight rows differ in length",
				goerr.V("row", j), goerr.V(ExpectedKey, d), goerr.V(ActualKey, len(row)))
		}
		w[j] = slices.Clone(row)
	}

	return &Classifier{
		weights: w,
		bias:    slices.Clone(bias),
	}, nil
}

// Classes returns the number of classes k
func (c *Classifier) Classes() int {
	return len(c.weights)
}

// Dimension returns the expected input vector length
func (c *Classifier) Dimension() int {
	return len(c.weights[0])
}

// Scores returns the linear score of every class
func (c *Classifier) Scores(x []float64) ([]float64, error) {
	if len(x) != c.Dimension() {
		return nil, goerr.Wrap(ErrDimensionMismatch, "input vector has wrong length",
			goerr.V(ExpectedKey, c.Dimension()), goerr.V(ActualKey, len(x)))
	}

	scores := make([]float64, len(c.weights))
	for j, w := range c.weights {
		scores[j] = floats.Dot(w, x) + c.bias[j]
	}
	return scores, nil
}

// PredictProba returns the class probability distribution of x. It has length k and sums to 1.
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	scores, err := c.Scores(x)
	if err != nil {
		return nil, err
	}
	return Softmax(scores), nil
}

// Predict returns the index of the most probable class of x
func (c *Classifier) Predict(x []float64) (int, error) {
	p, err := c.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return Argmax(p), nil
}

// Weights returns a copy of the weight matrix
func (c *Classifier) Weights() [][]float64 {
	w := make([][]float64, len(c.weights))
	for j, row := range c.weights {
		w[j] = slices.Clone(row)
	}
	return w
}

// Bias returns a copy of the bias vector
func (c *Classifier) Bias() []float64 {
	return slices.Clone(c.bias)
}

// Softmax converts scores into probabilities. The maximum score is subtracted before
// exponentiation so large scores do not overflow.
func Softmax(scores []float64) []float64 {
	p := make([]float64, len(scores))
	if len(scores) == 0 {
		return p
	}

	maxScore := floats.Max(scores)
	var sum float64
	for j, s := range scores {
		p[j] = math.Exp(s - maxScore)
		sum += p[j]
	}
	floats.Scale(1/sum, p)
	return p
}

// Argmax returns the index of the largest value; the lowest index wins ties.
func Argmax(values []float64) int {
	best := 0
	for j := 1; j < len(values); j++ {
		if values[j] > values[best] {
			best = j
		}
	}
	return best
}
