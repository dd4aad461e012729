package ml

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

const (
	DefaultMaxIterations     = 5000
	DefaultL2                = 1.0
	DefaultGradientThreshold = 1e-6
)

// FitOptions configures the optimizer
type FitOptions struct {
	// MaxIterations bounds the number of L-BFGS major iterations
	MaxIterations int
	// L2 is the weight penalty strength (inverse of the usual C parameter). Bias is not penalized.
	L2 float64
	// GradientThreshold stops the optimizer once the gradient infinity norm falls below it
	GradientThreshold float64
}

func (o FitOptions) withDefaults() FitOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.L2 < 0 {
		o.L2 = 0
	}
	if o.GradientThreshold <= 0 {
		o.GradientThreshold = DefaultGradientThreshold
	}
	return o
}

// FitReport describes how the optimizer terminated
type FitReport struct {
	Iterations int
	Converged  bool
	Loss       float64
	Status     string
}

// FitClassifier minimizes the mean multinomial cross-entropy of (X, y) plus an L2 penalty
// with L-BFGS. y holds class indices in [0, k).
//
// Hitting the iteration bound or a line search failure is not an error: the classifier is
// returned with whatever weights were reached and FitReport.Converged is false.
func FitClassifier(X [][]float64, y []int, k int, opts FitOptions) (*Classifier, *FitReport, error) {
	if len(X) == 0 {
		return nil, nil, goerr.Wrap(ErrEmptyTrainingSet, "no training vectors")
	}
	if len(X) != len(y) {
		return nil, nil, goerr.Wrap(ErrDimensionMismatch, "vectors and labels differ in length",
			goerr.V("vectors", len(X)), goerr.V("labels", len(y)))
	}
	if k < 2 {
		return nil, nil, goerr.Wrap(ErrTooFewClasses, "cannot fit classifier", goerr.V(ClassesKey, k))
	}

	d := len(X[0])
	for i, x := range X {
		if len(x) != d {
			return nil, nil, goerr.Wrap(ErrDimensionMismatch, "training vectors differ in length",
				goerr.V(IndexKey, i), goerr.V(ExpectedKey, d), goerr.V(ActualKey, len(x)))
		}
	}
	for i, label := range y {
		if label < 0 || label >= k {
			return nil, nil, goerr.Wrap(ErrIndexOutOfRange, "training label out of range",
				goerr.V(IndexKey, i), goerr.V(LabelKey, label), goerr.V(ClassesKey, k))
		}
	}

	opts = opts.withDefaults()
	obj := &objective{X: X, y: y, k: k, dim: d, l2: opts.L2}

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			return obj.evaluate(theta, nil)
		},
		Grad: func(grad, theta []float64) {
			obj.evaluate(theta, grad)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: opts.GradientThreshold,
		MajorIterations:   opts.MaxIterations,
	}

	theta0 := make([]float64, k*(d+1))
	result, err := optimize.Minimize(problem, theta0, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, nil, goerr.Wrap(err, "optimizer failed to start")
	}
	if !isFinite(result.X) {
		return nil, nil, goerr.Wrap(ErrOptimizerDiverged, "cannot build classifier",
			goerr.V("status", result.Status.String()))
	}

	report := &FitReport{
		Iterations: result.MajorIterations,
		Converged:  err == nil && converged(result.Status),
		Loss:       result.F,
		Status:     result.Status.String(),
	}

	weights := make([][]float64, k)
	bias := make([]float64, k)
	stride := d + 1
	for j := 0; j < k; j++ {
		weights[j] = result.X[j*stride : j*stride+d]
		bias[j] = result.X[j*stride+d]
	}

	clf, err := NewClassifier(weights, bias)
	if err != nil {
		return nil, nil, err
	}
	return clf, report, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success,
		optimize.GradientThreshold,
		optimize.FunctionConvergence,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	default:
		return false
	}
}

func isFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// objective is the regularized mean cross-entropy over a flattened parameter vector.
// Class j owns theta[j*(dim+1) : (j+1)*(dim+1)], weights first and bias last.
type objective struct {
	X   [][]float64
	y   []int
	k   int
	dim int
	l2  float64
}

func (o *objective) evaluate(theta, grad []float64) float64 {
	stride := o.dim + 1
	if grad != nil {
		for i := range grad {
			grad[i] = 0
		}
	}

	scores := make([]float64, o.k)
	var loss float64
	for n, x := range o.X {
		for j := 0; j < o.k; j++ {
			scores[j] = floats.Dot(theta[j*stride:j*stride+o.dim], x) + theta[j*stride+o.dim]
		}
		lse := floats.LogSumExp(scores)
		loss += lse - scores[o.y[n]]

		if grad == nil {
			continue
		}
		for j := 0; j < o.k; j++ {
			residual := math.Exp(scores[j] - lse)
			if j == o.y[n] {
				residual--
			}
			floats.AddScaled(grad[j*stride:j*stride+o.dim], residual, x)
			grad[j*stride+o.dim] += residual
		}
	}

	invN := 1 / float64(len(o.X))
	loss *= invN
	if grad != nil {
		floats.Scale(invN, grad)
	}

	if o.l2 > 0 {
		penalty := o.l2 * invN
		for j := 0; j < o.k; j++ {
			w := theta[j*stride : j*stride+o.dim]
			loss += 0.5 * penalty * floats.Dot(w, w)
			if grad != nil {
				floats.AddScaled(grad[j*stride:j*stride+o.dim], penalty, w)
			}
		}
	}

	return loss
}
