// Package learning holds the regression estimators used by the life
// expectancy model and the imputer, together with the scoring metrics.
package learning

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotFitted is returned when Predict is called before Fit.
	ErrNotFitted = errors.New("estimator is not fitted")
	// ErrShape is returned when inputs disagree in dimensions.
	ErrShape = errors.New("input shape mismatch")
)

// Regressor is a single-output regression estimator.
type Regressor interface {
	// Fit trains the estimator on the rows of X against y.
	Fit(X mat.Matrix, y []float64) error
	// Predict returns one value per row of X.
	Predict(X mat.Matrix) ([]float64, error)
	// Name returns the estimator family name, used in reports.
	Name() string
}

// linearPredict computes X·coef + intercept.
func linearPredict(X mat.Matrix, coef []float64, intercept float64) ([]float64, error) {
	r, c := X.Dims()
	if c != len(coef) {
		return nil, ErrShape
	}
	out := make([]float64, r)
	if r == 0 {
		return out, nil
	}
	if c == 0 {
		for i := range out {
			out[i] = intercept
		}
		return out, nil
	}
	var pred mat.VecDense
	pred.MulVec(X, mat.NewVecDense(len(coef), coef))
	for i := range out {
		out[i] = pred.AtVec(i) + intercept
	}
	return out, nil
}

// columnMeans returns the mean of each column of X.
func columnMeans(X mat.Matrix) []float64 {
	r, c := X.Dims()
	means := make([]float64, c)
	if r == 0 {
		return means
	}
	col := make([]float64, r)
	for j := range means {
		means[j] = stat.Mean(mat.Col(col, j, X), nil)
	}
	return means
}
