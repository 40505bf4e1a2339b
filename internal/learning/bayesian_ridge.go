package learning

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BayesianRidge is a linear model whose weight and noise precisions are
// estimated by evidence maximisation. It is the per-column estimator of the
// iterative imputer.
type BayesianRidge struct {
	MaxIter int
	Tol     float64
	Alpha1  float64
	Alpha2  float64
	Lambda1 float64
	Lambda2 float64

	// Fitted state.
	Coef      []float64
	Intercept float64
	Alpha     float64
	Lambda    float64
	NIter     int
	Fitted    bool
}

// NewBayesianRidge returns an estimator with the usual hyperprior defaults.
func NewBayesianRidge() *BayesianRidge {
	return &BayesianRidge{
		MaxIter: 300,
		Tol:     1e-3,
		Alpha1:  1e-6,
		Alpha2:  1e-6,
		Lambda1: 1e-6,
		Lambda2: 1e-6,
	}
}

// Name implements Regressor.
func (b *BayesianRidge) Name() string { return "BayesianRidge" }

// Fit implements Regressor.
func (b *BayesianRidge) Fit(X mat.Matrix, y []float64) error {
	n, p := X.Dims()
	if n != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShape, n, len(y))
	}
	if n == 0 {
		return fmt.Errorf("%w: no samples", ErrShape)
	}

	xOffset := columnMeans(X)
	yOffset := stat.Mean(y, nil)

	xc := mat.NewDense(n, p, nil)
	yc := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xc.Set(i, j, X.At(i, j)-xOffset[j])
		}
		yc[i] = y[i] - yOffset
	}

	if p == 0 {
		b.Coef = []float64{}
		b.Intercept = yOffset
		b.Fitted = true
		return nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return fmt.Errorf("bayesian ridge: svd factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)
	eigen := make([]float64, len(sv))
	for i, s := range sv {
		eigen[i] = s * s
	}

	ycVec := mat.NewVecDense(n, yc)
	var xty mat.VecDense
	xty.MulVec(xc.T(), ycVec)

	eps := math.Nextafter(1, 2) - 1
	alpha := 1.0 / (stat.PopVariance(yc, nil) + eps)
	lambda := 1.0

	var coefOld []float64
	iter := 0
	for ; iter < b.MaxIter; iter++ {
		coef, rmse := b.updateCoef(xc, ycVec, &xty, &u, &v, eigen, alpha, lambda)

		var gamma float64
		for _, e := range eigen {
			gamma += alpha * e / (lambda + alpha*e)
		}
		lambda = (gamma + 2*b.Lambda1) / (floats.Dot(coef, coef) + 2*b.Lambda2)
		alpha = (float64(n) - gamma + 2*b.Alpha1) / (rmse + 2*b.Alpha2)

		if iter != 0 && floats.Distance(coefOld, coef, 1) < b.Tol {
			break
		}
		coefOld = coef
	}

	coef, _ := b.updateCoef(xc, ycVec, &xty, &u, &v, eigen, alpha, lambda)
	b.Coef = coef
	b.Intercept = yOffset - floats.Dot(xOffset, coef)
	b.Alpha = alpha
	b.Lambda = lambda
	b.NIter = iter + 1
	b.Fitted = true
	return nil
}

// updateCoef solves for the posterior mean of the weights given the current
// precisions and returns it with the residual sum of squares.
func (b *BayesianRidge) updateCoef(xc *mat.Dense, yc *mat.VecDense, xty *mat.VecDense,
	u, v *mat.Dense, eigen []float64, alpha, lambda float64) ([]float64, float64) {
	n, p := xc.Dims()
	k := len(eigen)
	ratio := lambda / alpha

	var coefVec mat.VecDense
	if n > p {
		// coef = V diag(1/(s²+λ/α)) Vᵀ Xᵀy
		var tmp mat.VecDense
		tmp.MulVec(v.T(), xty)
		for i := 0; i < k; i++ {
			tmp.SetVec(i, tmp.AtVec(i)/(eigen[i]+ratio))
		}
		coefVec.MulVec(v, &tmp)
	} else {
		// coef = Xᵀ U diag(1/(s²+λ/α)) Uᵀ y
		var tmp mat.VecDense
		tmp.MulVec(u.T(), yc)
		for i := 0; i < k; i++ {
			tmp.SetVec(i, tmp.AtVec(i)/(eigen[i]+ratio))
		}
		var uTmp mat.VecDense
		uTmp.MulVec(u, &tmp)
		coefVec.MulVec(xc.T(), &uTmp)
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = coefVec.AtVec(j)
	}

	var fitted mat.VecDense
	fitted.MulVec(xc, &coefVec)
	var rmse float64
	for i := 0; i < n; i++ {
		d := yc.AtVec(i) - fitted.AtVec(i)
		rmse += d * d
	}
	return coef, rmse
}

// Predict implements Regressor.
func (b *BayesianRidge) Predict(X mat.Matrix) ([]float64, error) {
	if !b.Fitted {
		return nil, ErrNotFitted
	}
	return linearPredict(X, b.Coef, b.Intercept)
}
