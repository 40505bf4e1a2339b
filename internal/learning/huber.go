package learning

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// minSigma keeps the scale parameter strictly positive.
const minSigma = 1e-12

// HuberRegressor is a linear model fitted with the Huber loss. Residuals
// smaller than Epsilon·sigma are penalised quadratically and larger ones
// linearly; sigma is estimated jointly with the coefficients so the
// threshold adapts to the scale of the target.
type HuberRegressor struct {
	Alpha   float64
	Epsilon float64
	MaxIter int
	Tol     float64

	// Fitted state.
	Coef      []float64
	Intercept float64
	Scale     float64
	NIter     int
	Status    string
	Fitted    bool
}

// NewHuberRegressor returns a regressor with the given regularisation
// strength, outlier threshold and iteration cap.
func NewHuberRegressor(alpha, epsilon float64, maxIter int) *HuberRegressor {
	return &HuberRegressor{
		Alpha:   alpha,
		Epsilon: epsilon,
		MaxIter: maxIter,
		Tol:     1e-5,
	}
}

// Name implements Regressor.
func (h *HuberRegressor) Name() string { return "HuberRegressor" }

// Fit implements Regressor. The objective over (w, c, sigma) is
//
//	n·sigma + Σ_inliers r²/sigma + Σ_outliers (2ε|r| − sigma·ε²) + alpha·‖w‖²
//
// with r = y − Xw − c, minimised with L-BFGS. sigma is optimised in log
// space to keep it positive.
func (h *HuberRegressor) Fit(X mat.Matrix, y []float64) error {
	n, p := X.Dims()
	if n != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShape, n, len(y))
	}
	if n == 0 {
		return fmt.Errorf("%w: no samples", ErrShape)
	}
	if h.Epsilon < 1 {
		return fmt.Errorf("huber: epsilon must be >= 1, got %v", h.Epsilon)
	}

	obj := &huberObjective{X: mat.DenseCopyOf(X), y: y, n: n, p: p, alpha: h.Alpha, epsilon: h.Epsilon}

	// coef = 0, intercept = 0, sigma = 1
	init := make([]float64, p+2)

	settings := &optimize.Settings{
		GradientThreshold: h.Tol,
		MajorIterations:   h.MaxIter,
	}
	problem := optimize.Problem{
		Func: obj.loss,
		Grad: obj.grad,
	}
	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("huber: optimisation failed: %w", err)
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("huber: optimisation diverged (status %v)", result.Status)
		}
	}

	h.Coef = append([]float64(nil), result.X[:p]...)
	h.Intercept = result.X[p]
	h.Scale = sigmaOf(result.X[p+1])
	h.NIter = result.Stats.MajorIterations
	h.Status = result.Status.String()
	h.Fitted = true
	return nil
}

// Predict implements Regressor.
func (h *HuberRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if !h.Fitted {
		return nil, ErrNotFitted
	}
	return linearPredict(X, h.Coef, h.Intercept)
}

type huberObjective struct {
	X       *mat.Dense
	y       []float64
	n, p    int
	alpha   float64
	epsilon float64
}

func sigmaOf(logSigma float64) float64 {
	return math.Max(math.Exp(logSigma), minSigma)
}

func (o *huberObjective) residuals(params []float64) []float64 {
	coef := params[:o.p]
	intercept := params[o.p]
	r := make([]float64, o.n)
	for i := 0; i < o.n; i++ {
		var fit float64
		row := o.X.RawRowView(i)
		for j, w := range coef {
			fit += row[j] * w
		}
		r[i] = o.y[i] - fit - intercept
	}
	return r
}

func (o *huberObjective) loss(params []float64) float64 {
	sigma := sigmaOf(params[o.p+1])
	r := o.residuals(params)
	threshold := o.epsilon * sigma

	var squared, outlier float64
	var nOut int
	for _, ri := range r {
		a := math.Abs(ri)
		if a > threshold {
			outlier += 2 * o.epsilon * a
			nOut++
		} else {
			squared += ri * ri / sigma
		}
	}
	outlier -= sigma * float64(nOut) * o.epsilon * o.epsilon

	var reg float64
	for _, w := range params[:o.p] {
		reg += w * w
	}
	return float64(o.n)*sigma + squared + outlier + o.alpha*reg
}

func (o *huberObjective) grad(grad, params []float64) {
	sigma := sigmaOf(params[o.p+1])
	r := o.residuals(params)
	threshold := o.epsilon * sigma

	for j := range grad {
		grad[j] = 0
	}
	var sumSqIn float64
	var nOut int
	for i, ri := range r {
		row := o.X.RawRowView(i)
		var g float64
		if math.Abs(ri) > threshold {
			nOut++
			if ri > 0 {
				g = -2 * o.epsilon
			} else {
				g = 2 * o.epsilon
			}
		} else {
			g = -2 * ri / sigma
			sumSqIn += ri * ri
		}
		for j := 0; j < o.p; j++ {
			grad[j] += g * row[j]
		}
		grad[o.p] += g
	}
	for j := 0; j < o.p; j++ {
		grad[j] += 2 * o.alpha * params[j]
	}

	dSigma := float64(o.n) - float64(nOut)*o.epsilon*o.epsilon - sumSqIn/(sigma*sigma)
	// chain rule through sigma = exp(logSigma)
	grad[o.p+1] = dSigma * sigma
}
