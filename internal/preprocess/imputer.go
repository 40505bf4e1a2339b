package preprocess

import (
	"fmt"
	"math"
	"sort"

	"github.com/your-org/lifexp-predictor/internal/learning"
	"gonum.org/v1/gonum/mat"
)

// ImputerConfig controls the iterative imputer.
type ImputerConfig struct {
	MaxIter int
	Tol     float64
	// RandomState is recorded with the fitted imputer. The ascending
	// imputation order and the ridge estimators are deterministic, so it
	// does not change the result.
	RandomState int64
}

// DefaultImputerConfig matches the settings the model was tuned with.
func DefaultImputerConfig() ImputerConfig {
	return ImputerConfig{MaxIter: 10, Tol: 1e-3, RandomState: 4}
}

// ImputationStep is one fitted (column, estimator) pair of a round.
type ImputationStep struct {
	Column    int
	Neighbors []int
	Estimator *learning.BayesianRidge
}

// IterativeImputer fills missing values by regressing each column on all
// others, round after round, starting from the column means.
type IterativeImputer struct {
	Config ImputerConfig
	// InitialMeans holds the observed training mean of each column.
	InitialMeans []float64
	// Order is the column visiting order, fewest missing first.
	Order []int
	Steps []ImputationStep
	NIter int
}

// NewIterativeImputer returns an unfitted imputer.
func NewIterativeImputer(cfg ImputerConfig) *IterativeImputer {
	return &IterativeImputer{Config: cfg}
}

// Fit learns the initial means and the chain of estimators from X, where
// missing cells are NaN.
func (imp *IterativeImputer) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("imputer: no rows to fit")
	}
	n, p := len(X), len(X[0])
	if p < 2 {
		return fmt.Errorf("%w: imputer needs at least two columns, got %d", ErrShape, p)
	}
	xt := make([][]float64, n)
	missing := make([][]bool, n)
	missingPerCol := make([]int, p)
	var maxAbs float64

	means := make([]float64, p)
	counts := make([]int, p)
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShape, i, len(row), p)
		}
		missing[i] = make([]bool, p)
		for j, v := range row {
			if math.IsNaN(v) {
				missing[i][j] = true
				missingPerCol[j]++
				continue
			}
			means[j] += v
			counts[j]++
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	for j := range means {
		if counts[j] == 0 {
			return fmt.Errorf("imputer: column %d has no observed values", j)
		}
		means[j] /= float64(counts[j])
	}
	for i, row := range X {
		xt[i] = fillInitial(row, means)
	}

	order := make([]int, p)
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return missingPerCol[order[a]] < missingPerCol[order[b]]
	})

	imp.InitialMeans = means
	imp.Order = order
	imp.Steps = nil
	imp.NIter = 0

	// A complete training matrix still gets one round of estimators so
	// that missing request fields are regressed rather than mean-filled.
	if imp.Config.MaxIter <= 0 {
		return nil
	}

	tol := imp.Config.Tol * maxAbs
	prev := cloneMatrix(xt)
	for it := 1; it <= imp.Config.MaxIter; it++ {
		for _, col := range order {
			step, err := fitStep(xt, missing, col, p)
			if err != nil {
				return fmt.Errorf("imputer: round %d column %d: %w", it, col, err)
			}
			if err := step.apply(xt, missing); err != nil {
				return fmt.Errorf("imputer: round %d column %d: %w", it, col, err)
			}
			imp.Steps = append(imp.Steps, step)
		}
		imp.NIter = it
		if infNorm(xt, prev) < tol {
			break
		}
		prev = cloneMatrix(xt)
	}
	return nil
}

// Transform fills the NaN cells of row and returns a new slice.
func (imp *IterativeImputer) Transform(row []float64) ([]float64, error) {
	if imp.InitialMeans == nil {
		return nil, ErrNotFitted
	}
	if len(row) != len(imp.InitialMeans) {
		return nil, fmt.Errorf("%w: imputer fitted on %d columns, got %d", ErrShape, len(imp.InitialMeans), len(row))
	}
	out := fillInitial(row, imp.InitialMeans)
	missing := make([]bool, len(row))
	hasMissing := false
	for j, v := range row {
		if math.IsNaN(v) {
			missing[j] = true
			hasMissing = true
		}
	}
	if !hasMissing {
		return out, nil
	}
	xt := [][]float64{out}
	mask := [][]bool{missing}
	for _, step := range imp.Steps {
		if err := step.apply(xt, mask); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fitStep trains the estimator for col on the rows where col is observed.
func fitStep(xt [][]float64, missing [][]bool, col, p int) (ImputationStep, error) {
	neighbors := make([]int, 0, p-1)
	for j := 0; j < p; j++ {
		if j != col {
			neighbors = append(neighbors, j)
		}
	}

	var data []float64
	var y []float64
	for i, row := range xt {
		if missing[i][col] {
			continue
		}
		for _, j := range neighbors {
			data = append(data, row[j])
		}
		y = append(y, row[col])
	}
	est := learning.NewBayesianRidge()
	if err := est.Fit(mat.NewDense(len(y), len(neighbors), data), y); err != nil {
		return ImputationStep{}, err
	}
	return ImputationStep{Column: col, Neighbors: neighbors, Estimator: est}, nil
}

// apply overwrites the missing cells of step.Column with predictions.
func (s ImputationStep) apply(xt [][]float64, missing [][]bool) error {
	var rows []int
	for i := range xt {
		if missing[i][s.Column] {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	data := make([]float64, 0, len(rows)*len(s.Neighbors))
	for _, i := range rows {
		for _, j := range s.Neighbors {
			data = append(data, xt[i][j])
		}
	}
	pred, err := s.Estimator.Predict(mat.NewDense(len(rows), len(s.Neighbors), data))
	if err != nil {
		return err
	}
	for k, i := range rows {
		xt[i][s.Column] = pred[k]
	}
	return nil
}

func fillInitial(row, means []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if math.IsNaN(v) {
			out[j] = means[j]
		} else {
			out[j] = v
		}
	}
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// infNorm is the maximum absolute row sum of a − b.
func infNorm(a, b [][]float64) float64 {
	var norm float64
	for i := range a {
		var sum float64
		for j := range a[i] {
			sum += math.Abs(a[i][j] - b[i][j])
		}
		norm = math.Max(norm, sum)
	}
	return norm
}
