// Package experiment evaluates model hyperparameters with walk-forward
// cross-validation over the training years.
package experiment

import (
	"errors"
	"fmt"

	"github.com/your-org/lifexp-predictor/internal/dataset"
)

// ErrTooFewYears is returned when the training years cannot be split into
// the requested number of folds.
var ErrTooFewYears = errors.New("too few distinct years for the requested folds")

// Fold holds row indices into the rows it was built from.
type Fold struct {
	Train      []int
	Test       []int
	TrainYears []float64
	TestYears  []float64
}

// WalkForwardFolds splits the distinct years of rows into nSplits
// consecutive test windows of equal size. Each fold trains on every year
// before its window, so later folds see more history.
func WalkForwardFolds(rows []dataset.Row, nSplits int) ([]Fold, error) {
	years := dataset.DistinctYears(rows)
	if nSplits < 1 || nSplits+1 > len(years) {
		return nil, fmt.Errorf("%w: %d splits need at least %d years, have %d",
			ErrTooFewYears, nSplits, nSplits+1, len(years))
	}
	testSize := len(years) / (nSplits + 1)

	folds := make([]Fold, 0, nSplits)
	for start := len(years) - nSplits*testSize; start < len(years); start += testSize {
		trainYears := years[:start]
		testYears := years[start : start+testSize]
		fold := Fold{
			TrainYears: append([]float64(nil), trainYears...),
			TestYears:  append([]float64(nil), testYears...),
		}
		inTest := make(map[float64]bool, len(testYears))
		for _, y := range testYears {
			inTest[y] = true
		}
		lastTrain := trainYears[len(trainYears)-1]
		for i, r := range rows {
			switch {
			case inTest[r.Year]:
				fold.Test = append(fold.Test, i)
			case r.Year <= lastTrain:
				fold.Train = append(fold.Train, i)
			}
		}
		folds = append(folds, fold)
	}
	return folds, nil
}

func pick(rows []dataset.Row, idx []int) []dataset.Row {
	out := make([]dataset.Row, len(idx))
	for k, i := range idx {
		out[k] = rows[i]
	}
	return out
}
