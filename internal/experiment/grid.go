package experiment

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/your-org/lifexp-predictor/internal/dataset"
	"github.com/your-org/lifexp-predictor/internal/learning"
	"github.com/your-org/lifexp-predictor/internal/preprocess"
	"github.com/your-org/lifexp-predictor/internal/training"
)

// Candidate is one Huber hyperparameter combination.
type Candidate struct {
	Alpha   float64
	Epsilon float64
}

// DefaultGrid returns epsilon {1.2, 1.35, 1.5, 2} × alpha {1e-4 … 1e-1}.
func DefaultGrid() []Candidate {
	var grid []Candidate
	for _, eps := range []float64{1.2, 1.35, 1.5, 2} {
		for _, alpha := range []float64{0.0001, 0.001, 0.01, 0.1} {
			grid = append(grid, Candidate{Alpha: alpha, Epsilon: eps})
		}
	}
	return grid
}

// Result is the cross-validated score of one candidate. Scores are negative
// mean squared errors in scaled target units, so higher is better.
type Result struct {
	Candidate
	FoldTestScores []float64
	MeanTestScore  float64
	StdTestScore   float64
	MeanTrainScore float64
	Rank           int
}

// SearchOptions controls GridSearch.
type SearchOptions struct {
	Grid    []Candidate
	MaxIter int
	Imputer preprocess.ImputerConfig
	// Workers bounds concurrent fits; zero means GOMAXPROCS.
	Workers int
}

// GridSearch fits a fresh pipeline on the training rows of each fold and
// scores every candidate on the fold's test rows. Results are sorted by
// rank.
func GridSearch(ctx context.Context, rows []dataset.Row, folds []Fold, opts SearchOptions) ([]Result, error) {
	if len(opts.Grid) == 0 {
		return nil, fmt.Errorf("experiment: empty grid")
	}
	if len(folds) == 0 {
		return nil, fmt.Errorf("experiment: no folds")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	testScores := make([][]float64, len(opts.Grid))
	trainScores := make([][]float64, len(opts.Grid))
	for c := range opts.Grid {
		testScores[c] = make([]float64, len(folds))
		trainScores[c] = make([]float64, len(folds))
	}

	for f, fold := range folds {
		train, test := pick(rows, fold.Train), pick(rows, fold.Test)
		data, err := prepareFold(train, test, opts.Imputer)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for c, cand := range opts.Grid {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				trainMSE, testMSE, err := data.score(cand, opts.MaxIter)
				if err != nil {
					return fmt.Errorf("fold %d alpha=%v epsilon=%v: %w", f, cand.Alpha, cand.Epsilon, err)
				}
				trainScores[c][f] = -trainMSE
				testScores[c][f] = -testMSE
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	results := make([]Result, len(opts.Grid))
	for c, cand := range opts.Grid {
		results[c] = Result{
			Candidate:      cand,
			FoldTestScores: testScores[c],
			MeanTestScore:  stat.Mean(testScores[c], nil),
			StdTestScore:   stat.PopStdDev(testScores[c], nil),
			MeanTrainScore: stat.Mean(trainScores[c], nil),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MeanTestScore > results[j].MeanTestScore
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// foldData is the fold's design matrices, shared read-only by candidates.
type foldData struct {
	trainX *mat.Dense
	testX  *mat.Dense
	trainY []float64
	testY  []float64
}

func prepareFold(train, test []dataset.Row, imputer preprocess.ImputerConfig) (*foldData, error) {
	p, target, err := training.FitPreprocessing(train, imputer)
	if err != nil {
		return nil, err
	}
	trainX, err := p.TransformRows(train)
	if err != nil {
		return nil, err
	}
	testX, err := p.TransformRows(test)
	if err != nil {
		return nil, err
	}
	trainY, err := preprocess.ScaleTarget(target, dataset.Targets(train))
	if err != nil {
		return nil, err
	}
	testY, err := preprocess.ScaleTarget(target, dataset.Targets(test))
	if err != nil {
		return nil, err
	}
	return &foldData{trainX: trainX, testX: testX, trainY: trainY, testY: testY}, nil
}

func (d *foldData) score(c Candidate, maxIter int) (trainMSE, testMSE float64, err error) {
	model := learning.NewHuberRegressor(c.Alpha, c.Epsilon, maxIter)
	if err := model.Fit(d.trainX, d.trainY); err != nil {
		return 0, 0, err
	}
	trainPred, err := model.Predict(d.trainX)
	if err != nil {
		return 0, 0, err
	}
	testPred, err := model.Predict(d.testX)
	if err != nil {
		return 0, 0, err
	}
	if trainMSE, err = learning.MeanSquaredError(d.trainY, trainPred); err != nil {
		return 0, 0, err
	}
	if testMSE, err = learning.MeanSquaredError(d.testY, testPred); err != nil {
		return 0, 0, err
	}
	return trainMSE, testMSE, nil
}

// WriteResults prints the ranked results as an aligned table.
func WriteResults(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "rank\tmodel\talpha\tepsilon\tmean_test_score\tstd_test_score\tmean_train_score")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\tHuberRegressor\t%g\t%g\t%.4f\t%.4f\t%.4f\n",
			r.Rank, r.Alpha, r.Epsilon, r.MeanTestScore, r.StdTestScore, r.MeanTrainScore)
	}
	return tw.Flush()
}
