// Package training fits the preprocessing pipeline and the robust regressor
// on the historical dataset and persists them as one bundle.
package training

import (
	"fmt"

	"github.com/your-org/lifexp-predictor/internal/bundle"
	"github.com/your-org/lifexp-predictor/internal/config"
	"github.com/your-org/lifexp-predictor/internal/dataset"
	"github.com/your-org/lifexp-predictor/internal/learning"
	"github.com/your-org/lifexp-predictor/internal/preprocess"
	"github.com/your-org/lifexp-predictor/internal/report"
	"github.com/your-org/lifexp-predictor/pkg/logger"
)

// Options controls one training run.
type Options struct {
	InputPath    string
	OutputPath   string
	YearsForTest int
	Huber        config.HuberConfig
	Imputer      preprocess.ImputerConfig
}

// OptionsFromConfig maps the training config section onto Options.
func OptionsFromConfig(cfg config.TrainingConfig) Options {
	return Options{
		InputPath:    cfg.InputPath,
		OutputPath:   cfg.OutputPath,
		YearsForTest: cfg.YearsForTest,
		Huber:        cfg.Huber,
		Imputer: preprocess.ImputerConfig{
			MaxIter:     cfg.Imputer.MaxIter,
			Tol:         cfg.Imputer.Tol,
			RandomState: cfg.Imputer.RandomState,
		},
	}
}

// Result is the outcome of a training run.
type Result struct {
	Bundle    *bundle.Bundle
	Score     report.Score
	TrainRows int
	TestRows  int
}

// Model is a fitted pipeline, target scaler and regressor.
type Model struct {
	Pipeline *preprocess.Pipeline
	Target   *preprocess.RobustScaler
	Huber    *learning.HuberRegressor
}

// FitPreprocessing fits the feature pipeline and the target scaler.
func FitPreprocessing(train []dataset.Row, imputer preprocess.ImputerConfig) (*preprocess.Pipeline, *preprocess.RobustScaler, error) {
	p, err := preprocess.Fit(train, imputer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fit pipeline: %w", err)
	}
	target, err := preprocess.FitTargetScaler(dataset.Targets(train))
	if err != nil {
		return nil, nil, err
	}
	return p, target, nil
}

// FitModel fits every transformer and the regressor on train only.
func FitModel(train []dataset.Row, huber config.HuberConfig, imputer preprocess.ImputerConfig) (*Model, error) {
	p, target, err := FitPreprocessing(train, imputer)
	if err != nil {
		return nil, err
	}
	X, err := p.TransformRows(train)
	if err != nil {
		return nil, fmt.Errorf("failed to transform training rows: %w", err)
	}
	y, err := preprocess.ScaleTarget(target, dataset.Targets(train))
	if err != nil {
		return nil, err
	}
	model := learning.NewHuberRegressor(huber.Alpha, huber.Epsilon, huber.MaxIter)
	if err := model.Fit(X, y); err != nil {
		return nil, fmt.Errorf("failed to fit %s: %w", model.Name(), err)
	}
	logger.Debugf("%s fitted in %d iterations (%s), scale %.4f", model.Name(), model.NIter, model.Status, model.Scale)
	return &Model{Pipeline: p, Target: target, Huber: model}, nil
}

// PredictStd runs rows through the pipeline and the regressor and returns
// the scaled targets alongside the scaled predictions.
func (m *Model) PredictStd(rows []dataset.Row) (report.Partition, error) {
	X, err := m.Pipeline.TransformRows(rows)
	if err != nil {
		return report.Partition{}, err
	}
	pred, err := m.Huber.Predict(X)
	if err != nil {
		return report.Partition{}, err
	}
	y, err := preprocess.ScaleTarget(m.Target, dataset.Targets(rows))
	if err != nil {
		return report.Partition{}, err
	}
	return report.Partition{YStd: y, PredStd: pred}, nil
}

// Train fits on the training partition and scores both partitions. It does
// not touch the filesystem.
func Train(rows []dataset.Row, opts Options) (*Result, error) {
	train, test, err := dataset.SplitByYear(rows, opts.YearsForTest)
	if err != nil {
		return nil, err
	}
	logger.Infof("Split dataset: %d training rows, %d holdout rows (%d most recent years)",
		len(train), len(test), opts.YearsForTest)

	m, err := FitModel(train, opts.Huber, opts.Imputer)
	if err != nil {
		return nil, err
	}

	trainPart, err := m.PredictStd(train)
	if err != nil {
		return nil, fmt.Errorf("failed to score training rows: %w", err)
	}
	testPart, err := m.PredictStd(test)
	if err != nil {
		return nil, fmt.Errorf("failed to score holdout rows: %w", err)
	}
	score, err := report.NewScore(m.Huber.Name(), trainPart, testPart, m.Target)
	if err != nil {
		return nil, err
	}

	return &Result{
		Bundle:    bundle.New(m.Pipeline, m.Target, m.Huber),
		Score:     score,
		TrainRows: len(train),
		TestRows:  len(test),
	}, nil
}

// Run loads the dataset, trains and writes the bundle to opts.OutputPath.
func Run(opts Options) (*Result, error) {
	rows, err := dataset.LoadRowsFromCSV(opts.InputPath)
	if err != nil {
		return nil, err
	}
	res, err := Train(rows, opts)
	if err != nil {
		return nil, err
	}
	if err := bundle.Save(opts.OutputPath, res.Bundle); err != nil {
		return nil, err
	}
	logger.Infof("Saved bundle %s to %s", res.Bundle.Version, opts.OutputPath)
	return res, nil
}
