// Package main cross-validates the Huber hyperparameter grid over the
// training years.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/your-org/lifexp-predictor/internal/config"
	"github.com/your-org/lifexp-predictor/internal/dataset"
	"github.com/your-org/lifexp-predictor/internal/experiment"
	"github.com/your-org/lifexp-predictor/internal/training"
	"github.com/your-org/lifexp-predictor/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to an optional configuration file")
	input := flag.String("i", "", "Path to the input dataset")
	splits := flag.Int("splits", 0, "Number of walk-forward folds (default from config)")
	flag.Parse()

	cfg, err := config.LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Training.InputPath = *input
	}
	if *splits > 0 {
		cfg.Training.CVSplits = *splits
	}
	logger.SetGlobalLogLevel(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rows, err := dataset.LoadRowsFromCSV(cfg.Training.InputPath)
	if err != nil {
		logger.Fatalf("Failed to load dataset: %v", err)
	}
	// Only the training partition is cross-validated; the holdout stays unseen.
	train, _, err := dataset.SplitByYear(rows, cfg.Training.YearsForTest)
	if err != nil {
		logger.Fatalf("Failed to split dataset: %v", err)
	}
	folds, err := experiment.WalkForwardFolds(train, cfg.Training.CVSplits)
	if err != nil {
		logger.Fatalf("Failed to build folds: %v", err)
	}
	for k, f := range folds {
		logger.Infof("Fold %d: train years %v, test years %v", k, f.TrainYears, f.TestYears)
	}

	opts := training.OptionsFromConfig(cfg.Training)
	results, err := experiment.GridSearch(ctx, train, folds, experiment.SearchOptions{
		Grid:    experiment.DefaultGrid(),
		MaxIter: cfg.Training.Huber.MaxIter,
		Imputer: opts.Imputer,
	})
	if err != nil {
		logger.Fatalf("Grid search failed: %v", err)
	}

	best := results[0]
	fmt.Printf("THE BEST MODEL IS: HuberRegressor(alpha=%g, epsilon=%g) with mean test score %.4f\n",
		best.Alpha, best.Epsilon, best.MeanTestScore)
	if err := experiment.WriteResults(os.Stdout, results); err != nil {
		logger.Fatalf("Failed to print results: %v", err)
	}
}
