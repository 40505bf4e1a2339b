// Package main trains the life expectancy model and writes the bundle.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/your-org/lifexp-predictor/internal/config"
	"github.com/your-org/lifexp-predictor/internal/report"
	"github.com/your-org/lifexp-predictor/internal/training"
	"github.com/your-org/lifexp-predictor/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "", "Path to an optional configuration file")
	input := flag.String("i", "", "Path to the input dataset (default data/raw/life_expectancy_data.csv)")
	output := flag.String("o", "", "Path to output the models (default app/life_expectancy_prediction_models.bin)")
	flag.Parse()

	cfg, err := config.LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Training.InputPath = *input
	}
	if *output != "" {
		cfg.Training.OutputPath = *output
	}

	// --- Logger ---
	logger.SetGlobalLogLevel(cfg.LogLevel)
	defer logger.Sync()

	// --- Training ---
	opts := training.OptionsFromConfig(cfg.Training)
	logger.Infof("Training on %s", opts.InputPath)
	res, err := training.Run(opts)
	if err != nil {
		logger.Fatalf("Training failed: %v", err)
	}

	fmt.Println("MODEL RESULTS:")
	if err := report.WriteScores(os.Stdout, res.Score); err != nil {
		logger.Fatalf("Failed to print results: %v", err)
	}
}
