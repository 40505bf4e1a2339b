// Package main scores every record of a CSV file with a trained bundle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/your-org/lifexp-predictor/internal/config"
	"github.com/your-org/lifexp-predictor/internal/csvwriter"
	"github.com/your-org/lifexp-predictor/internal/dataset"
	"github.com/your-org/lifexp-predictor/internal/serving"
	"github.com/your-org/lifexp-predictor/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to an optional configuration file")
	input := flag.String("i", "", "Path to the records to score")
	output := flag.String("o", "", "Path to the predictions CSV (default stdout)")
	bundlePath := flag.String("bundle", "", "Path to the model bundle (default from config)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "-i is required")
		flag.Usage()
		os.Exit(2)
	}
	cfg, err := config.LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *bundlePath != "" {
		cfg.Bundle.Path = *bundlePath
	}
	logger.SetGlobalLogLevel(cfg.LogLevel)
	zapLogger := logger.NewZap(cfg.LogLevel)
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := dataset.LoadRecordsFromCSV(*input)
	if err != nil {
		logger.Fatalf("Failed to load records: %v", err)
	}

	var out *csvwriter.Writer
	if *output == "" {
		out, err = csvwriter.NewStreamWriter(os.Stdout, zapLogger)
	} else {
		out, err = csvwriter.NewWriter(*output, zapLogger)
	}
	if err != nil {
		logger.Fatalf("Failed to open output: %v", err)
	}

	// The bundle is read once for the whole file.
	predictor := serving.NewPredictor(serving.NewCachedSource(serving.FileSource{Path: cfg.Bundle.Path}))
	scored := 0
	for i, rec := range records {
		if ctx.Err() != nil {
			break
		}
		p, err := predictor.Predict(ctx, rec)
		if err != nil {
			logger.Warnf("Record %d skipped: %v", i+1, err)
			continue
		}
		if err := out.WritePrediction(p); err != nil {
			logger.Fatalf("Failed to write prediction: %v", err)
		}
		scored++
	}
	if err := out.Close(); err != nil {
		logger.Fatalf("Failed to close output: %v", err)
	}
	logger.Infof("Scored %d of %d records", scored, len(records))
}
