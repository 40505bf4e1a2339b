package serving

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/your-org/lifexp-predictor/internal/dataset"
	"github.com/your-org/lifexp-predictor/internal/preprocess"
	"github.com/your-org/lifexp-predictor/internal/report"
)

// Prediction is the result of one Predict call.
type Prediction struct {
	// LifeExpectancy is in years, rounded to two decimals.
	LifeExpectancy float64
	BundleVersion  string
	Row            dataset.Row
}

// Predictor serves predictions from the bundles of a Source.
type Predictor struct {
	source Source
}

// NewPredictor creates a Predictor reading bundles from source.
func NewPredictor(source Source) *Predictor {
	return &Predictor{source: source}
}

// Predict selects the feature columns of rec, runs them through the bundle's
// pipeline and model and maps the output back to years.
func (p *Predictor) Predict(ctx context.Context, rec dataset.Record) (Prediction, error) {
	row, err := dataset.SelectRow(rec)
	if err != nil {
		return Prediction{}, err
	}
	b, err := p.source.Load(ctx)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to load bundle: %w", err)
	}
	pipeline, err := b.Pipeline()
	if err != nil {
		return Prediction{}, err
	}

	features, err := pipeline.Transform(row)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to preprocess record: %w", err)
	}
	pred, err := b.Model.Predict(mat.NewDense(1, len(features), features))
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to predict: %w", err)
	}
	years, err := preprocess.InverseTarget(b.TargetScaler, pred)
	if err != nil {
		return Prediction{}, err
	}

	return Prediction{
		LifeExpectancy: report.RoundFloat(years[0], 2),
		BundleVersion:  b.Version,
		Row:            row,
	}, nil
}
