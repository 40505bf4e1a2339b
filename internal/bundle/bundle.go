// Package bundle persists the fitted transformers together with the model
// so they are always loaded and used as one unit.
package bundle

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/lifexp-predictor/internal/learning"
	"github.com/your-org/lifexp-predictor/internal/preprocess"
)

// FormatVersion is bumped whenever the encoded layout changes.
const FormatVersion = 1

var (
	// ErrSchemaMismatch is returned when the stored feature layout does not
	// match what the pipeline or the model expect.
	ErrSchemaMismatch = errors.New("bundle schema mismatch")
	// ErrFormatVersion is returned for bundles written by another layout.
	ErrFormatVersion = errors.New("unsupported bundle format version")
)

// Bundle is the unit written by training and read by serving.
type Bundle struct {
	FormatVersion int
	Version       string
	CreatedAt     time.Time

	// FeatureNames is the processed column order the model was trained on.
	FeatureNames []string

	Encoder      *preprocess.OneHotEncoder
	Imputer      *preprocess.IterativeImputer
	RobustScaler *preprocess.RobustScaler
	MinMaxScaler *preprocess.MinMaxScaler
	TargetScaler *preprocess.RobustScaler
	Model        *learning.HuberRegressor
}

// New captures a fitted pipeline, target scaler and model.
func New(p *preprocess.Pipeline, target *preprocess.RobustScaler, model *learning.HuberRegressor) *Bundle {
	return &Bundle{
		FormatVersion: FormatVersion,
		Version:       fmt.Sprintf("bundle-%s", uuid.New().String()),
		CreatedAt:     time.Now().UTC(),
		FeatureNames:  p.FeatureNames(),
		Encoder:       p.Encoder,
		Imputer:       p.Imputer,
		RobustScaler:  p.RobustScaler,
		MinMaxScaler:  p.MinMaxScaler,
		TargetScaler:  target,
		Model:         model,
	}
}

// Pipeline rebuilds the preprocessing pipeline from the stored transformers.
func (b *Bundle) Pipeline() (*preprocess.Pipeline, error) {
	return preprocess.NewPipeline(b.Encoder, b.Imputer, b.RobustScaler, b.MinMaxScaler)
}

// Verify checks that the stored feature names equal those the pipeline
// produces and that the model takes exactly that many inputs.
func (b *Bundle) Verify() error {
	if b.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrFormatVersion, b.FormatVersion, FormatVersion)
	}
	if b.TargetScaler == nil || b.Model == nil || !b.Model.Fitted {
		return fmt.Errorf("%w: bundle is missing the target scaler or a fitted model", ErrSchemaMismatch)
	}
	p, err := b.Pipeline()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if got := p.FeatureNames(); !slices.Equal(got, b.FeatureNames) {
		return fmt.Errorf("%w: pipeline produces %v, bundle was trained on %v", ErrSchemaMismatch, got, b.FeatureNames)
	}
	if len(b.Model.Coef) != len(b.FeatureNames) {
		return fmt.Errorf("%w: model expects %d inputs, bundle declares %d features",
			ErrSchemaMismatch, len(b.Model.Coef), len(b.FeatureNames))
	}
	return nil
}

// Save writes the bundle to path atomically: it is encoded into a temporary
// file in the same directory and renamed into place.
func Save(path string, b *Bundle) error {
	if err := b.Verify(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create bundle directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".bundle-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := gob.NewEncoder(tmp).Encode(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close bundle: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move bundle into place: %w", err)
	}
	return nil
}

// Load decodes and verifies the bundle at path.
func Load(path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer file.Close()

	var b Bundle
	if err := gob.NewDecoder(file).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	if err := b.Verify(); err != nil {
		return nil, err
	}
	return &b, nil
}
