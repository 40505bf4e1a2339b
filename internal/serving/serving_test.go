package serving

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/your-org/lifexp-predictor/internal/bundle"
	"github.com/your-org/lifexp-predictor/internal/config"
	"github.com/your-org/lifexp-predictor/internal/dataset"
	"github.com/your-org/lifexp-predictor/internal/preprocess"
	"github.com/your-org/lifexp-predictor/internal/report"
	"github.com/your-org/lifexp-predictor/internal/training"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Load(ctx context.Context) (*bundle.Bundle, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).(*bundle.Bundle)
	return b, args.Error(1)
}

// afghanistan2015 is a record as posted by API clients, including columns the
// model does not use.
func afghanistan2015() dataset.Record {
	return dataset.Record{
		"country":                         "Afghanistan",
		"year":                            2015.0,
		"status":                          "Developing",
		"adult_mortality":                 263.0,
		"infant_deaths":                   62.0,
		"alcohol":                         0.01,
		"percentage_expenditure":          71.27962362,
		"hepatitis_b":                     65.0,
		"measles":                         1154.0,
		"bmi":                             19.1,
		"under-five_deaths":               83.0,
		"polio":                           6.0,
		"total_expenditure":               8.16,
		"diphtheria":                      65.0,
		"hiv_aids":                        0.1,
		"gdp":                             584.25921,
		"population":                      33736494.0,
		"thinness_10-19_years":            17.2,
		"thinness_5-9_years":              17.3,
		"income_composition_of_resources": 0.479,
		"schooling":                       10.1,
		"infant_mortality_rate":           54.5873152241597,
		"neonatal_mortality_rate":         42.3639686983098,
		"under-five_mortality_rate":       72.6769805471922,
	}
}

var (
	trainOnce   sync.Once
	trainedPath string
	trainErr    error
	bundleDir   string
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "serving-test-")
	if err != nil {
		panic(err)
	}
	bundleDir = dir
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// trainedBundle trains once on the fixture and returns the bundle path.
func trainedBundle(t *testing.T) string {
	t.Helper()
	trainOnce.Do(func() {
		cfg := config.Default().Training
		cfg.InputPath = filepath.Join("..", "dataset", "testdata", "life_expectancy_sample.csv")
		cfg.OutputPath = filepath.Join(bundleDir, "models.bin")
		_, trainErr = training.Run(training.OptionsFromConfig(cfg))
		trainedPath = cfg.OutputPath
	})
	require.NoError(t, trainErr)
	return trainedPath
}

func TestPredict_MatchesTrainingTimePipeline(t *testing.T) {
	path := trainedBundle(t)
	p := NewPredictor(FileSource{Path: path})

	got, err := p.Predict(context.Background(), afghanistan2015())
	require.NoError(t, err)

	// Recompute by hand with the same bundle.
	b, err := bundle.Load(path)
	require.NoError(t, err)
	pipeline, err := b.Pipeline()
	require.NoError(t, err)
	row, err := dataset.SelectRow(afghanistan2015())
	require.NoError(t, err)
	features, err := pipeline.Transform(row)
	require.NoError(t, err)
	pred, err := b.Model.Predict(mat.NewDense(1, len(features), features))
	require.NoError(t, err)
	years, err := preprocess.InverseTarget(b.TargetScaler, pred)
	require.NoError(t, err)

	assert.Equal(t, report.RoundFloat(years[0], 2), got.LifeExpectancy)
	assert.Equal(t, b.Version, got.BundleVersion)
	assert.Equal(t, "Afghanistan", got.Row.Country)
	assert.False(t, math.IsNaN(got.LifeExpectancy))
}

func TestPredict_IsDeterministic(t *testing.T) {
	p := NewPredictor(NewCachedSource(FileSource{Path: trainedBundle(t)}))
	first, err := p.Predict(context.Background(), afghanistan2015())
	require.NoError(t, err)
	second, err := p.Predict(context.Background(), afghanistan2015())
	require.NoError(t, err)
	assert.Equal(t, first.LifeExpectancy, second.LifeExpectancy)
}

func TestPredict_NullAndZeroAreImputed(t *testing.T) {
	p := NewPredictor(FileSource{Path: trainedBundle(t)})

	rec := afghanistan2015()
	rec["gdp"] = nil
	rec["income_composition_of_resources"] = 0.0
	got, err := p.Predict(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got.LifeExpectancy))
}

func TestPredict_UnseenStatus(t *testing.T) {
	p := NewPredictor(FileSource{Path: trainedBundle(t)})
	rec := afghanistan2015()
	rec["status"] = "Least developed"
	_, err := p.Predict(context.Background(), rec)
	assert.NoError(t, err)
}

func TestPredict_MissingField(t *testing.T) {
	src := new(mockSource)
	p := NewPredictor(src)

	rec := afghanistan2015()
	delete(rec, "schooling")
	_, err := p.Predict(context.Background(), rec)
	assert.ErrorIs(t, err, dataset.ErrMissingField)
	src.AssertNotCalled(t, "Load", mock.Anything)
}

func TestPredict_SourceError(t *testing.T) {
	src := new(mockSource)
	loadErr := errors.New("disk on fire")
	src.On("Load", mock.Anything).Return(nil, loadErr).Once()

	_, err := NewPredictor(src).Predict(context.Background(), afghanistan2015())
	assert.ErrorIs(t, err, loadErr)
	src.AssertExpectations(t)
}

func TestFileSource_MissingBundle(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "absent.bin")}.Load(context.Background())
	assert.Error(t, err)
}

func TestCachedSource_LoadsOnceAndRetriesFailures(t *testing.T) {
	b, err := bundle.Load(trainedBundle(t))
	require.NoError(t, err)

	src := new(mockSource)
	src.On("Load", mock.Anything).Return(nil, errors.New("not yet")).Once()
	src.On("Load", mock.Anything).Return(b, nil).Once()

	cached := NewCachedSource(src)
	_, err = cached.Load(context.Background())
	assert.Error(t, err)

	for i := 0; i < 3; i++ {
		got, err := cached.Load(context.Background())
		require.NoError(t, err)
		assert.Same(t, b, got)
	}
	src.AssertNumberOfCalls(t, "Load", 2)
}

func TestNewSource(t *testing.T) {
	assert.IsType(t, FileSource{}, NewSource(config.BundleConfig{Path: "x"}))
	assert.IsType(t, &CachedSource{}, NewSource(config.BundleConfig{Path: "x", Cache: true}))
}
