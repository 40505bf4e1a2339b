package training

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/lifexp-predictor/internal/bundle"
	"github.com/your-org/lifexp-predictor/internal/config"
	"github.com/your-org/lifexp-predictor/internal/dataset"
)

var fixture = filepath.Join("..", "dataset", "testdata", "life_expectancy_sample.csv")

func testOptions(t *testing.T) Options {
	t.Helper()
	cfg := config.Default().Training
	cfg.InputPath = fixture
	cfg.OutputPath = filepath.Join(t.TempDir(), "app", "models.bin")
	return OptionsFromConfig(cfg)
}

func loadRows(t *testing.T) []dataset.Row {
	t.Helper()
	rows, err := dataset.LoadRowsFromCSV(fixture)
	require.NoError(t, err)
	return rows
}

func TestTrain_ScoresBothPartitions(t *testing.T) {
	res, err := Train(loadRows(t), testOptions(t))
	require.NoError(t, err)

	// 16 countries, 2013..2015 held out
	assert.Equal(t, 48, res.TestRows)
	assert.Equal(t, 80, res.TrainRows)

	assert.Equal(t, "HuberRegressor", res.Score.Model)
	assert.True(t, res.Score.RMSETest.IsPositive())
	assert.False(t, res.Score.MSETrainStd.IsNegative())
	assert.Less(t, res.Score.RMSETrain.InexactFloat64(), 20.0)
	require.NoError(t, res.Bundle.Verify())
}

func TestTrain_IsReproducible(t *testing.T) {
	rows := loadRows(t)
	a, err := Train(rows, testOptions(t))
	require.NoError(t, err)
	b, err := Train(rows, testOptions(t))
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.IgnoreFields(bundle.Bundle{}, "Version", "CreatedAt"),
		cmpopts.EquateNaNs(),
	}
	if diff := cmp.Diff(a.Bundle, b.Bundle, opts); diff != "" {
		t.Errorf("bundles differ (-a +b):\n%s", diff)
	}
	assert.True(t, a.Score.RMSETest.Equal(b.Score.RMSETest))
}

func TestTrain_InvalidSplit(t *testing.T) {
	opts := testOptions(t)
	opts.YearsForTest = 0
	_, err := Train(loadRows(t), opts)
	assert.ErrorIs(t, err, dataset.ErrInvalidSplit)

	opts.YearsForTest = 8
	_, err = Train(loadRows(t), opts)
	assert.ErrorIs(t, err, dataset.ErrInvalidSplit)
}

func TestRun_WritesLoadableBundle(t *testing.T) {
	opts := testOptions(t)
	res, err := Run(opts)
	require.NoError(t, err)
	assert.FileExists(t, opts.OutputPath)

	loaded, err := bundle.Load(opts.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, res.Bundle.Version, loaded.Version)
	assert.Equal(t, res.Bundle.Model.Coef, loaded.Model.Coef)
}

func TestRun_MissingInput(t *testing.T) {
	opts := testOptions(t)
	opts.InputPath = filepath.Join(t.TempDir(), "absent.csv")
	_, err := Run(opts)
	assert.Error(t, err)
	assert.NoFileExists(t, opts.OutputPath)
}
