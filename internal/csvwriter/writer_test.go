package csvwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/lifexp-predictor/internal/dataset"
	"github.com/your-org/lifexp-predictor/internal/serving"
)

var prediction = serving.Prediction{
	LifeExpectancy: 61.5,
	BundleVersion:  "bundle-test",
	Row:            dataset.Row{Country: "Afghanistan", Year: 2015, Status: "Developing"},
}

func TestStreamWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewStreamWriter(&buf, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, w.WritePrediction(prediction))
	require.NoError(t, w.Close())

	assert.Equal(t,
		"country,year,status,life_expectancy,bundle_version\n"+
			"Afghanistan,2015,Developing,61.50,bundle-test\n",
		buf.String())
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "predictions.csv")
	w, err := NewWriter(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.WritePrediction(prediction))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Afghanistan,2015,Developing,61.50,bundle-test")
}

func TestNewWriter_BadPath(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "missing", "out.csv"), zap.NewNop())
	assert.Error(t, err)
}
