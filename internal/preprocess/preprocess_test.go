package preprocess

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/lifexp-predictor/internal/dataset"
)

func loadFixture(t *testing.T) []dataset.Row {
	t.Helper()
	rows, err := dataset.LoadRowsFromCSV(filepath.Join("..", "dataset", "testdata", "life_expectancy_sample.csv"))
	require.NoError(t, err)
	return rows
}

func fitFixture(t *testing.T) (*Pipeline, []dataset.Row) {
	t.Helper()
	train, _, err := dataset.SplitByYear(loadFixture(t), 3)
	require.NoError(t, err)
	p, err := Fit(train, DefaultImputerConfig())
	require.NoError(t, err)
	return p, train
}

func TestOneHotEncoder(t *testing.T) {
	enc := &OneHotEncoder{}
	_, err := enc.Transform("Developed")
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, enc.Fit([]string{"Developing", "Developed", "Developing"}))
	assert.Equal(t, []string{"Developed", "Developing"}, enc.Categories)
	assert.Equal(t, []string{"status_Developed", "status_Developing"}, enc.FeatureNames("status"))

	v, err := enc.Transform("Developing")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, v)

	v, err = enc.Transform("Least developed")
	require.NoError(t, err, "unknown categories must not error")
	assert.Equal(t, []float64{0, 0}, v)
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.InDelta(t, 1.75, percentile(values, 25), 1e-12)
	assert.InDelta(t, 2.5, percentile(values, 50), 1e-12)
	assert.InDelta(t, 3.25, percentile(values, 75), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "input is not reordered")
}

func TestRobustScaler(t *testing.T) {
	s := &RobustScaler{}
	require.NoError(t, s.Fit([][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {math.NaN(), 5}}))

	assert.Equal(t, []float64{2.5, 5}, s.Center)
	// IQR of 1..4 with linear interpolation: 3.25 - 1.75
	assert.InDelta(t, 1.5, s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1], "zero IQR is replaced by 1")

	row := []float64{4, 7}
	require.NoError(t, s.Transform(row))
	assert.InDelta(t, 1.0, row[0], 1e-12)
	assert.InDelta(t, 2.0, row[1], 1e-12)

	require.NoError(t, s.InverseTransform(row))
	assert.InDelta(t, 4.0, row[0], 1e-12)
	assert.InDelta(t, 7.0, row[1], 1e-12)

	assert.ErrorIs(t, s.Transform([]float64{1}), ErrShape)
}

func TestMinMaxScaler(t *testing.T) {
	s := &MinMaxScaler{}
	require.NoError(t, s.Fit([][]float64{{0, 3}, {10, 3}, {5, 3}}))

	row := []float64{2.5, 3}
	require.NoError(t, s.Transform(row))
	assert.InDelta(t, 0.25, row[0], 1e-12)
	assert.InDelta(t, 0.0, row[1], 1e-12)

	unfitted := &MinMaxScaler{}
	assert.ErrorIs(t, unfitted.Transform(row), ErrNotFitted)
}

func TestIterativeImputer_UsesCorrelatedColumns(t *testing.T) {
	// x1 = 2·x0 exactly; the imputer should follow that relation rather than
	// falling back to the column mean.
	var X [][]float64
	for i := 0; i < 40; i++ {
		x0 := float64(i)
		X = append(X, []float64{x0, 2 * x0, float64(i % 3)})
	}
	X[5][1] = math.NaN()
	X[30][1] = math.NaN()

	imp := NewIterativeImputer(DefaultImputerConfig())
	require.NoError(t, imp.Fit(X))
	assert.Greater(t, imp.NIter, 0)
	assert.Equal(t, 1, imp.Order[len(imp.Order)-1], "column with missing values is visited last")

	out, err := imp.Transform([]float64{35, math.NaN(), 2})
	require.NoError(t, err)
	assert.InDelta(t, 70.0, out[1], 1.0)
	assert.Equal(t, 35.0, out[0])
}

func TestIterativeImputer_CompleteDataStillRegresses(t *testing.T) {
	var X [][]float64
	for i := 0; i < 40; i++ {
		x0 := float64(i)
		X = append(X, []float64{x0, 2 * x0, float64(i % 3)})
	}

	imp := NewIterativeImputer(DefaultImputerConfig())
	require.NoError(t, imp.Fit(X))
	assert.Equal(t, 1, imp.NIter, "nothing to impute, so the first round converges")
	assert.Len(t, imp.Steps, 3)

	out, err := imp.Transform([]float64{35, math.NaN(), 2})
	require.NoError(t, err)
	assert.InDelta(t, 70.0, out[1], 1.0, "a missing field is regressed, not mean-filled (mean is 39)")

	out, err = imp.Transform([]float64{1, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 0}, out)
}

func TestIterativeImputer_ZeroMaxIterIsMeanFill(t *testing.T) {
	imp := NewIterativeImputer(ImputerConfig{MaxIter: 0, Tol: 1e-3})
	require.NoError(t, imp.Fit([][]float64{{1, 2}, {3, 4}}))
	assert.Empty(t, imp.Steps)

	out, err := imp.Transform([]float64{math.NaN(), 9})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 9}, out)
}

func TestIterativeImputer_Errors(t *testing.T) {
	imp := NewIterativeImputer(DefaultImputerConfig())
	_, err := imp.Transform([]float64{1, 2})
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.Error(t, imp.Fit([][]float64{{math.NaN(), 1}, {math.NaN(), 2}}))
	assert.ErrorIs(t, imp.Fit([][]float64{{1, 2}, {1}}), ErrShape)
}

func TestPipeline_FeatureNames(t *testing.T) {
	p, _ := fitFixture(t)
	assert.Equal(t, []string{
		"adult_mortality", "infant_mortality_rate", "gdp", "total_expenditure",
		"income_composition_of_resources", "polio", "diphtheria", "hiv_aids",
		"thinness_5-9_years", "thinness_10-19_years", "alcohol", "schooling",
		"status_Developed", "status_Developing",
	}, p.FeatureNames())
}

func TestPipeline_TransformIsDeterministic(t *testing.T) {
	p, train := fitFixture(t)
	row := train[3]

	first, err := p.Transform(row)
	require.NoError(t, err)
	second, err := p.Transform(row)
	require.NoError(t, err)

	assert.Len(t, first, len(p.FeatureNames()))
	assert.Equal(t, first, second)
}

func TestPipeline_UnseenStatusEncodesToZero(t *testing.T) {
	p, train := fitFixture(t)
	row := train[0]
	row.Status = "Emerging"

	v, err := p.Transform(row)
	require.NoError(t, err)
	n := len(v)
	assert.Equal(t, []float64{0, 0}, v[n-2:])
}

func TestPipeline_ZeroIncomeCompositionIsImputed(t *testing.T) {
	p, train := fitFixture(t)
	row := train[0]
	idx := dataset.NumericIndex(dataset.ColIncomeComposition)
	row.Values[idx] = 0

	v, err := p.Transform(row)
	require.NoError(t, err)
	// income composition is not scaled, so the output is the imputed value
	assert.NotEqual(t, 0.0, v[idx])
	assert.False(t, math.IsNaN(v[idx]))
	assert.Greater(t, v[idx], 0.0)
	assert.Less(t, v[idx], 1.5)

	// Identical to passing the value as missing.
	row.Values[idx] = math.NaN()
	viaNaN, err := p.Transform(row)
	require.NoError(t, err)
	assert.Equal(t, v, viaNaN)
}

func TestPipeline_ScalesTrainingRangeOntoUnitInterval(t *testing.T) {
	p, train := fitFixture(t)
	X, err := p.TransformRows(train)
	require.NoError(t, err)

	names := p.FeatureNames()
	for col, name := range names {
		for _, mm := range MinMaxColumns {
			if name != mm {
				continue
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for i := 0; i < len(train); i++ {
				v := X.At(i, col)
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			assert.InDelta(t, 0.0, lo, 1e-9, name)
			assert.InDelta(t, 1.0, hi, 1e-9, name)
		}
	}
}

func TestFit_IsReproducible(t *testing.T) {
	train, _, err := dataset.SplitByYear(loadFixture(t), 3)
	require.NoError(t, err)

	a, err := Fit(train, DefaultImputerConfig())
	require.NoError(t, err)
	b, err := Fit(train, DefaultImputerConfig())
	require.NoError(t, err)

	opts := cmp.Options{cmpopts.IgnoreUnexported(Pipeline{}), cmpopts.EquateNaNs()}
	if diff := cmp.Diff(a, b, opts); diff != "" {
		t.Errorf("fitted pipelines differ (-a +b):\n%s", diff)
	}
}

func TestTargetScaler(t *testing.T) {
	s, err := FitTargetScaler([]float64{50, 60, 70, 80})
	require.NoError(t, err)

	scaled, err := ScaleTarget(s, []float64{65, 80})
	require.NoError(t, err)
	back, err := InverseTarget(s, scaled)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{65, 80}, back, 1e-9)
	assert.InDelta(t, 0.0, scaled[0], 1e-9)
}
