package preprocess

import (
	"fmt"
	"math"

	"github.com/your-org/lifexp-predictor/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

// StatusPrefix names the one-hot columns of the status field.
const StatusPrefix = dataset.ColStatus

// RobustColumns are the skewed columns scaled by median and IQR.
var RobustColumns = []string{
	dataset.ColGDP, dataset.ColTotalExpenditure, dataset.ColAlcohol, dataset.ColSchooling,
}

// MinMaxColumns are the bounded columns scaled onto [0, 1].
var MinMaxColumns = []string{
	dataset.ColAdultMortality, dataset.ColInfantMortalityRate, dataset.ColPolio, dataset.ColDiphtheria,
	dataset.ColHIVAIDS, dataset.ColThinness5to9Years, dataset.ColThinness10to19Years,
}

// Pipeline holds the fitted feature transformers. Transform applies, in
// order: one-hot encoding of status, zero-to-missing for income
// composition, iterative imputation, robust and min-max scaling, and
// finally drops the year column.
type Pipeline struct {
	Encoder       *OneHotEncoder
	Imputer       *IterativeImputer
	RobustScaler  *RobustScaler
	MinMaxScaler  *MinMaxScaler
	robustIdx     []int
	minMaxIdx     []int
	incomeCompIdx int
}

// NewPipeline assembles a pipeline from already fitted transformers, such
// as ones decoded from a bundle.
func NewPipeline(enc *OneHotEncoder, imp *IterativeImputer, robust *RobustScaler, minMax *MinMaxScaler) (*Pipeline, error) {
	if enc == nil || imp == nil || robust == nil || minMax == nil {
		return nil, fmt.Errorf("%w: pipeline needs all four transformers", ErrNotFitted)
	}
	p := &Pipeline{Encoder: enc, Imputer: imp, RobustScaler: robust, MinMaxScaler: minMax}
	p.robustIdx = encodedIndices(RobustColumns)
	p.minMaxIdx = encodedIndices(MinMaxColumns)
	p.incomeCompIdx = encodedIndex(dataset.ColIncomeComposition)
	return p, nil
}

// Fit learns every transformer from the training rows only.
func Fit(rows []dataset.Row, cfg ImputerConfig) (*Pipeline, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("pipeline: no training rows")
	}

	statuses := make([]string, len(rows))
	for i, r := range rows {
		statuses[i] = r.Status
	}
	enc := &OneHotEncoder{}
	if err := enc.Fit(statuses); err != nil {
		return nil, err
	}

	robust := &RobustScaler{}
	if err := robust.Fit(selectColumns(rows, RobustColumns)); err != nil {
		return nil, err
	}
	minMax := &MinMaxScaler{}
	if err := minMax.Fit(selectColumns(rows, MinMaxColumns)); err != nil {
		return nil, err
	}

	p, err := NewPipeline(enc, NewIterativeImputer(cfg), robust, minMax)
	if err != nil {
		return nil, err
	}

	encoded := make([][]float64, len(rows))
	for i, r := range rows {
		v, err := p.encode(r)
		if err != nil {
			return nil, err
		}
		encoded[i] = v
	}
	if err := p.Imputer.Fit(encoded); err != nil {
		return nil, err
	}
	return p, nil
}

// FeatureNames returns the processed column names in model input order.
func (p *Pipeline) FeatureNames() []string {
	names := append([]string(nil), dataset.NumericColumns...)
	return append(names, p.Encoder.FeatureNames(StatusPrefix)...)
}

// Transform turns one row into the model input vector.
func (p *Pipeline) Transform(row dataset.Row) ([]float64, error) {
	encoded, err := p.encode(row)
	if err != nil {
		return nil, err
	}
	imputed, err := p.Imputer.Transform(encoded)
	if err != nil {
		return nil, fmt.Errorf("imputation failed: %w", err)
	}
	if err := scaleSubset(imputed, p.robustIdx, p.RobustScaler.Transform); err != nil {
		return nil, err
	}
	if err := scaleSubset(imputed, p.minMaxIdx, p.MinMaxScaler.Transform); err != nil {
		return nil, err
	}
	// column 0 is year
	return imputed[1:], nil
}

// TransformRows transforms every row into a design matrix.
func (p *Pipeline) TransformRows(rows []dataset.Row) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("pipeline: no rows to transform")
	}
	var out *mat.Dense
	for i, r := range rows {
		v, err := p.Transform(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if out == nil {
			out = mat.NewDense(len(rows), len(v), nil)
		}
		out.SetRow(i, v)
	}
	return out, nil
}

// encode lays out year, the numeric columns and the status indicators,
// with a zero income composition marked missing.
func (p *Pipeline) encode(row dataset.Row) ([]float64, error) {
	indicators, err := p.Encoder.Transform(row.Status)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, 1+dataset.NumNumeric+len(indicators))
	out = append(out, row.Year)
	out = append(out, row.Values[:]...)
	out = append(out, indicators...)
	if out[p.incomeCompIdx] == 0 {
		out[p.incomeCompIdx] = math.NaN()
	}
	return out, nil
}

// FitTargetScaler fits the robust scaler used for life expectancy.
func FitTargetScaler(y []float64) (*RobustScaler, error) {
	data := make([][]float64, len(y))
	for i, v := range y {
		data[i] = []float64{v}
	}
	s := &RobustScaler{}
	if err := s.Fit(data); err != nil {
		return nil, fmt.Errorf("target scaler: %w", err)
	}
	return s, nil
}

// ScaleTarget maps life expectancy values into model units.
func ScaleTarget(s *RobustScaler, y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	for i, v := range y {
		cell := []float64{v}
		if err := s.Transform(cell); err != nil {
			return nil, err
		}
		out[i] = cell[0]
	}
	return out, nil
}

// InverseTarget maps model outputs back to years of life expectancy.
func InverseTarget(s *RobustScaler, y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	for i, v := range y {
		cell := []float64{v}
		if err := s.InverseTransform(cell); err != nil {
			return nil, err
		}
		out[i] = cell[0]
	}
	return out, nil
}

func scaleSubset(vec []float64, idx []int, transform func([]float64) error) error {
	sub := make([]float64, len(idx))
	for k, j := range idx {
		sub[k] = vec[j]
	}
	if err := transform(sub); err != nil {
		return err
	}
	for k, j := range idx {
		vec[j] = sub[k]
	}
	return nil
}

func selectColumns(rows []dataset.Row, cols []string) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		v := make([]float64, len(cols))
		for k, c := range cols {
			v[k] = r.Value(c)
		}
		out[i] = v
	}
	return out
}

// encodedIndex is the position of a numeric column in the encoded layout.
func encodedIndex(name string) int {
	return 1 + dataset.NumericIndex(name)
}

func encodedIndices(names []string) []int {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = encodedIndex(n)
	}
	return out
}
