package preprocess

import (
	"fmt"
	"math"
	"sort"
)

// RobustScaler centres each column on its median and divides by its
// interquartile range. NaN values are ignored when fitting and pass
// through unchanged.
type RobustScaler struct {
	Center []float64
	Scale  []float64
}

// Fit learns per-column median and IQR. data is row-major with every row
// of equal width.
func (s *RobustScaler) Fit(data [][]float64) error {
	cols, err := columns(data)
	if err != nil {
		return fmt.Errorf("robust scaler: %w", err)
	}
	s.Center = make([]float64, len(cols))
	s.Scale = make([]float64, len(cols))
	for j, col := range cols {
		if len(col) == 0 {
			return fmt.Errorf("robust scaler: column %d has no observed values", j)
		}
		s.Center[j] = percentile(col, 50)
		s.Scale[j] = handleZeroScale(percentile(col, 75) - percentile(col, 25))
	}
	return nil
}

// Transform scales row in place.
func (s *RobustScaler) Transform(row []float64) error {
	if s.Center == nil {
		return ErrNotFitted
	}
	if len(row) != len(s.Center) {
		return fmt.Errorf("%w: robust scaler fitted on %d columns, got %d", ErrShape, len(s.Center), len(row))
	}
	for j := range row {
		row[j] = (row[j] - s.Center[j]) / s.Scale[j]
	}
	return nil
}

// InverseTransform undoes Transform in place.
func (s *RobustScaler) InverseTransform(row []float64) error {
	if s.Center == nil {
		return ErrNotFitted
	}
	if len(row) != len(s.Center) {
		return fmt.Errorf("%w: robust scaler fitted on %d columns, got %d", ErrShape, len(s.Center), len(row))
	}
	for j := range row {
		row[j] = row[j]*s.Scale[j] + s.Center[j]
	}
	return nil
}

// MinMaxScaler maps each column linearly onto [0, 1] using the training
// minimum and maximum. NaN values are ignored when fitting.
type MinMaxScaler struct {
	DataMin []float64
	DataMax []float64
	// Scale and Min give x' = x·Scale + Min.
	Scale []float64
	Min   []float64
}

// Fit learns per-column minimum and maximum.
func (s *MinMaxScaler) Fit(data [][]float64) error {
	cols, err := columns(data)
	if err != nil {
		return fmt.Errorf("min-max scaler: %w", err)
	}
	n := len(cols)
	s.DataMin = make([]float64, n)
	s.DataMax = make([]float64, n)
	s.Scale = make([]float64, n)
	s.Min = make([]float64, n)
	for j, col := range cols {
		if len(col) == 0 {
			return fmt.Errorf("min-max scaler: column %d has no observed values", j)
		}
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		s.DataMin[j] = lo
		s.DataMax[j] = hi
		s.Scale[j] = 1 / handleZeroScale(hi-lo)
		s.Min[j] = -lo * s.Scale[j]
	}
	return nil
}

// Transform scales row in place.
func (s *MinMaxScaler) Transform(row []float64) error {
	if s.Scale == nil {
		return ErrNotFitted
	}
	if len(row) != len(s.Scale) {
		return fmt.Errorf("%w: min-max scaler fitted on %d columns, got %d", ErrShape, len(s.Scale), len(row))
	}
	for j := range row {
		row[j] = row[j]*s.Scale[j] + s.Min[j]
	}
	return nil
}

// columns transposes data and drops NaN cells.
func columns(data [][]float64) ([][]float64, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no rows to fit")
	}
	width := len(data[0])
	cols := make([][]float64, width)
	for i, row := range data {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShape, i, len(row), width)
		}
		for j, v := range row {
			if !math.IsNaN(v) {
				cols[j] = append(cols[j], v)
			}
		}
	}
	return cols, nil
}

// percentile returns the q-th percentile with linear interpolation between
// closest ranks. values is not modified.
func percentile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// handleZeroScale replaces a zero spread by 1 so constant columns map to 0.
func handleZeroScale(v float64) float64 {
	if v == 0 || math.Abs(v) < 10*math.SmallestNonzeroFloat64 {
		return 1
	}
	return v
}
