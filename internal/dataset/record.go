// Package dataset defines the fixed life expectancy schema, turns raw records
// into typed rows, loads the training CSV and splits it by year.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Column names of the raw schema.
const (
	ColYear                = "year"
	ColStatus              = "status"
	ColAdultMortality      = "adult_mortality"
	ColInfantMortalityRate = "infant_mortality_rate"
	ColGDP                 = "gdp"
	ColTotalExpenditure    = "total_expenditure"
	ColIncomeComposition   = "income_composition_of_resources"
	ColPolio               = "polio"
	ColDiphtheria          = "diphtheria"
	ColHIVAIDS             = "hiv_aids"
	ColThinness5to9Years   = "thinness_5-9_years"
	ColThinness10to19Years = "thinness_10-19_years"
	ColAlcohol             = "alcohol"
	ColSchooling           = "schooling"
	ColLifeExpectancy      = "life_expectancy"
	ColCountry             = "country"
)

// FeatureColumns is the ordered set of columns retained from a raw record.
var FeatureColumns = []string{
	ColYear, ColStatus, ColAdultMortality, ColInfantMortalityRate,
	ColGDP, ColTotalExpenditure, ColIncomeComposition,
	ColPolio, ColDiphtheria, ColHIVAIDS, ColThinness5to9Years, ColThinness10to19Years,
	ColAlcohol, ColSchooling,
}

// NumericColumns is FeatureColumns without year and status, in the same order.
// Row.Values is indexed by position in this slice.
var NumericColumns = FeatureColumns[2:]

// NumNumeric is the number of numeric indicator columns.
const NumNumeric = 12

var (
	// ErrMissingField is returned when a required column is absent from a record.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField is returned when a column cannot be read as the expected type.
	ErrInvalidField = errors.New("invalid field value")
)

// Record is a raw observation: a flat mapping of field name to value, as
// decoded from a JSON request body.
type Record map[string]any

// Row is a record reduced to the retained feature columns.
// Missing numeric observations are NaN.
type Row struct {
	Year   float64
	Status string
	Values [NumNumeric]float64
	// Target is the observed life expectancy, NaN when unknown.
	Target float64
	// Country is carried for logging only and never reaches the model.
	Country string
}

// NumericIndex returns the position of name in NumericColumns, or -1.
func NumericIndex(name string) int {
	for i, c := range NumericColumns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the numeric value of the named column.
func (r Row) Value(name string) float64 {
	if name == ColYear {
		return r.Year
	}
	if i := NumericIndex(name); i >= 0 {
		return r.Values[i]
	}
	return math.NaN()
}

// SelectRow keeps the feature columns of rec and drops everything else.
// Every feature column must be present; a JSON null numeric becomes NaN.
func SelectRow(rec Record) (Row, error) {
	row := Row{Target: math.NaN()}

	year, err := requireNumber(rec, ColYear)
	if err != nil {
		return Row{}, err
	}
	row.Year = year

	rawStatus, ok := rec[ColStatus]
	if !ok {
		return Row{}, fmt.Errorf("%w: %s", ErrMissingField, ColStatus)
	}
	status, ok := rawStatus.(string)
	if !ok {
		return Row{}, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidField, ColStatus, rawStatus)
	}
	row.Status = status

	for i, col := range NumericColumns {
		v, err := requireNumber(rec, col)
		if err != nil {
			return Row{}, err
		}
		row.Values[i] = v
	}

	if raw, ok := rec[ColLifeExpectancy]; ok {
		if v, err := toFloat(raw); err == nil {
			row.Target = v
		}
	}
	if c, ok := rec[ColCountry].(string); ok {
		row.Country = c
	}
	return row, nil
}

func requireNumber(rec Record, name string) (float64, error) {
	raw, ok := rec[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	v, err := toFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidField, name, err)
	}
	return v, nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		if v == "" {
			return math.NaN(), nil
		}
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}
