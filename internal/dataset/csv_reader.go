package dataset

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/your-org/lifexp-predictor/pkg/logger"
)

// LoadRowsFromCSV reads the raw dataset at filePath. The file must have a
// header row naming at least the feature columns and life_expectancy; other
// columns are ignored.
func LoadRowsFromCSV(filePath string) ([]Row, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	rows, err := ReadRows(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	logger.Infof("Loaded %d rows from %s", len(rows), filePath)
	return rows, nil
}

// ReadRows parses CSV data into rows. Rows without an observed
// life_expectancy cannot be used for training and are skipped.
func ReadRows(r io.Reader) ([]Row, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"NA", "NaN", "<nil>", ""}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", df.Err)
	}

	numeric := make([][]float64, len(NumericColumns))
	for i, col := range NumericColumns {
		values, err := floatColumn(df, col)
		if err != nil {
			return nil, err
		}
		numeric[i] = values
	}
	years, err := floatColumn(df, ColYear)
	if err != nil {
		return nil, err
	}
	target, err := floatColumn(df, ColLifeExpectancy)
	if err != nil {
		return nil, err
	}
	status := df.Col(ColStatus)
	if status.Err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, ColStatus)
	}
	statusValues := status.Records()

	var countries []string
	if c := df.Col(ColCountry); c.Err == nil {
		countries = c.Records()
	}

	rows := make([]Row, 0, df.Nrow())
	skipped := 0
	for i := 0; i < df.Nrow(); i++ {
		if math.IsNaN(target[i]) || math.IsNaN(years[i]) {
			skipped++
			continue
		}
		row := Row{
			Year:   years[i],
			Status: statusValues[i],
			Target: target[i],
		}
		for j := range NumericColumns {
			row.Values[j] = numeric[j][i]
		}
		if countries != nil {
			row.Country = countries[i]
		}
		rows = append(rows, row)
	}
	if skipped > 0 {
		logger.Warnf("Skipped %d rows without year or life_expectancy", skipped)
	}
	return rows, nil
}

// LoadRecordsFromCSV reads raw records for batch scoring. Unlike
// LoadRowsFromCSV it keeps rows whose life_expectancy is unknown.
func LoadRecordsFromCSV(filePath string) ([]Record, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()
	return ReadRecords(file)
}

// ReadRecords parses CSV data into records keyed by header name. Cells are
// kept as strings; NA cells become nil.
func ReadRecords(r io.Reader) ([]Record, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"NA", "NaN", "<nil>", ""}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", df.Err)
	}
	maps := df.Maps()
	records := make([]Record, len(maps))
	for i, m := range maps {
		records[i] = Record(m)
	}
	return records, nil
}

// floatColumn reads a column as float64 with empty cells as NaN.
func floatColumn(df dataframe.DataFrame, name string) ([]float64, error) {
	col := df.Col(name)
	if col.Err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	records := col.Records()
	out := make([]float64, len(records))
	for i, rec := range records {
		v, err := toFloat(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", ErrInvalidField, name, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}
