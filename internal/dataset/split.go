package dataset

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSplit is returned when the requested holdout cannot be formed.
var ErrInvalidSplit = errors.New("invalid temporal split")

// DistinctYears returns the distinct years of rows in ascending order.
func DistinctYears(rows []Row) []float64 {
	seen := make(map[float64]struct{})
	years := make([]float64, 0)
	for _, r := range rows {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	sort.Float64s(years)
	return years
}

// SplitByYear holds out the yearsForTest most recent distinct years and
// returns the earlier rows as the training partition. Input order is kept
// inside each partition.
func SplitByYear(rows []Row, yearsForTest int) (train, test []Row, err error) {
	years := DistinctYears(rows)
	if yearsForTest < 1 || yearsForTest >= len(years) {
		return nil, nil, fmt.Errorf("%w: %d test years requested, %d distinct years available",
			ErrInvalidSplit, yearsForTest, len(years))
	}
	cutoff := years[len(years)-yearsForTest]

	for _, r := range rows {
		if r.Year >= cutoff {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	return train, test, nil
}

// Targets returns the life expectancy of each row.
func Targets(rows []Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Target
	}
	return out
}
