// Package preprocess implements the fitted transformers of the life
// expectancy model and the pipeline that chains them. The same Pipeline
// value is used to build training features and to transform requests, so
// both call sites apply an identical sequence of steps.
package preprocess

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotFitted is returned when a transformer is used before Fit.
	ErrNotFitted = errors.New("transformer is not fitted")
	// ErrShape is returned when input width differs from the fitted width.
	ErrShape = errors.New("input shape mismatch")
)

// OneHotEncoder maps a categorical value to indicator columns, one per
// category seen at fit time. Unknown categories encode to all zeros.
type OneHotEncoder struct {
	Categories []string
}

// Fit learns the sorted set of distinct categories.
func (e *OneHotEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("one-hot encoder: no values to fit")
	}
	seen := make(map[string]struct{})
	cats := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		cats = append(cats, v)
	}
	sort.Strings(cats)
	e.Categories = cats
	return nil
}

// Transform returns the indicator vector for value.
func (e *OneHotEncoder) Transform(value string) ([]float64, error) {
	if e.Categories == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(e.Categories))
	if i := sort.SearchStrings(e.Categories, value); i < len(e.Categories) && e.Categories[i] == value {
		out[i] = 1
	}
	return out, nil
}

// FeatureNames returns prefix_category for each category.
func (e *OneHotEncoder) FeatureNames(prefix string) []string {
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = prefix + "_" + c
	}
	return names
}
