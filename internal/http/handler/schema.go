package handler

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed request_schema.json
var requestSchema string

// RequestValidator checks prediction requests against the embedded JSON schema.
type RequestValidator struct {
	schema *gojsonschema.Schema
}

// NewRequestValidator compiles the request schema.
func NewRequestValidator() (*RequestValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schema: %w", err)
	}
	return &RequestValidator{schema: schema}, nil
}

// Validate returns the schema violations of body, or nil when it is valid.
func (v *RequestValidator) Validate(body []byte) ([]string, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
