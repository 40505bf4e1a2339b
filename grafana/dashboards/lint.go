// Package dashboards holds the Grafana dashboards for the prediction service.
package dashboards

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/xeipuuv/gojsonschema"
)

// FS contains every dashboard definition.
//
//go:embed *_dashboard.json
var FS embed.FS

//go:embed dashboard_schema.json
var schema []byte

// ValidateDashboard は、与えられたダッシュボードのJSONが最低限の構造を満たしているか検証します。
func ValidateDashboard(dashboardJSON []byte) (bool, []gojsonschema.ResultError, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(dashboardJSON),
	)
	if err != nil {
		return false, nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}
	return false, result.Errors(), nil
}

// Names lists the embedded dashboard files.
func Names() ([]string, error) {
	return fs.Glob(FS, "*_dashboard.json")
}
