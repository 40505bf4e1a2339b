package dashboards

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboard struct {
	Panels []struct {
		Title      string `json:"title"`
		Datasource struct {
			Type string `json:"type"`
		} `json:"datasource"`
		Targets []struct {
			Expr   string `json:"expr"`
			RawSQL string `json:"rawSql"`
		} `json:"targets"`
	} `json:"panels"`
}

// TestDashboardsSchema は、同梱ダッシュボードがスキーマに準拠しているかテストします。
func TestDashboardsSchema(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			data, err := FS.ReadFile(name)
			require.NoError(t, err)

			valid, errs, err := ValidateDashboard(data)
			require.NoError(t, err)
			assert.True(t, valid, "dashboard schema is not valid: %v", errs)
		})
	}
}

func TestDashboardQueriesUseServiceMetrics(t *testing.T) {
	data, err := FS.ReadFile("lifexp_dashboard.json")
	require.NoError(t, err)
	var d dashboard
	require.NoError(t, json.Unmarshal(data, &d))

	for _, p := range d.Panels {
		for _, target := range p.Targets {
			switch p.Datasource.Type {
			case "prometheus":
				assert.Contains(t, target.Expr, "lifexp_", p.Title)
			default:
				assert.True(t, strings.Contains(target.RawSQL, "v_daily_predictions"), p.Title)
			}
		}
	}
}

func TestValidateDashboard_Invalid(t *testing.T) {
	valid, errs, err := ValidateDashboard([]byte(`{"title": "x", "panels": []}`))
	require.NoError(t, err)
	assert.False(t, valid)
	assert.NotEmpty(t, errs)
}
