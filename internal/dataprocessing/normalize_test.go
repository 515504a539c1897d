package dataprocessing

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

func TestNormalize_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"nil", nil, nil},
		{"string", "2024-W01", "2024-W01"},
		{"int widened", 7, int64(7)},
		{"int64", int64(7), int64(7)},
		{"float64", 2.5, 2.5},
		{"decimal", decimal.RequireFromString("66.67"), 66.67},
		{"time becomes date", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC), "2024-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_UnsupportedTypes(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
	}{
		{"int32", int32(1)},
		{"float32", float32(1)},
		{"bool", true},
		{"typed slice", []int64{1}},
		{"pointer", new(float64)},
		{"nested struct", map[string]interface{}{"rows": []interface{}{struct{}{}}}},
		{"NaN", math.NaN()},
		{"Inf", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			assert.Nil(t, got)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNormalizer), "got %v", err)
		})
	}
}

func TestNormalize_PreservesStructure(t *testing.T) {
	in := map[string]interface{}{
		"rows": []interface{}{
			map[string]interface{}{"Date": day("2024-01-01"), "total": dec("30"), "transactions": int64(2)},
		},
		"empty": []interface{}{},
		"range": nil,
	}

	got, err := Normalize(in)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"rows": []interface{}{
			map[string]interface{}{"Date": "2024-01-01", "total": 30.0, "transactions": int64(2)},
		},
		"empty": []interface{}{},
		"range": nil,
	}, got)
}

func TestNormalize_Idempotent(t *testing.T) {
	report, err := NewAnalyzer(nil, WeekMonday).Analyze(testContext(), threeRows(), domain.FilterSpec{})
	require.NoError(t, err)

	once, err := NormalizeReport(report)
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestNormalizeReport_JSONShape(t *testing.T) {
	report, err := NewAnalyzer(nil, WeekMonday).Analyze(testContext(), threeRows(), domain.FilterSpec{})
	require.NoError(t, err)

	payload, err := NormalizeReport(report)
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{"daily_sales", "weekly_sales", "profile_stats", "hourly_stats", "filter_options", "profiles", "price_range", "date_range"} {
		assert.Contains(t, decoded, key)
	}

	daily := decoded["daily_sales"].([]interface{})
	assert.Equal(t, map[string]interface{}{"Date": "2024-01-01", "total": 30.0, "transactions": 2.0}, daily[0])

	weekly := decoded["weekly_sales"].([]interface{})
	assert.Equal(t, map[string]interface{}{"Week": "2024-W01", "sum": 35.0, "count": 3.0}, weekly[0])

	profile := decoded["profile_stats"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "A", profile["Profile"])
	assert.Equal(t, 66.67, profile["percentage"])
	assert.Equal(t, 2.0, profile["tickets_sold"])

	hourly := decoded["hourly_stats"].([]interface{})
	assert.Equal(t, map[string]interface{}{"hour": 8.0, "count": 1.0}, hourly[0])

	options := decoded["filter_options"].(map[string]interface{})
	assert.Equal(t, []interface{}{"A", "B"}, options["profiles"])
	assert.Equal(t, map[string]interface{}{"min": 5.0, "max": 20.0}, options["price_range"])
	assert.Equal(t, map[string]interface{}{"min": "2024-01-01", "max": "2024-01-02"}, options["date_range"])
	assert.Equal(t, options["price_range"], decoded["price_range"])
}

func TestNormalizeReport_EmptyReport(t *testing.T) {
	report, err := NewAnalyzer(nil, WeekMonday).Analyze(testContext(), nil, domain.FilterSpec{})
	require.NoError(t, err)

	payload, err := NormalizeReport(report)
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"daily_sales": [], "weekly_sales": [], "profile_stats": [], "hourly_stats": [],
		"filter_options": {"profiles": [], "price_range": null, "date_range": null},
		"profiles": [], "price_range": null, "date_range": null
	}`, string(data))
}
