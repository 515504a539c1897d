package dataprocessing

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Normalize walks v and converts every scalar into int64, float64 or a
// YYYY-MM-DD string. Strings, nil, maps and slices keep their shape; map
// keys are untouched.
//
// The accepted input types are exactly those the aggregation produces:
//
//	string, nil                       unchanged
//	int, int64                        int64
//	float64 (finite)                  float64
//	decimal.Decimal                   float64
//	time.Time                         calendar date string
//	map[string]interface{}            recursed
//	[]interface{}                     recursed
//
// Anything else is a NormalizerTypeError. Normalizing an already normalized
// value returns an equal value.
func Normalize(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, apperrors.NewAppError(apperrors.ErrTypeNormalizer,
				fmt.Sprintf("non-finite float %v cannot be serialized", x), nil)
		}
		return x, nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case time.Time:
		return x.Format(domain.DateLayout), nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, apperrors.NewNormalizerTypeError(v)
	}
}

// NormalizeReport builds the response tree for report and normalizes it.
func NormalizeReport(report *domain.Report) (map[string]interface{}, error) {
	n, err := Normalize(ReportTree(report))
	if err != nil {
		return nil, err
	}
	return n.(map[string]interface{}), nil
}

// ReportTree lays out a report as nested maps and slices using the view and
// metric names of the serialized payload. The filter options are also
// mirrored at the top level for clients that read them there.
func ReportTree(report *domain.Report) map[string]interface{} {
	daily := make([]interface{}, 0, len(report.DailySales))
	for _, d := range report.DailySales {
		daily = append(daily, map[string]interface{}{
			"Date":             d.Date,
			MetricTotal:        d.Total,
			MetricTransactions: d.Transactions,
		})
	}

	weekly := make([]interface{}, 0, len(report.WeeklySales))
	for _, w := range report.WeeklySales {
		weekly = append(weekly, map[string]interface{}{
			"Week":      w.Week,
			MetricSum:   w.Sum,
			MetricCount: w.Count,
		})
	}

	profiles := make([]interface{}, 0, len(report.ProfileStats))
	for _, p := range report.ProfileStats {
		profiles = append(profiles, map[string]interface{}{
			"Profile":               p.Profile,
			MetricTotalSales:        p.TotalSales,
			MetricTotalTransactions: p.TotalTransactions,
			MetricTicketsSold:       p.TicketsSold,
			MetricPercentage:        p.Percentage,
		})
	}

	hourly := make([]interface{}, 0, len(report.HourlyStats))
	for _, h := range report.HourlyStats {
		hourly = append(hourly, map[string]interface{}{
			"hour":      h.Hour,
			MetricCount: h.Count,
		})
	}

	names := make([]interface{}, 0, len(report.FilterOptions.Profiles))
	for _, p := range report.FilterOptions.Profiles {
		names = append(names, p)
	}

	var priceRange, dateRange interface{}
	if pr := report.FilterOptions.PriceRange; pr != nil {
		priceRange = map[string]interface{}{"min": pr.Min, "max": pr.Max}
	}
	if dr := report.FilterOptions.DateRange; dr != nil {
		dateRange = map[string]interface{}{"min": dr.Min, "max": dr.Max}
	}

	return map[string]interface{}{
		DailyView.Name:   daily,
		"weekly_sales":   weekly,
		ProfileView.Name: profiles,
		HourlyView.Name:  hourly,
		"filter_options": map[string]interface{}{
			"profiles":    names,
			"price_range": priceRange,
			"date_range":  dateRange,
		},
		"profiles":    names,
		"price_range": priceRange,
		"date_range":  dateRange,
	}
}
