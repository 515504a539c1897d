package dataprocessing

import (
	"context"
	"log/slog"

	"salespulse/pkg/contracts/domain"
)

// Analyzer runs the filter and aggregation stages over parsed records.
// It is stateless apart from its configuration; every call is independent.
type Analyzer struct {
	weeks  WeekNumbering
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer that labels weeks with the given policy
func NewAnalyzer(logger *slog.Logger, weeks WeekNumbering) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if weeks == "" {
		weeks = WeekMonday
	}
	return &Analyzer{
		weeks:  weeks,
		logger: logger.With(slog.String("component", "analyzer")),
	}
}

// WeekNumbering returns the policy used for weekly views
func (a *Analyzer) WeekNumbering() WeekNumbering {
	return a.weeks
}

// Analyze computes the filter options from the full record set and the four
// views from the filtered set. Either the whole report is returned or an
// error; there are no partial results.
func (a *Analyzer) Analyze(ctx context.Context, records []domain.Transaction, spec domain.FilterSpec) (*domain.Report, error) {
	options := BuildFilterOptions(records)
	filtered := ApplyFilters(records, spec)

	profiles, err := AggregateProfiles(filtered)
	if err != nil {
		a.logger.WarnContext(ctx, "aggregation failed",
			slog.Int("filtered_rows", len(filtered)),
			slog.String("error", err.Error()))
		return nil, err
	}

	report := &domain.Report{
		DailySales:    AggregateDaily(filtered),
		WeeklySales:   AggregateWeekly(filtered, a.weeks),
		ProfileStats:  profiles,
		HourlyStats:   AggregateHourly(filtered),
		FilterOptions: options,
	}

	a.logger.InfoContext(ctx, "report aggregated",
		slog.Int("rows", len(records)),
		slog.Int("filtered_rows", len(filtered)),
		slog.Int("days", len(report.DailySales)),
		slog.Int("weeks", len(report.WeeklySales)),
		slog.Int("profiles", len(report.ProfileStats)),
		slog.String("week_numbering", string(a.weeks)))

	return report, nil
}
