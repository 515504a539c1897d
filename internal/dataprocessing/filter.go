package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// BuildFilterSpec converts a raw form into a validated filter.
// Empty values mean "not supplied"; a malformed value fails with a
// FilterValidationError naming the field.
func BuildFilterSpec(form domain.FilterForm) (domain.FilterSpec, error) {
	var spec domain.FilterSpec

	start, err := parseFilterDate("start_date", form.StartDate)
	if err != nil {
		return spec, err
	}
	end, err := parseFilterDate("end_date", form.EndDate)
	if err != nil {
		return spec, err
	}
	spec.StartDate, spec.EndDate = start, end

	if spec.MinPrice, err = parseFilterPrice("min_price", form.MinPrice); err != nil {
		return spec, err
	}
	if spec.MaxPrice, err = parseFilterPrice("max_price", form.MaxPrice); err != nil {
		return spec, err
	}

	for _, p := range form.Profiles {
		if p = strings.TrimSpace(p); p != "" {
			spec.Profiles = append(spec.Profiles, p)
		}
	}

	return spec, nil
}

func parseFilterDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return nil, apperrors.NewFilterValidationError(field,
			fmt.Sprintf("%s must be a date in YYYY-MM-DD format, got %q", field, value), err)
	}
	return &t, nil
}

func parseFilterPrice(field, value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperrors.NewFilterValidationError(field,
			fmt.Sprintf("%s must be numeric, got %q", field, value), err)
	}
	return &v, nil
}

// ApplyFilters returns the order-preserving subsequence of records matching
// every predicate in spec. The input slice is never modified.
func ApplyFilters(records []domain.Transaction, spec domain.FilterSpec) []domain.Transaction {
	if spec.IsEmpty() {
		out := make([]domain.Transaction, len(records))
		copy(out, records)
		return out
	}

	var profiles map[string]struct{}
	if len(spec.Profiles) > 0 {
		profiles = make(map[string]struct{}, len(spec.Profiles))
		for _, p := range spec.Profiles {
			profiles[p] = struct{}{}
		}
	}

	out := make([]domain.Transaction, 0, len(records))
	for _, tx := range records {
		if matches(tx, spec, profiles) {
			out = append(out, tx)
		}
	}
	return out
}

func matches(tx domain.Transaction, spec domain.FilterSpec, profiles map[string]struct{}) bool {
	day := tx.Date()
	if spec.StartDate != nil && day.Before(calendarDate(*spec.StartDate)) {
		return false
	}
	if spec.EndDate != nil && day.After(calendarDate(*spec.EndDate)) {
		return false
	}
	if profiles != nil {
		if _, ok := profiles[tx.Profile]; !ok {
			return false
		}
	}
	if spec.MinPrice != nil && tx.Amount < *spec.MinPrice {
		return false
	}
	if spec.MaxPrice != nil && tx.Amount > *spec.MaxPrice {
		return false
	}
	return true
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
