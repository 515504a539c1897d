package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for every date that leaves the pipeline.
const DateLayout = "2006-01-02"

// Transaction represents one row of a sales export
type Transaction struct {
	Timestamp time.Time `json:"timestamp"`
	Amount    float64   `json:"amount"`
	Profile   string    `json:"profile"`

	// TicketID is the secondary identity column (Username in the usual export).
	// HasTicket is false when the cell was empty.
	TicketID  string `json:"ticket_id,omitempty"`
	HasTicket bool   `json:"-"`

	// Extra keeps columns the aggregation does not use, keyed by header label.
	Extra map[string]string `json:"extra,omitempty"`
}

// Date returns the calendar date of the transaction as midnight UTC.
func (t Transaction) Date() time.Time {
	y, m, d := t.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterSpec is a validated filter. Nil pointers and an empty Profiles slice
// mean "no restriction".
type FilterSpec struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Profiles  []string   `json:"profiles,omitempty"`
	MinPrice  *float64   `json:"min_price,omitempty"`
	MaxPrice  *float64   `json:"max_price,omitempty"`
}

// IsEmpty reports whether the filter restricts nothing.
func (f FilterSpec) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && len(f.Profiles) == 0 &&
		f.MinPrice == nil && f.MaxPrice == nil
}

// FilterForm is the raw, unvalidated filter as it arrives from a form or CLI flags.
// Empty strings mean "not supplied".
type FilterForm struct {
	StartDate string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Profiles  []string `json:"profiles"`
	MinPrice  string   `json:"min_price" validate:"omitempty,price"`
	MaxPrice  string   `json:"max_price" validate:"omitempty,price"`
}

// DailySales is one row of the daily view
type DailySales struct {
	Date         time.Time
	Total        decimal.Decimal
	Transactions int64
}

// WeeklySales is one row of the weekly view
type WeeklySales struct {
	Week  string
	Sum   decimal.Decimal
	Count int64
}

// ProfileStats is one row of the by-profile view.
// TicketsSold counts non-empty ticket cells, not distinct ticket IDs.
type ProfileStats struct {
	Profile           string
	TotalSales        decimal.Decimal
	TotalTransactions int64
	TicketsSold       int64
	Percentage        decimal.Decimal
}

// HourlyStats is one row of the hourly view
type HourlyStats struct {
	Hour  int
	Count int64
}

// PriceRange holds global price bounds
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DateRange holds global calendar-date bounds
type DateRange struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// FilterOptions summarizes the unfiltered record set so a caller can build
// valid filters. Price and date ranges are nil for an empty set.
type FilterOptions struct {
	Profiles   []string
	PriceRange *PriceRange
	DateRange  *DateRange
}

// Report is the typed result of one pipeline run, before normalization.
type Report struct {
	DailySales    []DailySales
	WeeklySales   []WeeklySales
	ProfileStats  []ProfileStats
	HourlyStats   []HourlyStats
	FilterOptions FilterOptions
}

// TransactionCount is the number of records that survived filtering
func (r *Report) TransactionCount() int {
	var n int64
	for _, d := range r.DailySales {
		n += d.Transactions
	}
	return int(n)
}
