// Package dataprocessing turns a sales export into aggregate views.
//
// # Pipeline
//
//	raw file → Parser → []Transaction ─┬→ BuildFilterOptions ──────────────┐
//	                                   └→ ApplyFilters → Aggregate* → Report → NormalizeReport
//
// Filter options always describe the unfiltered records so a caller can
// offer valid filter values; the views describe the filtered records.
//
// # Views
//
// Each view is a ViewDef: a grouping key, an ordering, and a list of named
// metrics computed by single-pass aggregators (sum of amount, record count,
// ticket-cell count). GroupBy reduces records into buckets; no partial sums
// are shared between views.
//
//	daily_sales    key: calendar date   metrics: total, transactions
//	weekly_sales   key: week label      metrics: sum, count
//	hourly_stats   key: hour 0-23       metrics: count
//	profile_stats  key: profile label   metrics: total_sales, total_transactions, tickets_sold, percentage
//
// Week labels follow a WeekNumbering policy chosen once per process.
// Monetary sums are accumulated as decimal.Decimal.
//
// # Errors
//
// Malformed input yields an ingestion error naming the row and column; the
// parse fails on the first bad row. Bad filter values yield a filter
// validation error naming the field. A profile view whose ticket total is
// zero yields an aggregation invariant error. The normalizer rejects any
// value type outside its closed set.
package dataprocessing
