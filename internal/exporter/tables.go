package exporter

import (
	"salespulse/internal/dataprocessing"
	"salespulse/pkg/contracts/domain"
)

// Table names, one per exported view
const (
	TableDailySales    = "daily_sales"
	TableWeeklySales   = "weekly_sales"
	TableProfileStats  = "profile_stats"
	TableHourlyStats   = "hourly_stats"
	TableFilterOptions = "filter_options"
)

// Table is one exported view: a header row and typed cell values
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// ReportTables lays out every view of report as a table, in a fixed order.
// Column names match the keys of the JSON payload.
func ReportTables(report *domain.Report) []Table {
	daily := Table{
		Name:    TableDailySales,
		Headers: []string{"Date", dataprocessing.MetricTotal, dataprocessing.MetricTransactions},
	}
	for _, d := range report.DailySales {
		daily.Rows = append(daily.Rows, []interface{}{d.Date, d.Total, d.Transactions})
	}

	weekly := Table{
		Name:    TableWeeklySales,
		Headers: []string{"Week", dataprocessing.MetricSum, dataprocessing.MetricCount},
	}
	for _, w := range report.WeeklySales {
		weekly.Rows = append(weekly.Rows, []interface{}{w.Week, w.Sum, w.Count})
	}

	profiles := Table{
		Name: TableProfileStats,
		Headers: []string{
			"Profile",
			dataprocessing.MetricTotalSales,
			dataprocessing.MetricTotalTransactions,
			dataprocessing.MetricTicketsSold,
			dataprocessing.MetricPercentage,
		},
	}
	for _, p := range report.ProfileStats {
		profiles.Rows = append(profiles.Rows, []interface{}{
			p.Profile, p.TotalSales, p.TotalTransactions, p.TicketsSold, p.Percentage,
		})
	}

	hourly := Table{
		Name:    TableHourlyStats,
		Headers: []string{"hour", dataprocessing.MetricCount},
	}
	for _, h := range report.HourlyStats {
		hourly.Rows = append(hourly.Rows, []interface{}{h.Hour, h.Count})
	}

	return []Table{daily, weekly, profiles, hourly, filterOptionsTable(report.FilterOptions)}
}

// filterOptionsTable flattens the options into option/value pairs; absent
// ranges are left out.
func filterOptionsTable(opts domain.FilterOptions) Table {
	t := Table{Name: TableFilterOptions, Headers: []string{"option", "value"}}
	for _, p := range opts.Profiles {
		t.Rows = append(t.Rows, []interface{}{"profile", p})
	}
	if pr := opts.PriceRange; pr != nil {
		t.Rows = append(t.Rows,
			[]interface{}{"price_min", pr.Min},
			[]interface{}{"price_max", pr.Max})
	}
	if dr := opts.DateRange; dr != nil {
		t.Rows = append(t.Rows,
			[]interface{}{"date_min", dr.Min},
			[]interface{}{"date_max", dr.Max})
	}
	return t
}

// Records renders the table rows as CSV strings
func (t Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = formatCell(v)
		}
		records[i] = rec
	}
	return records
}
