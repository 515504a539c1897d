// Package exporter writes a computed sales report outside the HTTP path.
//
// ReportTables lays the report out as named tables (daily_sales,
// weekly_sales, profile_stats, hourly_stats, filter_options) whose columns
// match the JSON payload. ReportExporter then writes them as one CSV file
// per table, as a single XLSX workbook with one sheet per table, or writes
// the normalized payload as JSON.
//
// Example usage:
//
//	exp := exporter.NewReportExporter(logger)
//	paths, err := exp.ExportCSV(report, "out", "march")
//	err = exp.ExportXLSX(report, "out/march.xlsx")
package exporter
