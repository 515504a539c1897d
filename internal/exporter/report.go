package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"salespulse/pkg/contracts/domain"
)

// Format selects the output encoding of a report export
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts json, csv or xlsx in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, csv or xlsx)", s)
	}
}

// ReportExporter writes reports to disk or to a stream
type ReportExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewReportExporter creates a new report exporter
func NewReportExporter(logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &ReportExporter{
		csvWriter: NewCSVWriter(logger),
		logger:    logger,
	}
}

// ExportCSV writes one CSV file per view into dir, named
// <prefix>_<view>.csv, and returns the paths written.
func (e *ReportExporter) ExportCSV(report *domain.Report, dir, prefix string) ([]string, error) {
	tables := ReportTables(report)
	paths := make([]string, 0, len(tables))

	for _, t := range tables {
		name := t.Name + ".csv"
		if prefix != "" {
			name = prefix + "_" + name
		}
		path := filepath.Join(dir, name)

		if err := e.csvWriter.WriteCSV(path, WriteOptions{
			Headers:   t.Headers,
			Records:   t.Records(),
			BOMPrefix: true,
		}); err != nil {
			return paths, fmt.Errorf("failed to export %s: %w", t.Name, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// ExportXLSX writes a workbook with one sheet per view to path
func (e *ReportExporter) ExportXLSX(report *domain.Report, path string) error {
	f, err := e.workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Workbook exported", slog.String("file_path", path))
	return nil
}

// WriteXLSX streams the workbook to w
func (e *ReportExporter) WriteXLSX(report *domain.Report, w io.Writer) error {
	f, err := e.workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteJSON encodes an already normalized payload as indented JSON
func (e *ReportExporter) WriteJSON(payload interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (e *ReportExporter) workbook(report *domain.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	for i, t := range ReportTables(report) {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}

		if err := writeSheet(f, t); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, t Table) error {
	headers := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s headers: %w", t.Name, err)
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", t.Name, r+1, err)
		}
	}
	return nil
}
