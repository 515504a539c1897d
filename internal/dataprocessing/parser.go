package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Default column labels of a sales export
const (
	DefaultDateColumn    = "Date"
	DefaultTimeColumn    = "Time"
	DefaultAmountColumn  = "Price"
	DefaultProfileColumn = "Profile"
	DefaultTicketColumn  = "Username"
)

// ParseOptions controls how raw tabular input is mapped onto transactions.
type ParseOptions struct {
	// SkipRows leading rows are discarded before the header row is read.
	SkipRows int

	DateColumn    string
	TimeColumn    string
	AmountColumn  string
	ProfileColumn string
	TicketColumn  string

	// RequireTicketColumn makes a missing ticket column an ingestion error.
	// When false and the column is absent, every row counts as one ticket.
	RequireTicketColumn bool

	// DateLayouts and TimeLayouts are tried in order; every combination is attempted.
	DateLayouts []string
	TimeLayouts []string

	// Location timestamps are interpreted in. Defaults to UTC.
	Location *time.Location
}

// DefaultParseOptions returns the options matching the usual sales export:
// one report line above the header and the standard column labels.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		SkipRows:            1,
		DateColumn:          DefaultDateColumn,
		TimeColumn:          DefaultTimeColumn,
		AmountColumn:        DefaultAmountColumn,
		ProfileColumn:       DefaultProfileColumn,
		TicketColumn:        DefaultTicketColumn,
		RequireTicketColumn: true,
		DateLayouts:         []string{"2006-01-02", "2006/01/02", "01/02/2006", "1/2/2006", "1/2/06", "Jan/02/2006", "02-Jan-2006"},
		TimeLayouts:         []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM"},
		Location:            time.UTC,
	}
}

func (o ParseOptions) withDefaults() ParseOptions {
	def := DefaultParseOptions()
	if o.SkipRows < 0 {
		o.SkipRows = 0
	}
	if o.DateColumn == "" {
		o.DateColumn = def.DateColumn
	}
	if o.TimeColumn == "" {
		o.TimeColumn = def.TimeColumn
	}
	if o.AmountColumn == "" {
		o.AmountColumn = def.AmountColumn
	}
	if o.ProfileColumn == "" {
		o.ProfileColumn = def.ProfileColumn
	}
	if o.TicketColumn == "" {
		o.TicketColumn = def.TicketColumn
	}
	if len(o.DateLayouts) == 0 {
		o.DateLayouts = def.DateLayouts
	}
	if len(o.TimeLayouts) == 0 {
		o.TimeLayouts = def.TimeLayouts
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Parser turns a sales export into an ordered sequence of transactions.
// It keeps no state between calls and is safe for concurrent use.
type Parser struct {
	opts   ParseOptions
	logger *slog.Logger
}

// NewParser creates a parser. Zero-valued options fall back to DefaultParseOptions.
func NewParser(logger *slog.Logger, opts ParseOptions) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		opts:   opts.withDefaults(),
		logger: logger.With(slog.String("component", "parser")),
	}
}

// Options returns the effective parse options
func (p *Parser) Options() ParseOptions {
	return p.opts
}

// SupportedExtension reports whether name has an extension the parser can read.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// ParseFile opens path and parses it according to its extension.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open input file", err)
	}
	defer f.Close()

	return p.Parse(ctx, filepath.Base(path), f)
}

// Parse dispatches on the extension of name.
func (p *Parser) Parse(ctx context.Context, name string, r io.Reader) ([]domain.Transaction, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return p.ParseCSV(ctx, r)
	case ".xlsx":
		return p.ParseXLSX(ctx, r)
	default:
		return nil, apperrors.NewIngestionError(fmt.Sprintf("unsupported file type %q", filepath.Ext(name)), nil)
	}
}

// ParseCSV reads comma-separated input. Rows may have differing field counts
// since the leading report lines rarely match the header width.
func (p *Parser) ParseCSV(ctx context.Context, r io.Reader) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, apperrors.NewIngestionError(fmt.Sprintf("malformed CSV on line %d", parseErr.Line), err).
					WithContext("row", parseErr.Line)
			}
			return nil, apperrors.NewIngestionError("failed to read CSV input", err)
		}
		rows = append(rows, record)
	}

	return p.parseRows(ctx, rows)
}

// ParseXLSX reads the first sheet of a workbook
func (p *Parser) ParseXLSX(ctx context.Context, r io.Reader) ([]domain.Transaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewIngestionError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewIngestionError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewIngestionError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}

	p.logger.DebugContext(ctx, "read workbook sheet",
		slog.String("sheet", sheets[0]),
		slog.Int("rows", len(rows)))

	return p.parseRows(ctx, rows)
}

// columnIndex maps header labels to column positions
type columnIndex struct {
	date, time, amount, profile, ticket int
	labels                              []string
}

func (p *Parser) resolveColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	labels := make([]string, len(header))
	for i, h := range header {
		label := strings.TrimSpace(h)
		labels[i] = label
		if _, seen := positions[label]; !seen {
			positions[label] = i
		}
	}

	idx := columnIndex{ticket: -1, labels: labels}
	required := []struct {
		label string
		dst   *int
	}{
		{p.opts.DateColumn, &idx.date},
		{p.opts.TimeColumn, &idx.time},
		{p.opts.AmountColumn, &idx.amount},
		{p.opts.ProfileColumn, &idx.profile},
	}
	for _, col := range required {
		pos, ok := positions[col.label]
		if !ok {
			return idx, apperrors.NewIngestionError(fmt.Sprintf("missing required column %q", col.label), nil).
				WithContext("column", col.label)
		}
		*col.dst = pos
	}

	if pos, ok := positions[p.opts.TicketColumn]; ok {
		idx.ticket = pos
	} else if p.opts.RequireTicketColumn {
		return idx, apperrors.NewIngestionError(fmt.Sprintf("missing required column %q", p.opts.TicketColumn), nil).
			WithContext("column", p.opts.TicketColumn)
	}

	return idx, nil
}

func (p *Parser) parseRows(ctx context.Context, rows [][]string) ([]domain.Transaction, error) {
	start := p.opts.SkipRows
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start >= len(rows) {
		return nil, apperrors.NewIngestionError("input has no header row", nil)
	}

	header := rows[start]
	cols, err := p.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Transaction, 0, len(rows)-start-1)
	for i := start + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		// Row numbers are 1-based lines of the input file
		tx, err := p.parseRow(row, cols, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, tx)
	}

	p.logger.InfoContext(ctx, "parsed sales export",
		slog.Int("rows", len(records)),
		slog.Int("skipped_rows", p.opts.SkipRows),
		slog.Int("columns", len(header)))

	return records, nil
}

func (p *Parser) parseRow(row []string, cols columnIndex, line int) (domain.Transaction, error) {
	dateCell := cell(row, cols.date)
	timeCell := cell(row, cols.time)

	ts, err := p.parseTimestamp(dateCell, timeCell)
	if err != nil {
		return domain.Transaction{}, apperrors.NewIngestionError(
			fmt.Sprintf("row %d: cannot combine %q and %q into a timestamp", line, dateCell, timeCell), err).
			WithContext("row", line).
			WithContext("column", p.opts.DateColumn)
	}

	amountCell := cell(row, cols.amount)
	amount, err := parseAmount(amountCell)
	if err != nil {
		return domain.Transaction{}, apperrors.NewIngestionError(
			fmt.Sprintf("row %d: %s value %q is not a number", line, p.opts.AmountColumn, amountCell), err).
			WithContext("row", line).
			WithContext("column", p.opts.AmountColumn)
	}

	tx := domain.Transaction{
		Timestamp: ts,
		Amount:    amount,
		Profile:   cell(row, cols.profile),
		HasTicket: true,
	}
	if cols.ticket >= 0 {
		tx.TicketID = cell(row, cols.ticket)
		tx.HasTicket = tx.TicketID != ""
	}

	for i, label := range cols.labels {
		if i == cols.date || i == cols.time || i == cols.amount || i == cols.profile || i == cols.ticket || label == "" {
			continue
		}
		if v := cell(row, i); v != "" {
			if tx.Extra == nil {
				tx.Extra = make(map[string]string)
			}
			tx.Extra[label] = v
		}
	}

	return tx, nil
}

func (p *Parser) parseTimestamp(dateCell, timeCell string) (time.Time, error) {
	if dateCell == "" || timeCell == "" {
		return time.Time{}, errors.New("empty date or time")
	}

	var lastErr error
	for _, dl := range p.opts.DateLayouts {
		for _, tl := range p.opts.TimeLayouts {
			ts, err := time.ParseInLocation(dl+" "+tl, dateCell+" "+timeCell, p.opts.Location)
			if err == nil {
				return ts, nil
			}
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite amount %q", s)
	}
	return v, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
