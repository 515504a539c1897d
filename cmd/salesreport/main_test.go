package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salespulse/internal/exporter"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("SALES_UPLOAD_TEMP_DIR", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{
		"-start-date", "2024-01-01",
		"-profile", "A", "-profile", "B",
		"-min-price", "5",
		"-format", "XLSX",
		"-skip-rows", "0",
		"in.csv",
	}, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", opts.form.StartDate)
	assert.Equal(t, []string{"A", "B"}, opts.form.Profiles)
	assert.Equal(t, "5", opts.form.MinPrice)
	assert.Equal(t, exporter.FormatXLSX, opts.format)
	assert.Equal(t, 0, opts.skipRows)
	assert.Equal(t, 4, opts.concurrency)
	assert.Equal(t, []string{"in.csv"}, opts.inputs)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no inputs", nil},
		{"unknown format", []string{"-format", "pdf", "in.csv"}},
		{"bad concurrency", []string{"-concurrency", "0", "in.csv"}},
		{"unknown flag", []string{"-nope", "in.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			_, err := parseFlags(tt.args, &stderr)
			assert.Error(t, err)
		})
	}
}

func TestRun_JSONStdout(t *testing.T) {
	path := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)

	code, stdout, stderr := runCLI(t, path)
	require.Equal(t, exitOK, code, stderr)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Len(t, payload["daily_sales"], 2)
	assert.Len(t, payload["profile_stats"], 2)
	assert.Contains(t, payload, "filter_options")
}

func TestRun_JSONFiltered(t *testing.T) {
	path := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)

	code, stdout, stderr := runCLI(t, "-profile", "A", "-end-date", "2024-01-01", path)
	require.Equal(t, exitOK, code, stderr)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Len(t, payload["daily_sales"], 1)
	assert.Len(t, payload["profile_stats"], 1)
}

func TestRun_MultipleInputsKeyedByName(t *testing.T) {
	dir := t.TempDir()
	rows := testutil.SalesExportCSV(testutil.ThreeRowExport()...)
	for _, name := range []string{"jan.csv", "feb.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(rows), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	out := filepath.Join(t.TempDir(), "report.json")
	code, stdout, stderr := runCLI(t, "-concurrency", "1", "-out", out, dir)
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var payloads map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payloads))
	assert.Len(t, payloads, 2)
	assert.Contains(t, payloads, "jan.csv")
	assert.Contains(t, payloads, "feb.csv")
}

func TestRun_CSV(t *testing.T) {
	path := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)
	out := t.TempDir()

	code, _, stderr := runCLI(t, "-format", "csv", "-out", out, path)
	require.Equal(t, exitOK, code, stderr)

	for _, table := range []string{
		exporter.TableDailySales,
		exporter.TableWeeklySales,
		exporter.TableProfileStats,
		exporter.TableHourlyStats,
	} {
		assert.FileExists(t, filepath.Join(out, "sales_"+table+".csv"))
	}
}

func TestRun_XLSX(t *testing.T) {
	path := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)
	out := filepath.Join(t.TempDir(), "nested")

	code, _, stderr := runCLI(t, "-format", "xlsx", "-out", out, path)
	require.Equal(t, exitOK, code, stderr)

	f, err := excelize.OpenFile(filepath.Join(out, "sales.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), exporter.TableDailySales)
}

func TestRun_XLSXStdout(t *testing.T) {
	path := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)

	code, stdout, stderr := runCLI(t, "-format", "xlsx", "-out", "-", path)
	require.Equal(t, exitOK, code, stderr)

	f, err := excelize.OpenReader(strings.NewReader(stdout))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), exporter.TableProfileStats)
}

func TestRun_Latest(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "older.csv")
	newer := filepath.Join(dir, "newer.csv")
	require.NoError(t, os.WriteFile(older, []byte(testutil.SalesExportCSV(testutil.ThreeRowExport()...)), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte(testutil.SalesExportCSV(testutil.ThreeRowExport()[:1]...)), 0o644))

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))

	code, stdout, stderr := runCLI(t, "-latest", dir)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "newer.csv")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Len(t, payload["daily_sales"], 1, "single payload, not keyed by file")
}

func TestRun_SkipRowsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noheader.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		testutil.SalesExportHeader+"\n2024-01-01,08:00:00,u1,A,10,\n"), 0o644))

	code, _, _ := runCLI(t, path)
	assert.Equal(t, exitError, code, "default skip-rows eats the header")

	code, stdout, stderr := runCLI(t, "-skip-rows", "0", path)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "daily_sales")
}

func TestRun_Failures(t *testing.T) {
	good := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)
	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("preamble\nfoo,bar\n1,2\n"), 0o644))
	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("not an export"), 0o644))
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	other := testutil.WriteSalesExport(t, "other.csv", testutil.ThreeRowExport()...)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantLog  string
	}{
		{"usage", []string{"-format", "pdf", good}, exitUsage, "unknown export format"},
		{"missing file", []string{filepath.Join(t.TempDir(), "none.csv")}, exitError, "Failed to resolve inputs"},
		{"empty directory", []string{t.TempDir()}, exitError, "No export files found"},
		{"bad filter", []string{"-min-price", "cheap", good}, exitError, "min_price"},
		{"malformed export", []string{good, bad}, exitError, "bad.csv"},
		{"unsupported extension", []string{notes}, exitError, "not a supported export"},
		{"output dir is a file", []string{"-format", "csv", "-out", filepath.Join(blocker, "out"), good}, exitError, "failed to create output directory"},
		{"xlsx stream with several inputs", []string{"-format", "xlsx", "-out", "-", good, other}, exitError, "streams a single workbook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Empty(t, stdout, "no partial output on failure")
			assert.Contains(t, stderr, tt.wantLog)
		})
	}
}

// writeXLSXExport saves a two-row sales export as a workbook at path
func writeXLSXExport(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{testutil.ExportPreamble},
		{"Date", "Time", "Username", "Profile", "Price"},
		{"2024-01-01", "08:00:00", "u1", "A", 10},
		{"2024-01-02", "09:00:00", "u2", "B", 20},
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestRun_DuplicateBaseNames(t *testing.T) {
	a := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)
	b := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)
	xlsxDir := t.TempDir()
	writeXLSXExport(t, filepath.Join(xlsxDir, "sales.xlsx"))

	tests := []struct {
		name string
		args []string
	}{
		{"json keys", []string{a, b}},
		{"same file twice", []string{a, a}},
		{"csv prefixes", []string{"-format", "csv", "-out", t.TempDir(), a, b}},
		{"xlsx across extensions", []string{"-format", "xlsx", "-out", t.TempDir(), a, filepath.Join(xlsxDir, "sales.xlsx")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "duplicate input name")
		})
	}

	// Distinct names that only share a stem are fine as JSON keys
	code, stdout, stderr := runCLI(t, a, filepath.Join(xlsxDir, "sales.xlsx"))
	require.Equal(t, exitOK, code, stderr)
	var payloads map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payloads))
	assert.Len(t, payloads, 2)
}

func TestRun_PriceBoundsAcceptFloatGrammar(t *testing.T) {
	path := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)

	code, stdout, stderr := runCLI(t, "-min-price", "6.", "-max-price", "1e3", path)
	require.Equal(t, exitOK, code, stderr)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Len(t, payload["daily_sales"], 1, "only the 10 and 20 rows on 2024-01-01 remain")
}

func TestProfileList(t *testing.T) {
	var p profileList
	require.NoError(t, p.Set("A"))
	require.NoError(t, p.Set("B"))
	assert.Equal(t, "A,B", p.String())
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "-version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, contracts.GetVersionString())
}
