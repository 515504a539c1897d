package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SalesRow is one data row of a sales export fixture
type SalesRow struct {
	Date     string
	Time     string
	Price    string
	Profile  string
	Username string
}

// ExportPreamble is the report line that precedes the header in real exports
const ExportPreamble = "Sales report generated by hotspot manager"

// SalesExportHeader is the header row of a sales export
const SalesExportHeader = "Date,Time,Username,Profile,Price,Comment"

// SalesExportCSV renders rows as a sales export with one preamble line before the header
func SalesExportCSV(rows ...SalesRow) string {
	var b strings.Builder
	b.WriteString(ExportPreamble)
	b.WriteString("\n")
	b.WriteString(SalesExportHeader)
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strings.Join([]string{r.Date, r.Time, r.Username, r.Profile, r.Price, ""}, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// ThreeRowExport is the canonical three-transaction export:
// two sales on 2024-01-01 (A at 08:00 for 10, B at 09:00 for 20) and one on 2024-01-02 (A at 10:00 for 5).
func ThreeRowExport() []SalesRow {
	return []SalesRow{
		{Date: "2024-01-01", Time: "08:00:00", Price: "10", Profile: "A", Username: "u1"},
		{Date: "2024-01-01", Time: "09:00:00", Price: "20", Profile: "B", Username: "u2"},
		{Date: "2024-01-02", Time: "10:00:00", Price: "5", Profile: "A", Username: "u3"},
	}
}

// WriteSalesExport writes a CSV export into a temp dir and returns its path
func WriteSalesExport(t *testing.T, name string, rows ...SalesRow) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(SalesExportCSV(rows...)), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
