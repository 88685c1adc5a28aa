package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"salespulse/pkg/contracts/domain"
)

// SalesHeader is the column layout of the marketplace order export.
var SalesHeader = []string{"index", "Order ID", "Date", "Status", "Category", "Amount", "ship-state"}

// WriteFile writes content to name inside a fresh temp dir and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}

// WriteSalesCSV writes rows under SalesHeader and returns the file path.
func WriteSalesCSV(t *testing.T, rows ...[]string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(strings.Join(SalesHeader, ","))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	return WriteFile(t, "sales.csv", b.String())
}

// Date returns a UTC midnight time pointer, for building records inline.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// TwoLineOrderTable is one order split across two categories in CA.
func TwoLineOrderTable() *domain.SalesTable {
	return &domain.SalesTable{
		HasRegion: true,
		HasDate:   true,
		Records: []domain.SaleRecord{
			{OrderID: "1", Amount: 100, Date: Date(2024, time.January, 1), Category: "X", Region: "CA"},
			{OrderID: "1", Amount: 50, Date: Date(2024, time.January, 2), Category: "Y", Region: "CA"},
		},
	}
}
