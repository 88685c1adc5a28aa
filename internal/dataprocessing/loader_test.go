package dataprocessing

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salespulse/internal/config"
	"salespulse/internal/errors"
	"salespulse/internal/shared/testutil"
)

func newTestLoader(t *testing.T) *Loader {
	logger, _ := testutil.NewTestLogger(t)
	return NewLoader(logger, LoaderConfig{DateLayouts: config.DefaultDateLayouts()})
}

func TestLoader_LoadCSV(t *testing.T) {
	path := testutil.WriteSalesCSV(t,
		[]string{"0", "A1", "01-01-24", "Shipped", "X", "100", "CA"},
		[]string{"1", "A1", "01-01-24", "Shipped", "Y", "50.00", "CA"},
		[]string{"2", "A2", "01-02-24", "Cancelled", "X", "", "NY"},
	)

	table, stats, err := newTestLoader(t).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "csv", stats.Format)
	assert.Equal(t, 3, stats.RowsRead)
	assert.Equal(t, 2, stats.RowsKept)
	assert.Equal(t, 1, stats.DroppedMissingAmount)
	assert.Equal(t, 1, stats.Dropped())

	require.Equal(t, 2, table.Len())
	assert.True(t, table.HasRegion)
	assert.True(t, table.HasDate)

	first := table.Records[0]
	assert.Equal(t, "A1", first.OrderID)
	assert.Equal(t, 100.0, first.Amount)
	assert.Equal(t, "X", first.Category)
	assert.Equal(t, "CA", first.Region)
	require.NotNil(t, first.Date)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), *first.Date)
}

func TestLoader_CleaningRules(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantKept   int
		wantStats  LoadStats
		wantRegion bool
		wantDate   bool
		check      func(t *testing.T, recs []recordView)
	}{
		{
			name: "unparseable dates become missing",
			content: "Order ID,Date,Category,Amount,ship-state\n" +
				"A1,not-a-date,X,10,CA\n" +
				"A2,2024-03-01,X,20,CA\n",
			wantKept:   2,
			wantStats:  LoadStats{RowsRead: 2, RowsKept: 2, InvalidDates: 1},
			wantRegion: true,
			wantDate:   true,
			check: func(t *testing.T, recs []recordView) {
				assert.False(t, recs[0].hasDate)
				assert.True(t, recs[1].hasDate)
			},
		},
		{
			name: "null tokens and garbage amounts are dropped",
			content: "Order ID,Date,Category,Amount,ship-state\n" +
				"A1,2024-03-01,X,NaN,CA\n" +
				"A2,2024-03-01,X,abc,CA\n" +
				"A3,2024-03-01,X,\"1,250.50\",CA\n",
			wantKept:   1,
			wantStats:  LoadStats{RowsRead: 3, RowsKept: 1, DroppedMissingAmount: 1, InvalidAmount: 1},
			wantRegion: true,
			wantDate:   true,
			check: func(t *testing.T, recs []recordView) {
				assert.Equal(t, 1250.5, recs[0].amount)
			},
		},
		{
			name: "region and date columns are optional",
			content: "order id,CATEGORY, amount \n" +
				"A1,X,5\n",
			wantKept:  1,
			wantStats: LoadStats{RowsRead: 1, RowsKept: 1},
		},
		{
			name: "ragged rows are padded with blanks",
			content: "Order ID,Category,Amount,ship-state\n" +
				"A1,X,5\n",
			wantKept:   1,
			wantStats:  LoadStats{RowsRead: 1, RowsKept: 1},
			wantRegion: true,
			check: func(t *testing.T, recs []recordView) {
				assert.Empty(t, recs[0].region)
			},
		},
		{
			name:       "semicolon delimiter and BOM",
			content:    "\ufeffOrder ID;Category;Amount;ship-state\nA1;X;7;MH\n",
			wantKept:   1,
			wantStats:  LoadStats{RowsRead: 1, RowsKept: 1},
			wantRegion: true,
			check: func(t *testing.T, recs []recordView) {
				assert.Equal(t, "MH", recs[0].region)
				assert.Equal(t, 7.0, recs[0].amount)
			},
		},
		{
			name: "semicolon exports use decimal commas",
			content: "Order ID;Date;Category;Amount;ship-state\n" +
				"A1;2024-01-01;X;12,50;CA\n" +
				"A2;2024-01-01;X;1.250,75;CA\n" +
				"A3;2024-01-01;X;3.5;CA\n",
			wantKept:   3,
			wantStats:  LoadStats{RowsRead: 3, RowsKept: 3},
			wantRegion: true,
			wantDate:   true,
			check: func(t *testing.T, recs []recordView) {
				assert.Equal(t, 12.5, recs[0].amount)
				assert.Equal(t, 1250.75, recs[1].amount)
				assert.Equal(t, 3.5, recs[2].amount)
			},
		},
		{
			name: "decimal comma in a comma export is rejected",
			content: "Order ID,Date,Category,Amount\n" +
				"A1,2024-01-01,X,\"12,50\"\n" +
				"A2,2024-01-01,X,4\n",
			wantKept:  1,
			wantStats: LoadStats{RowsRead: 2, RowsKept: 1, InvalidAmount: 1},
			wantDate:  true,
			check: func(t *testing.T, recs []recordView) {
				assert.Equal(t, 4.0, recs[0].amount)
			},
		},
		{
			name:      "quoted header cell spanning lines",
			content:   "\"Order\nID\",Category,Amount\nA1,X,5\n",
			wantKept:  1,
			wantStats: LoadStats{RowsRead: 1, RowsKept: 1},
			check: func(t *testing.T, recs []recordView) {
				assert.Equal(t, "A1", recs[0].orderID)
			},
		},
		{
			name:       "tab delimiter",
			content:    "Order ID\tCategory\tAmount\nA1\tX\t3\n",
			wantKept:   1,
			wantStats:  LoadStats{Format: "tsv", RowsRead: 1, RowsKept: 1},
			wantRegion: false,
		},
		{
			name: "blank cells are nulls",
			content: "Order ID,Category,Amount,ship-state\n" +
				" ,  ,5,nan\n",
			wantKept:   1,
			wantStats:  LoadStats{RowsRead: 1, RowsKept: 1},
			wantRegion: true,
			check: func(t *testing.T, recs []recordView) {
				assert.Empty(t, recs[0].orderID)
				assert.Empty(t, recs[0].category)
				assert.Empty(t, recs[0].region)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, stats, err := newTestLoader(t).LoadReader(context.Background(), strings.NewReader(tt.content))
			require.NoError(t, err)

			if tt.wantStats.Format == "" {
				tt.wantStats.Format = "csv"
			}
			assert.Equal(t, tt.wantStats, stats)
			assert.Equal(t, tt.wantKept, table.Len())
			assert.Equal(t, tt.wantRegion, table.HasRegion)
			assert.Equal(t, tt.wantDate, table.HasDate)

			if tt.check != nil {
				views := make([]recordView, 0, table.Len())
				for _, r := range table.Records {
					views = append(views, recordView{
						orderID:  r.OrderID,
						amount:   r.Amount,
						category: r.Category,
						region:   r.Region,
						hasDate:  r.HasDate(),
					})
				}
				tt.check(t, views)
			}
		})
	}
}

type recordView struct {
	orderID  string
	amount   float64
	category string
	region   string
	hasDate  bool
}

func TestLoader_Errors(t *testing.T) {
	loader := newTestLoader(t)

	t.Run("missing file", func(t *testing.T) {
		_, _, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
		assert.True(t, stderrors.Is(err, os.ErrNotExist))
	})

	t.Run("missing required column", func(t *testing.T) {
		_, _, err := loader.LoadReader(context.Background(), strings.NewReader("Order ID,Category\nA1,X\n"))
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrMissingColumn))
		assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := loader.LoadReader(context.Background(), strings.NewReader(""))
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
	})

	t.Run("cancelled context", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("Order ID,Category,Amount\n")
		for i := 0; i < cancelCheckInterval+1; i++ {
			b.WriteString("A,X,1\n")
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := loader.LoadReader(ctx, strings.NewReader(b.String()))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoader_LoadExcel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Order ID", "Date", "Category", "Amount", "ship-state"},
		{"A1", "2024-01-01", "X", 100, "CA"},
		{"A1", "2024-01-01", "Y", 50, "CA"},
		{},
		{"A2", "2024-01-02", "X", nil, "NY"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, stats, err := newTestLoader(t).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "xlsx", stats.Format)
	assert.Equal(t, 3, stats.RowsRead)
	assert.Equal(t, 2, stats.RowsKept)
	assert.Equal(t, 1, stats.DroppedMissingAmount)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 150.0, table.Records[0].Amount+table.Records[1].Amount)
	assert.True(t, table.Records[0].HasDate())
}

func TestLoader_ExcelMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	logger, _ := testutil.NewTestLogger(t)
	loader := NewLoader(logger, LoaderConfig{Sheet: "Orders"})

	_, _, err := loader.Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{"single", ','},
		{"a;b,c;d", ';'},
		{`"a;b";c,d,e`, ','},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sniffDelimiter(tt.line), tt.line)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw          string
		decimalComma bool
		want         float64
		wantErr      bool
	}{
		{raw: "100", want: 100},
		{raw: "-3.25", want: -3.25},
		{raw: "1,250.50", want: 1250.5},
		{raw: "1,234,567", want: 1234567},
		{raw: "1\u00a0250", want: 1250},
		{raw: "12,50", wantErr: true},
		{raw: "1,2345", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "12,50", decimalComma: true, want: 12.5},
		{raw: "1.250,75", decimalComma: true, want: 1250.75},
		{raw: "7.5", decimalComma: true, want: 7.5},
		{raw: "1,250.50", decimalComma: true, wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseAmount(tt.raw, tt.decimalComma)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
