package dataprocessing

import (
	"bufio"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Logical columns of the sales export.
const (
	ColumnOrderID  = "Order ID"
	ColumnAmount   = "Amount"
	ColumnDate     = "Date"
	ColumnCategory = "Category"
	ColumnRegion   = "ship-state"
)

// columnAliases maps normalised header text to a logical column.
var columnAliases = map[string]string{
	"orderid":   ColumnOrderID,
	"order":     ColumnOrderID,
	"amount":    ColumnAmount,
	"date":      ColumnDate,
	"orderdate": ColumnDate,
	"category":  ColumnCategory,
	"shipstate": ColumnRegion,
	"region":    ColumnRegion,
	"state":     ColumnRegion,
}

var requiredColumns = []string{ColumnOrderID, ColumnAmount, ColumnCategory}

// nullTokens are cell values read as missing, matching common CSV exporters.
var nullTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"null": true,
	"none": true,
	"n/a":  true,
	"na":   true,
}

const cancelCheckInterval = 4096

// LoadStats describes what the loader kept and dropped.
type LoadStats struct {
	Format               string `json:"format"`
	RowsRead             int    `json:"rows_read"`
	RowsKept             int    `json:"rows_kept"`
	DroppedMissingAmount int    `json:"dropped_missing_amount"`
	InvalidAmount        int    `json:"invalid_amount"`
	InvalidDates         int    `json:"invalid_dates"`
}

// Dropped returns the number of rows excluded from the table.
func (s LoadStats) Dropped() int {
	return s.DroppedMissingAmount + s.InvalidAmount
}

// LoaderConfig holds configuration options for the Loader.
type LoaderConfig struct {
	DateLayouts []string // tried in order; the first that parses wins
	Sheet       string   // xlsx sheet name; empty means the first sheet
}

// Loader reads the sales export into a cleaned SalesTable.
type Loader struct {
	logger  *slog.Logger
	layouts []string
	sheet   string
}

// NewLoader creates a table loader.
func NewLoader(logger *slog.Logger, cfg LoaderConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	layouts := cfg.DateLayouts
	if len(layouts) == 0 {
		layouts = []string{"01-02-06", "2006-01-02", time.RFC3339}
	}
	return &Loader{
		logger:  logger.With(slog.String("component", "table_loader")),
		layouts: layouts,
		sheet:   cfg.Sheet,
	}
}

// Load reads path, drops rows without an amount and parses dates.
// The file format is chosen by extension: .xlsx uses excelize, anything else is delimited text.
func (l *Loader) Load(ctx context.Context, path string) (*domain.SalesTable, LoadStats, error) {
	l.logger.InfoContext(ctx, "loading sales table", slog.String("path", path))

	var (
		table *domain.SalesTable
		stats LoadStats
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		table, stats, err = l.loadExcel(ctx, path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, LoadStats{}, errors.NewStorageError("open input file", err).WithContext("path", path)
		}
		defer f.Close()
		table, stats, err = l.LoadReader(ctx, f)
	}
	if err != nil {
		return nil, stats, err
	}

	l.logger.InfoContext(ctx, "sales table loaded",
		slog.String("path", path),
		slog.String("format", stats.Format),
		slog.Int("rows_read", stats.RowsRead),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("dropped_missing_amount", stats.DroppedMissingAmount),
		slog.Int("invalid_amount", stats.InvalidAmount),
		slog.Int("invalid_dates", stats.InvalidDates))

	return table, stats, nil
}

// LoadReader reads delimited text from r. The delimiter is sniffed from the header line.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader) (*domain.SalesTable, LoadStats, error) {
	br := bufio.NewReader(r)
	headerLine, err := readHeaderRecord(br)
	if err != nil {
		return nil, LoadStats{}, errors.NewParsingError("read header line", err)
	}
	headerLine = strings.TrimPrefix(headerLine, "\ufeff")
	if strings.TrimSpace(headerLine) == "" {
		return nil, LoadStats{}, errors.NewParsingError("read header line", errors.ErrEmptyInput)
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	cr.Comma = sniffDelimiter(headerLine)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, LoadStats{}, errors.NewParsingError("parse header", err)
	}
	b, err := l.newBuilder(header, false)
	if err != nil {
		return nil, LoadStats{}, err
	}
	b.stats.Format = "csv"
	b.decimalComma = cr.Comma == ';'
	if cr.Comma == '\t' {
		b.stats.Format = "tsv"
	}

	for {
		row, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, b.stats, errors.NewParsingError("parse row", err).
				WithContext("row", b.stats.RowsRead+1)
		}
		if err := b.add(ctx, row); err != nil {
			return nil, b.stats, err
		}
	}

	return b.table, b.stats, nil
}

func (l *Loader) loadExcel(ctx context.Context, path string) (*domain.SalesTable, LoadStats, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, LoadStats{}, errors.NewStorageError("open input file", err).WithContext("path", path)
		}
		return nil, LoadStats{}, errors.NewParsingError("open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, LoadStats{}, errors.NewParsingError("workbook has no sheets", errors.ErrEmptyInput)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, LoadStats{}, errors.NewParsingError("open sheet", err).WithContext("sheet", sheet)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, LoadStats{}, errors.NewParsingError("read header row", errors.ErrEmptyInput).WithContext("sheet", sheet)
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, LoadStats{}, errors.NewParsingError("read header row", err)
	}
	b, err := l.newBuilder(header, true)
	if err != nil {
		return nil, LoadStats{}, err
	}
	b.stats.Format = "xlsx"

	for rows.Next() {
		row, err := rows.Columns()
		if err != nil {
			return nil, b.stats, errors.NewParsingError("read row", err).WithContext("row", b.stats.RowsRead+1)
		}
		if isBlankRow(row) {
			continue
		}
		if err := b.add(ctx, row); err != nil {
			return nil, b.stats, err
		}
	}
	if err := rows.Error(); err != nil {
		return nil, b.stats, errors.NewParsingError("iterate rows", err)
	}

	return b.table, b.stats, nil
}

// tableBuilder accumulates cleaned records for one load.
type tableBuilder struct {
	loader    *Loader
	columns   map[string]int
	excel     bool
	table     *domain.SalesTable
	stats     LoadStats
	warnedRow bool

	// decimalComma reads "1.250,50" style amounts, the convention of semicolon exports.
	decimalComma bool
}

func (l *Loader) newBuilder(header []string, excel bool) (*tableBuilder, error) {
	columns := mapColumns(header)
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, errors.NewParsingError(fmt.Sprintf("column %q", name), errors.ErrMissingColumn).
				WithContext("column", name).
				WithContext("header", header)
		}
	}

	_, hasRegion := columns[ColumnRegion]
	_, hasDate := columns[ColumnDate]
	return &tableBuilder{
		loader:  l,
		columns: columns,
		excel:   excel,
		table: &domain.SalesTable{
			Records:   make([]domain.SaleRecord, 0, 1024),
			HasRegion: hasRegion,
			HasDate:   hasDate,
		},
	}, nil
}

func (b *tableBuilder) add(ctx context.Context, row []string) error {
	b.stats.RowsRead++
	if b.stats.RowsRead%cancelCheckInterval == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	amountCell := b.cell(row, ColumnAmount)
	if isNull(amountCell) {
		b.stats.DroppedMissingAmount++
		return nil
	}
	amount, err := parseAmount(amountCell, b.decimalComma)
	if err != nil {
		b.stats.InvalidAmount++
		if !b.warnedRow {
			b.warnedRow = true
			b.loader.logger.WarnContext(ctx, "unparseable amount, row dropped",
				slog.Int("row", b.stats.RowsRead),
				slog.String("value", amountCell))
		}
		return nil
	}

	rec := domain.SaleRecord{
		OrderID:  nullable(b.cell(row, ColumnOrderID)),
		Amount:   amount,
		Category: nullable(b.cell(row, ColumnCategory)),
		Region:   nullable(b.cell(row, ColumnRegion)),
	}
	if b.table.HasDate {
		if raw := b.cell(row, ColumnDate); !isNull(raw) {
			if d, ok := b.loader.parseDate(raw, b.excel); ok {
				rec.Date = &d
			} else {
				b.stats.InvalidDates++
			}
		}
	}

	b.table.Records = append(b.table.Records, rec)
	b.stats.RowsKept++
	return nil
}

// cell returns the trimmed value of a logical column, or "" for absent columns and short rows.
func (b *tableBuilder) cell(row []string, column string) string {
	idx, ok := b.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDate tries each configured layout. Workbook cells may also hold a raw serial date.
func (l *Loader) parseDate(raw string, excel bool) (time.Time, bool) {
	for _, layout := range l.layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	if excel {
		if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

var (
	commaGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	commaDecimal = regexp.MustCompile(`^[+-]?(\d{1,3}(\.\d{3})+|\d+),\d+$`)
)

// parseAmount accepts plain decimals with optional thousands separators.
// With decimalComma the roles of ',' and '.' swap. A comma that is neither a
// well-formed group separator nor the decimal mark is an error.
func parseAmount(raw string, decimalComma bool) (float64, error) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "").Replace(raw)
	if strings.Contains(cleaned, ",") {
		switch {
		case decimalComma && commaDecimal.MatchString(cleaned):
			cleaned = strings.ReplaceAll(strings.ReplaceAll(cleaned, ".", ""), ",", ".")
		case !decimalComma && commaGrouped.MatchString(cleaned):
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		default:
			return 0, fmt.Errorf("ambiguous separators in amount %q", raw)
		}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// mapColumns resolves header cells to logical columns. The first matching header wins.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name, ok := columnAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	return columns
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t', '\r', '\n':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(h)))
}

// readHeaderRecord reads physical lines until the quotes balance, so a quoted
// header cell may span lines.
func readHeaderRecord(br *bufio.Reader) (string, error) {
	var record strings.Builder
	for {
		line, err := br.ReadString('\n')
		record.WriteString(line)
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return record.String(), nil
			}
			return "", err
		}
		if strings.Count(record.String(), `"`)%2 == 0 {
			return record.String(), nil
		}
	}
}

// sniffDelimiter picks the most frequent candidate delimiter outside quoted cells.
func sniffDelimiter(line string) rune {
	counts := make(map[rune]int, 4)
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted:
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := counts[c]; n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func isNull(v string) bool {
	return nullTokens[strings.ToLower(v)]
}

func nullable(v string) string {
	if isNull(v) {
		return ""
	}
	return v
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
