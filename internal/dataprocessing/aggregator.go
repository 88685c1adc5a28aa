package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// DefaultRecentWindowDays is the length of the recent-sales window.
const DefaultRecentWindowDays = 30

// AggregatorConfig holds configuration options for the Aggregator.
type AggregatorConfig struct {
	RecentWindowDays int
	// Now stamps GeneratedAt. Defaults to time.Now.
	Now func() time.Time
}

// Aggregator reduces a cleaned SalesTable to a KPIDocument.
// Sums are accumulated as decimals and converted to float64 once.
type Aggregator struct {
	logger *slog.Logger
	window time.Duration
	now    func() time.Time
}

// NewAggregator creates a KPI aggregator.
func NewAggregator(logger *slog.Logger, cfg AggregatorConfig) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RecentWindowDays <= 0 {
		cfg.RecentWindowDays = DefaultRecentWindowDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Aggregator{
		logger: logger.With(slog.String("component", "kpi_aggregator")),
		window: time.Duration(cfg.RecentWindowDays) * 24 * time.Hour,
		now:    cfg.Now,
	}
}

// Aggregate computes the KPI document for table. A nil or empty table yields
// zero totals, an empty category map and the region fallback.
func (a *Aggregator) Aggregate(ctx context.Context, table *domain.SalesTable) (domain.KPIDocument, error) {
	if err := ctx.Err(); err != nil {
		return domain.KPIDocument{}, err
	}

	var records []domain.SaleRecord
	hasRegion := false
	if table != nil {
		records = table.Records
		hasRegion = table.HasRegion
	}

	revenue := decimal.Zero
	categories := make(map[string]decimal.Decimal)
	orders := make(map[string]struct{})
	var latest time.Time

	for _, rec := range records {
		amount := decimal.NewFromFloat(rec.Amount)
		revenue = revenue.Add(amount)

		category := rec.Category
		if category == "" {
			category = domain.UncategorizedCategory
		}
		categories[category] = categories[category].Add(amount)

		if rec.OrderID != "" {
			orders[rec.OrderID] = struct{}{}
		}
		if rec.Date != nil && rec.Date.After(latest) {
			latest = *rec.Date
		}
	}

	recent := decimal.Zero
	if !latest.IsZero() {
		cutoff := latest.Add(-a.window)
		for _, rec := range records {
			if rec.Date != nil && rec.Date.After(cutoff) {
				recent = recent.Add(decimal.NewFromFloat(rec.Amount))
			}
		}
	}

	totalOrders := len(orders)
	avg := decimal.Zero
	if totalOrders > 0 {
		avg = revenue.Div(decimal.NewFromInt(int64(totalOrders)))
	}

	byCategory := make(map[string]float64, len(categories))
	for name, sum := range categories {
		byCategory[name] = sum.InexactFloat64()
	}

	doc := domain.KPIDocument{
		TotalRevenue:      revenue.InexactFloat64(),
		TotalOrders:       totalOrders,
		AverageOrderValue: avg.InexactFloat64(),
		TopRegion:         topRegion(records, hasRegion),
		SalesByCategory:   byCategory,
		RecentSalesWindow: recent.InexactFloat64(),
		GeneratedAt:       a.now().UTC(),
	}

	a.logger.InfoContext(ctx, "KPIs calculated",
		slog.Int("rows", len(records)),
		slog.Float64("total_revenue", doc.TotalRevenue),
		slog.Int("total_orders", doc.TotalOrders),
		slog.String("top_region", doc.TopRegion),
		slog.Int("categories", len(doc.SalesByCategory)),
		slog.Float64("recent_sales_window", doc.RecentSalesWindow))

	return doc, nil
}

// topRegion returns the most frequent non-blank region. Ties go to the region seen first.
func topRegion(records []domain.SaleRecord, hasRegion bool) string {
	if !hasRegion {
		return domain.RegionUnknown
	}

	counts := make(map[string]int)
	best, bestCount := "", 0
	var order []string
	for _, rec := range records {
		if rec.Region == "" {
			continue
		}
		if _, seen := counts[rec.Region]; !seen {
			order = append(order, rec.Region)
		}
		counts[rec.Region]++
	}
	for _, region := range order {
		if counts[region] > bestCount {
			best, bestCount = region, counts[region]
		}
	}

	if bestCount == 0 {
		return domain.RegionNoMode
	}
	return best
}
