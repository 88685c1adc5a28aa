package domain

import (
	"time"
)

// Sentinel region values written to KPIDocument.TopRegion.
const (
	// RegionUnknown is used when the source has no region column at all.
	RegionUnknown = "Unknown"
	// RegionNoMode is used when the region column exists but no row carries a value.
	RegionNoMode = "N/A"
	// UncategorizedCategory groups rows whose category cell is blank.
	UncategorizedCategory = "Uncategorized"
)

// SaleRecord is one line item of the sales export. An order may span several records.
type SaleRecord struct {
	OrderID  string     `json:"order_id"`
	Amount   float64    `json:"amount"`
	Date     *time.Time `json:"date,omitempty"` // nil when the cell was blank or unparseable
	Category string     `json:"category"`
	Region   string     `json:"region"`
}

// HasDate reports whether the record carries a usable transaction date.
func (r SaleRecord) HasDate() bool {
	return r.Date != nil
}

// SalesTable is the cleaned, in-memory form of the export. Every record has an amount.
type SalesTable struct {
	Records   []SaleRecord `json:"records"`
	HasRegion bool         `json:"has_region"`
	HasDate   bool         `json:"has_date"`
}

// Len returns the number of records in the table.
func (t *SalesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// KPIDocument is the published summary artifact. It is immutable once produced
// and every run replaces the previous one wholesale.
type KPIDocument struct {
	TotalRevenue      float64            `json:"total_revenue"`
	TotalOrders       int                `json:"total_orders"`
	AverageOrderValue float64            `json:"average_order_value"`
	TopRegion         string             `json:"top_region"`
	SalesByCategory   map[string]float64 `json:"sales_by_category"`
	RecentSalesWindow float64            `json:"recent_sales_window"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
