// Package dataprocessing turns the raw sales export into the KPI document.
//
// # Components
//
//  1. Loader: reads delimited text (.csv, .tsv, .txt) or a workbook (.xlsx)
//     into a domain.SalesTable. Rows without an amount are dropped, dates that
//     fail every configured layout become missing. Counts of what was dropped
//     are returned as LoadStats.
//  2. Aggregator: reduces a SalesTable to a domain.KPIDocument. Money is summed
//     with shopspring/decimal and converted to float64 once at the end.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderConfig{
//	    DateLayouts: cfg.Pipeline.DateLayouts,
//	})
//	table, stats, err := loader.Load(ctx, "Dataset/Amazon Sale Report.csv")
//	if err != nil {
//	    return err
//	}
//
//	agg := dataprocessing.NewAggregator(logger, dataprocessing.AggregatorConfig{RecentWindowDays: 30})
//	doc, err := agg.Aggregate(ctx, table)
//
// # Null handling
//
// Blank cells and the tokens nan, null, none, n/a and na are read as missing.
// A blank order id is not counted as an order, a blank region does not take
// part in the top-region vote, and a blank category is reported under
// "Uncategorized" so the category sums always add up to total revenue.
package dataprocessing
