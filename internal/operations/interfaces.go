package operations

import (
	"context"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/pkg/contracts/domain"
)

// InputValidator checks the input file before it is opened
type InputValidator interface {
	ValidateInputFile(path string) error
}

// TableLoader reads and cleans the sales export
type TableLoader interface {
	Load(ctx context.Context, path string) (*domain.SalesTable, dataprocessing.LoadStats, error)
}

// KPIAggregator reduces a cleaned table to the KPI document
type KPIAggregator interface {
	Aggregate(ctx context.Context, table *domain.SalesTable) (domain.KPIDocument, error)
}

// DocumentPublisher persists the KPI document
type DocumentPublisher interface {
	Publish(ctx context.Context, doc domain.KPIDocument) (exporter.PublishResult, error)
}

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, trigger string) (*RunResult, error)
}
