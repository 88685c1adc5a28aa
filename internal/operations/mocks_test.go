package operations

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/pkg/contracts/domain"
)

type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) ValidateInputFile(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context, path string) (*domain.SalesTable, dataprocessing.LoadStats, error) {
	args := m.Called(ctx, path)
	table, _ := args.Get(0).(*domain.SalesTable)
	return table, args.Get(1).(dataprocessing.LoadStats), args.Error(2)
}

type mockAggregator struct {
	mock.Mock
}

func (m *mockAggregator) Aggregate(ctx context.Context, table *domain.SalesTable) (domain.KPIDocument, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(domain.KPIDocument), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, doc domain.KPIDocument) (exporter.PublishResult, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(exporter.PublishResult), args.Error(1)
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, trigger string) (*RunResult, error) {
	args := m.Called(ctx, trigger)
	result, _ := args.Get(0).(*RunResult)
	return result, args.Error(1)
}
