package http

import (
	"context"
)

// LocalDocumentReader reads the locally published KPI document
type LocalDocumentReader interface {
	Read(ctx context.Context) ([]byte, error)
	Path() string
}

// RemoteDocumentFetcher downloads the KPI document from the blob store
type RemoteDocumentFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}
