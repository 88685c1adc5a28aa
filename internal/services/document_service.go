package services

import (
	"context"
	"log/slog"
	"time"

	"salespulse/internal/blobstore"
	"salespulse/internal/errors"
	"salespulse/internal/files"
	"salespulse/internal/validation"
)

// LocalDocumentService reads the locally published KPI document
type LocalDocumentService struct {
	files  *files.Manager
	path   string
	logger *slog.Logger
}

// NewLocalDocumentService creates a reader for path, resolved through fm
func NewLocalDocumentService(fm *files.Manager, path string, logger *slog.Logger) *LocalDocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalDocumentService{
		files:  fm,
		path:   path,
		logger: logger.With(slog.String("service", "local_document")),
	}
}

// Path returns the absolute path of the document
func (s *LocalDocumentService) Path() string {
	return s.files.ResolvePath(s.path)
}

// Read returns the document bytes unchanged. The content is not validated.
func (s *LocalDocumentService) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.files.ReadFile(s.path)
	if err != nil {
		s.logger.WarnContext(ctx, "Local document unavailable",
			slog.String("path", s.Path()),
			slog.String("error", err.Error()))
		return nil, err
	}
	return data, nil
}

// LastModified returns the modification time of the document, if it exists
func (s *LocalDocumentService) LastModified() (time.Time, bool) {
	return fileModTime(s.Path())
}

// RemoteDocumentService fetches the KPI document from the blob store
type RemoteDocumentService struct {
	store     blobstore.ObjectStore
	container string
	key       string
	validator *validation.DocumentValidator
	logger    *slog.Logger
}

// NewRemoteDocumentService creates a remote reader. A nil store means no
// account URL is configured; Fetch then fails with errors.ErrStoreNotConfigured.
func NewRemoteDocumentService(store blobstore.ObjectStore, container, key string,
	validator *validation.DocumentValidator, logger *slog.Logger) *RemoteDocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteDocumentService{
		store:     store,
		container: container,
		key:       key,
		validator: validator,
		logger:    logger.With(slog.String("service", "remote_document")),
	}
}

// Configured reports whether a blob store is available
func (s *RemoteDocumentService) Configured() bool {
	return s.store != nil
}

// Fetch downloads the document, checks it parses as a KPI document and
// returns it in compact form.
func (s *RemoteDocumentService) Fetch(ctx context.Context) ([]byte, error) {
	if s.store == nil {
		return nil, errors.ErrStoreNotConfigured
	}

	data, err := s.store.GetObject(ctx, s.container, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to download document",
			slog.String("container", s.container),
			slog.String("key", s.key),
			slog.String("error", err.Error()))
		return nil, err
	}

	if s.validator == nil {
		return data, nil
	}
	compact, err := s.validator.Compact(data)
	if err != nil {
		s.logger.ErrorContext(ctx, "Downloaded document is invalid",
			slog.String("container", s.container),
			slog.String("key", s.key),
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()))
		return nil, err
	}
	return compact, nil
}
