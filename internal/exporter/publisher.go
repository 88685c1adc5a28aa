package exporter

import (
	"context"
	"log/slog"

	"salespulse/internal/blobstore"
	"salespulse/internal/errors"
	"salespulse/internal/files"
	"salespulse/internal/validation"
	"salespulse/pkg/contracts/domain"
)

// Reasons reported in PublishResult.UploadSkippedReason.
const (
	SkipReasonNotConfigured = "AZURE_STORAGE_ACCOUNT_URL not set"
)

// PublisherConfig names where the document goes.
type PublisherConfig struct {
	// OutputPath is the local artifact, relative to the file manager's base directory or absolute.
	OutputPath string
	Container  string
	ObjectKey  string
}

// PublishResult describes what a Publish call did.
type PublishResult struct {
	LocalPath           string `json:"local_path"`
	Bytes               int    `json:"bytes"`
	Uploaded            bool   `json:"uploaded"`
	UploadSkippedReason string `json:"upload_skipped_reason,omitempty"`
	UploadError         string `json:"upload_error,omitempty"`
}

// Publisher writes the KPI document locally and mirrors it to the object store.
type Publisher struct {
	cfg       PublisherConfig
	files     *files.Manager
	store     blobstore.ObjectStore
	validator *validation.DocumentValidator
	logger    *slog.Logger
}

// NewPublisher creates a publisher. A nil store disables uploads.
func NewPublisher(cfg PublisherConfig, fm *files.Manager, store blobstore.ObjectStore,
	validator *validation.DocumentValidator, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		cfg:       cfg,
		files:     fm,
		store:     store,
		validator: validator,
		logger:    logger.With(slog.String("component", "document_publisher")),
	}
}

// Publish serializes doc, replaces the local artifact and then attempts the
// upload. Only encoding or local write failures are returned; upload problems
// are logged and reported in the result.
func (p *Publisher) Publish(ctx context.Context, doc domain.KPIDocument) (PublishResult, error) {
	result := PublishResult{LocalPath: p.files.ResolvePath(p.cfg.OutputPath)}

	data, err := EncodeDocument(doc)
	if err != nil {
		return result, err
	}
	if p.validator != nil {
		if err := p.validator.Validate(data); err != nil {
			return result, err
		}
	}

	if err := p.files.WriteFileAtomic(p.cfg.OutputPath, data); err != nil {
		p.logger.ErrorContext(ctx, "Failed to write KPI document",
			slog.String("path", result.LocalPath),
			slog.String("error", err.Error()))
		return result, err
	}
	result.Bytes = len(data)

	p.logger.InfoContext(ctx, "KPI document written",
		slog.String("path", result.LocalPath),
		slog.Int("bytes", result.Bytes))

	if p.store == nil {
		result.UploadSkippedReason = SkipReasonNotConfigured
		p.logger.InfoContext(ctx, "Skipping upload",
			slog.String("reason", result.UploadSkippedReason))
		return result, nil
	}

	if err := p.upload(ctx, data); err != nil {
		result.UploadError = err.Error()
		p.logger.ErrorContext(ctx, "Upload failed, local artifact kept",
			slog.String("container", p.cfg.Container),
			slog.String("key", p.cfg.ObjectKey),
			slog.String("error", err.Error()))
		return result, nil
	}

	result.Uploaded = true
	p.logger.InfoContext(ctx, "KPI document uploaded",
		slog.String("container", p.cfg.Container),
		slog.String("key", p.cfg.ObjectKey))
	return result, nil
}

func (p *Publisher) upload(ctx context.Context, data []byte) error {
	if err := p.store.EnsureContainer(ctx, p.cfg.Container); err != nil {
		return errors.NewStorageError("ensure container", err).WithContext("container", p.cfg.Container)
	}
	if err := p.store.PutObject(ctx, p.cfg.Container, p.cfg.ObjectKey, data, blobstore.JSONContentType); err != nil {
		return errors.NewStorageError("put object", err).
			WithContext("container", p.cfg.Container).
			WithContext("key", p.cfg.ObjectKey)
	}
	return nil
}
