package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
)

// DocumentHandler serves the KPI document over HTTP
type DocumentHandler struct {
	local   LocalDocumentReader
	remote  RemoteDocumentFetcher
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewDocumentHandler creates a document handler. metrics may be nil.
func NewDocumentHandler(local LocalDocumentReader, remote RemoteDocumentFetcher,
	metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{
		local:   local,
		remote:  remote,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "document_handler")),
	}
}

// GetLocal handles GET /. The file is returned as stored. On failure the body
// is {"error", "path"} with 404 for a missing file and 500 otherwise.
func (h *DocumentHandler) GetLocal(w http.ResponseWriter, r *http.Request) {
	data, err := h.local.Read(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		h.logger.WarnContext(r.Context(), "Serving local document failed",
			slog.Int("status", status),
			slog.String("path", h.local.Path()),
			slog.String("error", err.Error()))
		h.recordRead(r.Context(), "local", status)
		apierrors.WriteEnvelope(w, r, status, apierrors.FileErrorEnvelope{
			Error: err.Error(),
			Path:  h.local.Path(),
		})
		return
	}

	h.recordRead(r.Context(), "local", http.StatusOK)
	writeJSONBytes(w, data)
}

// GetRemote handles GET /sales_analytics. Every failure, including a missing
// account URL, is a 500 with body {"error"}.
func (h *DocumentHandler) GetRemote(w http.ResponseWriter, r *http.Request) {
	data, err := h.remote.Fetch(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Serving remote document failed",
			slog.String("error", err.Error()),
			slog.Bool("not_configured", errors.Is(err, apierrors.ErrStoreNotConfigured)))
		h.recordRead(r.Context(), "remote", http.StatusInternalServerError)
		apierrors.WriteEnvelope(w, r, http.StatusInternalServerError, apierrors.ErrorEnvelope{
			Error: err.Error(),
		})
		return
	}

	h.recordRead(r.Context(), "remote", http.StatusOK)
	writeJSONBytes(w, data)
}

func (h *DocumentHandler) recordRead(ctx context.Context, source string, status int) {
	if h.metrics == nil {
		return
	}
	h.metrics.DocumentReadsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Int("status", status),
	))
}

func writeJSONBytes(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
