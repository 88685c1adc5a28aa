package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/files"
	"salespulse/internal/services"
	"salespulse/internal/shared/testutil"
)

func newHealthHandler(t *testing.T) (*HealthHandler, *services.LocalDocumentService) {
	logger, _ := testutil.NewTestLogger(t)
	local := services.NewLocalDocumentService(files.NewManager(t.TempDir(), logger), "aggregated_sales.json", logger)
	remote := services.NewRemoteDocumentService(nil, "sales-data", "aggregated_sales.json", nil, logger)
	hs := services.NewHealthService("v1.0.0-test", "2024-06-01", local, remote, logger)
	return NewHealthHandler(hs, logger), local
}

func TestHealthHandler_Endpoints(t *testing.T) {
	handler, _ := newHealthHandler(t)

	tests := []struct {
		name           string
		handle         http.HandlerFunc
		expectedStatus int
		expectedField  string
		expectedValue  interface{}
	}{
		{"health", handler.HealthCheck, http.StatusOK, "status", "ok"},
		{"liveness", handler.LivenessCheck, http.StatusOK, "status", "alive"},
		{"version", handler.Version, http.StatusOK, "version", "v1.0.0-test"},
		{"readiness before first publish", handler.ReadinessCheck, http.StatusServiceUnavailable, "status", "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handle(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedValue, body[tt.expectedField])
		})
	}
}

func TestHealthHandler_ReadyAfterPublish(t *testing.T) {
	handler, local := newHealthHandler(t)
	require.NoError(t, os.WriteFile(local.Path(), []byte(storedDocument), 0644))

	w := httptest.NewRecorder()
	handler.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestMetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	t.Run("disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewMetricsHandler(nil, errorHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delegates to exporter", func(t *testing.T) {
		exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("document_reads_total 3\n"))
		})
		w := httptest.NewRecorder()
		NewMetricsHandler(exporter, errorHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "document_reads_total")
	})
}
