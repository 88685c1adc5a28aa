package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/internal/shared/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated when absent"},
		{name: "reused from header", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen, traceID string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
				traceID = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
			assert.Equal(t, seen, traceID)
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	logger, records := testutil.NewTestLogger(t)
	h := RequestID(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/sales_analytics", nil)
	req.Header.Set("X-Request-ID", "req-panic")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-panic", body["trace_id"])
	assert.Equal(t, "/sales_analytics", body["instance"])
	assert.Equal(t, apierrors.ErrPanic.ErrorCode, body["error_code"])
	assert.Equal(t, apierrors.ErrPanic.Message, body["detail"])
	assert.NotContains(t, body, "details")
	assert.True(t, records.ContainsMessage("panic recovered"))
}

func TestRateLimiter(t *testing.T) {
	logger, records := testutil.NewTestLogger(t)
	h := NewRateLimiter(0.001, 2, logger).Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, apierrors.TypeRateLimit, body["type"])
			assert.Equal(t, apierrors.ErrRateLimitExceeded.ErrorCode, body["error_code"])
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.True(t, records.ContainsMessage("rate limit exceeded"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name          string
		origins       []string
		origin        string
		method        string
		expectedCode  int
		expectedAllow string
	}{
		{"preflight allowed", []string{"https://dash.example.com"}, "https://dash.example.com", http.MethodOptions, http.StatusNoContent, "https://dash.example.com"},
		{"origin not listed", []string{"https://dash.example.com"}, "https://evil.example.com", http.MethodGet, http.StatusOK, ""},
		{"wildcard", []string{"*"}, "https://any.example.com", http.MethodGet, http.StatusOK, "https://any.example.com"},
		{"no origin header", nil, "", http.MethodGet, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(CORSConfig{AllowedOrigins: tt.origins})(okHandler())
			req := httptest.NewRequest(tt.method, "/sales_analytics", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedAllow, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, HEAD, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestStructuredLogger(t *testing.T) {
	logger, records := testutil.NewTestLogger(t)
	h := RequestID(StructuredLogger(logger)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-log")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, records.ContainsMessage("request completed"))
	assert.True(t, records.ContainsAttr("request_id", "req-log"))
	assert.True(t, records.ContainsAttr("path", "/api/health"))
}
