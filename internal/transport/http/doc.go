// Package http implements the HTTP handlers of the sales KPI service.
//
// Handlers stay thin: they call a document or health service and translate
// the outcome to a response.
//
//	GET /                  local KPI file, returned byte-for-byte
//	GET /sales_analytics   KPI document downloaded from blob storage
//	GET /api/health*       health, readiness, liveness and version
//	GET /metrics           Prometheus scrape endpoint
//
// The two document endpoints answer failures with small JSON envelopes
// ({"error", "path"} locally, {"error"} remotely) instead of the RFC 7807
// problem documents used by the rest of the API.
package http
