// Package middleware holds the HTTP middleware chain of the KPI server:
// request IDs, OpenTelemetry spans and metrics, structured request logs,
// panic recovery, security headers, CORS and rate limiting.
package middleware
