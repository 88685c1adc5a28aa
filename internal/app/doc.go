// Package app wires the sales KPI service together: configuration, logging,
// OpenTelemetry, the blob store, the pipeline and the HTTP router.
//
// New builds everything from a loaded configuration so that commands and
// tests share one wiring path. The remote blob store is only created when
// an account URL is configured; without it uploads are skipped and the
// remote read endpoint answers with an error envelope.
//
// Run serves until SIGINT or SIGTERM and then shuts down gracefully within
// the configured shutdown timeout. Errors are returned to the caller; the
// package never calls os.Exit.
package app
