// Package services implements the read side of the KPI system behind the
// HTTP handlers.
//
// LocalDocumentService returns the locally published document byte for byte.
// RemoteDocumentService downloads it from the blob store and checks it against
// the KPI schema before it is served. HealthService reports liveness and
// whether a document has been published yet.
//
// Services receive their collaborators and a *slog.Logger through their
// constructors and hold no package-level state.
package services
