package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"salespulse/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	local     *LocalDocumentService
	remote    *RemoteDocumentService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service. local and remote may be nil.
func NewHealthService(version, buildTime string, local *LocalDocumentService, remote *RemoteDocumentService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		local:     local,
		remote:    remote,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether a KPI document has been published and
// whether the blob store is configured. A missing blob store is reported
// but does not make the service unready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"document":   hs.checkDocument(),
			"blob_store": hs.checkBlobStore(),
		},
	}

	if doc, ok := status.Services["document"].(ServiceHealth); ok && doc.Status != "ready" {
		status.Status = "not_ready"
	}

	hs.logger.DebugContext(ctx, "ReadinessCheck completed",
		slog.String("status", status.Status))
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"git_commit":   info.GitCommit,
		"data_format":  info.DataFormat,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkDocument() ServiceHealth {
	if hs.local == nil {
		return ServiceHealth{Status: "ready", Message: "local document disabled"}
	}
	modTime, ok := hs.local.LastModified()
	if !ok {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("document not yet published: %s", hs.local.Path()),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("published %s", modTime.UTC().Format(time.RFC3339)),
	}
}

func (hs *HealthService) checkBlobStore() ServiceHealth {
	if hs.remote == nil || !hs.remote.Configured() {
		return ServiceHealth{Status: "disabled", Message: "AZURE_STORAGE_ACCOUNT_URL not set"}
	}
	return ServiceHealth{Status: "ready"}
}

func fileModTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
