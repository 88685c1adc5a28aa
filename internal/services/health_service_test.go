package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/blobstore"
	"salespulse/internal/files"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts"
)

func TestHealthService_ReadinessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	local := NewLocalDocumentService(files.NewManager(t.TempDir(), logger), "aggregated_sales.json", logger)

	hs := NewHealthService("1.2.3", "", local, newRemote(t, nil), logger)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "not_ready", status.Services["document"].(ServiceHealth).Status)
	assert.Equal(t, "disabled", status.Services["blob_store"].(ServiceHealth).Status)

	require.NoError(t, os.WriteFile(local.Path(), []byte(storedDocument), 0644))

	status = hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestHealthService_BlobStoreConfigured(t *testing.T) {
	hs := NewHealthService("dev", "", nil, newRemote(t, blobstore.NewMemoryStore()), nil)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "ready", status.Services["blob_store"].(ServiceHealth).Status)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("1.2.3", "2024-06-01T00:00:00Z", nil, nil, nil)

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "go_version")
	assert.Contains(t, live.Runtime, "goroutines")

	version := hs.Version()
	assert.Equal(t, "1.2.3", version["version"])
	assert.Equal(t, "2024-06-01T00:00:00Z", version["build_time"])
	assert.Equal(t, contracts.DataFormatVersion, version["data_format"])
}
