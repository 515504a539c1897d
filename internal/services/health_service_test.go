package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/files"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts"
)

func TestHealthService_Checks(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthServiceWithBuildInfo("1.2.3", "2024-01-01T00:00:00Z", "abc", files.NewManager(t.TempDir(), logger), logger)
	ctx := context.Background()

	assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	ready := hs.ReadinessCheck(ctx)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ready", ready.Services["scratch_storage"].Status)

	version := hs.Version()
	assert.Equal(t, "1.2.3", version["version"])
	assert.Equal(t, "abc", version["build_id"])
	assert.Equal(t, contracts.PayloadFormatVersion, version["payload_format"])
	assert.Equal(t, false, version["prerelease"])
}

func TestHealthService_NotReady(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	hs := NewHealthService("1.0.0", files.NewManager(filepath.Join(blocker, "scratch"), logger), logger)

	ready := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "not_ready", ready.Services["scratch_storage"].Status)
	assert.True(t, logs.ContainsMessage("Readiness check failed"))

	assert.Equal(t, "not_ready", NewHealthService("1.0.0", nil, logger).ReadinessCheck(context.Background()).Status)
}
