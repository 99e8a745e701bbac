package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "SERVER_HOST", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "FAILURE_WORKER_POOL_SIZE",
		"LEDGER_STRICT_DISPUTES", "LEDGER_ENFORCE_LOCK", "ARCHIVE_PATH", "ARCHIVE_OPEN_ATTEMPTS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Worker.FailurePoolSize)
	assert.True(t, cfg.Ledger.StrictDisputes)
	assert.True(t, cfg.Ledger.EnforceLock)
	assert.Empty(t, cfg.Archive.Path)
	assert.Equal(t, 3, cfg.Archive.OpenAttempts)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("FAILURE_WORKER_POOL_SIZE", "4")
	t.Setenv("LEDGER_STRICT_DISPUTES", "false")
	t.Setenv("LEDGER_ENFORCE_LOCK", "0")
	t.Setenv("ARCHIVE_PATH", "/tmp/ledger.db")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Worker.FailurePoolSize)
	assert.False(t, cfg.Ledger.StrictDisputes)
	assert.False(t, cfg.Ledger.EnforceLock)
	assert.Equal(t, "/tmp/ledger.db", cfg.Archive.Path)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FAILURE_WORKER_POOL_SIZE", "many")
	t.Setenv("LEDGER_ENFORCE_LOCK", "sometimes")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 2, cfg.Worker.FailurePoolSize)
	assert.True(t, cfg.Ledger.EnforceLock)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}
