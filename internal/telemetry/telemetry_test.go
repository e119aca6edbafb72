package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshavgujrathi/scholariq/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("CRITICAL"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewLogger_FileSink(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "app.log")

	logger, closeFn, err := NewLogger(config.LogConfig{
		Level:  "INFO",
		Format: "text",
		File:   logFile,
	})
	require.NoError(t, err)

	logger.Info("hello", "k", "v")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"hello"`),
		"file sink should record JSON: %s", data)
}

func TestNewLogger_DebugFiltered(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")

	logger, closeFn, err := NewLogger(config.LogConfig{
		Level:  "WARN",
		Format: "json",
		File:   logFile,
	})
	require.NoError(t, err)

	logger.Debug("ignored")
	logger.Warn("kept")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ignored")
	assert.Contains(t, string(data), "kept")
}

func TestInitProvider_UnreachableCollector(t *testing.T) {
	// The gRPC dial is non-blocking so a missing collector must not block or
	// fail setup; from the caller's perspective init always succeeds.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := InitProvider(ctx, "localhost:19999", "scholariq-test", true)
	require.NoError(t, err)
	require.NotNil(t, p)

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutCancel()
	assert.NoError(t, p.Shutdown(shutCtx))
}
