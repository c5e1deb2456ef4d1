package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		name  string
		slog  slog.Level
	}{
		{LevelDebug, "DEBUG", slog.LevelDebug},
		{LevelInfo, "INFO", slog.LevelInfo},
		{LevelWarn, "WARN", slog.LevelWarn},
		{LevelError, "ERROR", slog.LevelError},
		{LogLevel(999), "UNKNOWN", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.level.String())
			assert.Equal(t, tt.slog, tt.level.SlogLevel())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"WARN", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestInitForCLI_Filtering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(ParseLevel("warn"), &buf)

	Info("Session", "settling")
	Warn("Session", "no settle time")
	Error("EventStore", errors.New("connection refused"), "query for %s failed", "vm-1")

	out := buf.String()
	assert.NotContains(t, out, "settling")
	assert.Contains(t, out, "no settle time")
	assert.Contains(t, out, "subsystem=Session")
	assert.Contains(t, out, "query for vm-1 failed")
	assert.Contains(t, out, `error="connection refused"`)
}

func TestInitForFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "test_events.log")

	require.NoError(t, InitForFile(LevelDebug, first))
	Debug("Registry", "registered vm_start")

	// Switching files closes the previous one.
	require.NoError(t, InitForFile(LevelInfo, second))
	Debug("Registry", "filtered out")
	Info("Registry", "registered vm_stop")
	require.NoError(t, Close())

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Contains(t, string(data), "registered vm_start")
	assert.NotContains(t, string(data), "vm_stop")

	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(data), "registered vm_stop")
	assert.NotContains(t, string(data), "filtered out")
}

func TestInitForFile_AppendsToExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_events.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier run\n"), 0644))

	require.NoError(t, InitForFile(LevelInfo, path))
	Info("Session", "later run")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "earlier run")
	assert.Contains(t, string(data), "later run")
}

func TestInitForFile_BadPath(t *testing.T) {
	err := InitForFile(LevelInfo, filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.ErrorContains(t, err, "failed to open log file")
}

func TestClose(t *testing.T) {
	// Without a log file Close has nothing to release.
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)
	require.NoError(t, Close())
	Info("Session", "still logging")
	assert.Contains(t, buf.String(), "still logging")

	require.NoError(t, InitForFile(LevelInfo, filepath.Join(t.TempDir(), "x.log")))
	require.NoError(t, Close())

	mu.RLock()
	defer mu.RUnlock()
	assert.Nil(t, logFile)
	assert.Nil(t, defaultLogger, "logging falls back to the quiet default after Close")
}
