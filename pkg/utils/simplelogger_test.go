package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelWarn, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 5, 0, 0, time.UTC)

	line := FormatLine(ts, LevelInfo, "Probe registered", "probe", "database", "functions", 3, "dangling")

	assert.Equal(t, "[2026-10-16 09:05:00] INFO: Probe registered probe=database functions=3\n", line)
}

func TestLoggerLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")
	require.NoError(t, InitLogger(path, LevelWarn))
	t.Cleanup(Close)

	Debug("hidden debug")
	Info("hidden info")
	Warn("visible warn", "k", "v")
	Error("visible error")

	assert.False(t, Enabled(LevelInfo))
	assert.True(t, Enabled(LevelError))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Logger initialized")
	assert.Contains(t, content, "WARN: visible warn k=v")
	assert.Contains(t, content, "ERROR: visible error")
	assert.NotContains(t, content, "hidden")
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "NOT SET", MaskKey(""))
	assert.Equal(t, "short...", MaskKey("short"))
	assert.Equal(t, "sk-abcde...", MaskKey("sk-abcdefghijk"))
}
