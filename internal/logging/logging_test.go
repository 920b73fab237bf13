package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/yourusername/shopfront/configs"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopfront.log")
	cfg := configs.LogConfig{Level: "warn", Format: "json", Output: "file", FilePath: path}

	logger, level, err := New(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level.Level())

	logger.Info("dropped")
	logger.Warn("kept")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "kept"))
	assert.False(t, strings.Contains(string(data), "dropped"))

	level.SetLevel(zapcore.InfoLevel)
	logger.Info("now visible")
	_ = logger.Sync()
	data, _ = os.ReadFile(path)
	assert.Contains(t, string(data), "now visible")
}

func TestNewVerboseForcesDebug(t *testing.T) {
	_, level, err := New(configs.LogConfig{Level: "error", Format: "console", Output: "stderr"}, true)
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level.Level())
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, _, err := New(configs.LogConfig{Level: "info", Format: "xml", Output: "stdout"}, false)
	assert.Error(t, err)
}

func TestNamedNil(t *testing.T) {
	assert.NotNil(t, Named(nil, "x"))
}
