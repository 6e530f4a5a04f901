package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/payout-elasticity/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig(t *testing.T) {
	cfg, err := Config(config.LoggingConfig{Level: "warn", Format: "console"}, "")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level.Level())
	assert.Equal(t, "console", cfg.Encoding)

	cfg, err = Config(config.LoggingConfig{Level: "warn"}, "debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level(), "the override wins")
	assert.Equal(t, "json", cfg.Encoding)

	_, err = Config(config.LoggingConfig{Format: "xml"}, "")
	assert.Error(t, err)
	_, err = Config(config.LoggingConfig{}, "loud")
	assert.Error(t, err)
}

func TestNewWithOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "payout.log")

	logger, err := New(config.LoggingConfig{Level: "info", OutputFile: path}, "")
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
