package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8888, cfg.Network.Port)
	assert.Equal(t, TransportWebSocket, cfg.Network.Transport)
	assert.Equal(t, 1.0, cfg.Viewport().Zoom)
	assert.Equal(t, 3.0, cfg.Viewport().MaxZoom)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
network:
  port: 9000
  transport: webrtc
  codec: cbor
  ice_servers: ["stun:stun.example.org:3478"]
canvas:
  max_zoom: 2
  history_depth: 10
storage:
  session_key: room-42
  autosave_interval: 30s
log_level: debug
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Network.Port)
	assert.Equal(t, TransportWebRTC, cfg.Network.Transport)
	assert.Equal(t, "cbor", cfg.Network.Codec)
	assert.True(t, cfg.Network.MDNS, "untouched fields keep defaults")
	assert.Equal(t, []string{"stun:stun.example.org:3478"}, cfg.Network.ICEServers)
	assert.Equal(t, 2.0, cfg.Canvas.MaxZoom)
	assert.Equal(t, 0.1, cfg.Canvas.MinZoom)
	assert.Equal(t, 10, cfg.Canvas.HistoryDepth)
	assert.Equal(t, "room-42", cfg.Storage.SessionKey)
	assert.Equal(t, 30*time.Second, cfg.Storage.AutosaveInterval)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "network: [unterminated"))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "network:\n  transport: carrier-pigeon\n"))
	assert.ErrorContains(t, err, "network.transport")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":       func(c *Config) { c.Network.Port = 0 },
		"codec":      func(c *Config) { c.Network.Codec = "xml" },
		"zoom range": func(c *Config) { c.Canvas.MinZoom, c.Canvas.MaxZoom = 2, 1 },
		"zoom step":  func(c *Config) { c.Canvas.ZoomStep = 0 },
		"depth":      func(c *Config) { c.Canvas.HistoryDepth = -1 },
		"width":      func(c *Config) { c.Canvas.Width = 0 },
		"autosave":   func(c *Config) { c.Storage.AutosaveInterval = 0 },
		"log level":  func(c *Config) { c.LogLevel = "chatty" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
