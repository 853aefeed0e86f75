// Package config loads board configuration.
//
// Configuration starts from Default and is optionally overlaid by a single
// YAML file given with --config. Command-line flags are applied by main on
// top of the loaded values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"SyncBoard/internal/state"
)

// Transport names.
const (
	TransportWebSocket = "ws"
	TransportWebRTC    = "webrtc"
)

// Config is the full board configuration.
type Config struct {
	// Network configures the relay, discovery and peer links.
	Network NetworkConfig `yaml:"network"`

	// Canvas configures the drawing surface and history.
	Canvas CanvasConfig `yaml:"canvas"`

	// Storage configures session persistence.
	Storage StorageConfig `yaml:"storage"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// NetworkConfig configures how participants reach each other.
type NetworkConfig struct {
	// Port is the relay port the host listens on.
	Port int `yaml:"port"`

	// Transport carries drawing messages: "ws" through the relay, or
	// "webrtc" over peer data channels signaled through the relay.
	Transport string `yaml:"transport"`

	// Codec is the wire encoding, "json" or "cbor". Every participant in a
	// session must use the same codec.
	Codec string `yaml:"codec"`

	// MDNS enables advertising the host and browsing for it on the LAN.
	MDNS bool `yaml:"mdns"`

	// ICEServers lists STUN/TURN URLs for the webrtc transport. Empty means
	// host candidates only, which is enough on one LAN.
	ICEServers []string `yaml:"ice_servers"`
}

// CanvasConfig configures the drawing surface.
type CanvasConfig struct {
	MinZoom  float64 `yaml:"min_zoom"`
	MaxZoom  float64 `yaml:"max_zoom"`
	ZoomStep float64 `yaml:"zoom_step"`

	// HistoryDepth bounds the undo stack.
	HistoryDepth int `yaml:"history_depth"`

	// Color and Width are the initial tool.
	Color string  `yaml:"color"`
	Width float64 `yaml:"width"`
}

// StorageConfig configures where sessions are saved.
type StorageConfig struct {
	// Path is the BoltDB file.
	Path string `yaml:"path"`

	// SessionKey names the saved canvas within the file.
	SessionKey string `yaml:"session_key"`

	// AutosaveInterval is how often the recorder persists the canvas.
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Network: NetworkConfig{
			Port:      8888,
			Transport: TransportWebSocket,
			Codec:     "json",
			MDNS:      true,
		},
		Canvas: CanvasConfig{
			MinZoom:      state.DefaultMinZoom,
			MaxZoom:      state.DefaultMaxZoom,
			ZoomStep:     state.DefaultZoomStep,
			HistoryDepth: state.DefaultHistoryDepth,
			Color:        "#df4b26",
			Width:        5,
		},
		Storage: StorageConfig{
			Path:             filepath.Join(homeDir, ".localboard", "sessions.db"),
			SessionKey:       "whiteboardSession",
			AutosaveInterval: 5 * time.Second,
		},
		LogLevel: "info",
	}
}

// LoadFile overlays the YAML file at path onto Default and validates the
// result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.Network.Port <= 0 || c.Network.Port > 65535 {
		return fmt.Errorf("network.port %d out of range", c.Network.Port)
	}
	switch c.Network.Transport {
	case TransportWebSocket, TransportWebRTC:
	default:
		return fmt.Errorf("network.transport %q: want %q or %q", c.Network.Transport, TransportWebSocket, TransportWebRTC)
	}
	switch c.Network.Codec {
	case "json", "cbor":
	default:
		return fmt.Errorf("network.codec %q: want json or cbor", c.Network.Codec)
	}
	if c.Canvas.MinZoom <= 0 || c.Canvas.MaxZoom < c.Canvas.MinZoom {
		return fmt.Errorf("canvas zoom range [%v, %v] is invalid", c.Canvas.MinZoom, c.Canvas.MaxZoom)
	}
	if c.Canvas.ZoomStep <= 0 {
		return fmt.Errorf("canvas.zoom_step must be positive")
	}
	if c.Canvas.HistoryDepth < 0 {
		return fmt.Errorf("canvas.history_depth must not be negative")
	}
	if c.Canvas.Width <= 0 || c.Canvas.Color == "" {
		return fmt.Errorf("canvas tool needs a color and a positive width")
	}
	if c.Storage.AutosaveInterval <= 0 {
		return fmt.Errorf("storage.autosave_interval must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Viewport builds the initial viewport from the canvas settings.
func (c *Config) Viewport() state.Viewport {
	return state.NewViewport(c.Canvas.MinZoom, c.Canvas.MaxZoom, c.Canvas.ZoomStep)
}

// Style builds the initial tool.
func (c *Config) Style() state.Style {
	return state.Style{Color: c.Canvas.Color, Width: c.Canvas.Width, Mode: state.ModeDraw}
}
