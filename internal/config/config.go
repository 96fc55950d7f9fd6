// Package config handles spawner configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Faultbox/orbitforge/internal/orbit"
)

// Config holds all settings.
type Config struct {
	Endpoint  EndpointConfig  `yaml:"endpoint" toml:"endpoint"`
	Acquire   AcquireConfig   `yaml:"acquire" toml:"acquire"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Spawner   SpawnerConfig   `yaml:"spawner" toml:"spawner"`
	Orbit     orbit.Tuning    `yaml:"orbit" toml:"orbit"`
	Graphics  GraphicsConfig  `yaml:"graphics" toml:"graphics"`
	Audio     AudioConfig     `yaml:"audio" toml:"audio"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// EndpointConfig says where the generation server address comes from.
type EndpointConfig struct {
	SourceURL string `yaml:"source_url" toml:"source_url"` // text resource holding the base address
	Static    string `yaml:"static" toml:"static"`         // fixed base address, skips SourceURL
}

// AcquireConfig holds generation request settings.
type AcquireConfig struct {
	RequestTimeout Duration `yaml:"request_timeout" toml:"request_timeout"`
	ImportTimeout  Duration `yaml:"import_timeout" toml:"import_timeout"`
	SubmitInterval Duration `yaml:"submit_interval" toml:"submit_interval"` // min spacing between prompts
	SubmitBurst    int      `yaml:"submit_burst" toml:"submit_burst"`
	MaxModelMB     int      `yaml:"max_model_mb" toml:"max_model_mb"`
}

// StorageConfig holds local file locations.
type StorageConfig struct {
	ModelDir string `yaml:"model_dir" toml:"model_dir"`
}

// SpawnerConfig holds the spawn anchor and placement settings.
type SpawnerConfig struct {
	Anchor     [3]float32 `yaml:"anchor" toml:"anchor"`
	Rotation   [3]float32 `yaml:"rotation" toml:"rotation"` // pitch, yaw, roll in degrees
	Scale      [3]float32 `yaml:"scale" toml:"scale"`
	ChildScale float32    `yaml:"child_scale" toml:"child_scale"`
	Seed       uint64     `yaml:"seed" toml:"seed"` // 0 seeds from the clock
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width" toml:"width"`
	Height     int  `yaml:"height" toml:"height"`
	Fullscreen bool `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool `yaml:"vsync" toml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit" toml:"fps_limit"`
}

// AudioConfig holds audio cue settings.
type AudioConfig struct {
	MasterVolume float32 `yaml:"master_volume" toml:"master_volume"`
	Muted        bool    `yaml:"muted" toml:"muted"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Addr    string `yaml:"addr" toml:"addr"`
}

// TelemetryConfig controls the websocket feed.
type TelemetryConfig struct {
	Enabled       bool     `yaml:"enabled" toml:"enabled"`
	Addr          string   `yaml:"addr" toml:"addr"`
	FrameInterval Duration `yaml:"frame_interval" toml:"frame_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			SourceURL: "https://gist.githubusercontent.com/orbitforge/endpoint/raw/url.txt",
		},
		Acquire: AcquireConfig{
			RequestTimeout: Duration(10 * time.Minute),
			ImportTimeout:  Duration(time.Minute),
			SubmitInterval: Duration(2 * time.Second),
			SubmitBurst:    1,
			MaxModelMB:     64,
		},
		Storage: StorageConfig{
			ModelDir: filepath.Join(ConfigDir(), "models"),
		},
		Spawner: SpawnerConfig{
			Scale:      [3]float32{1, 1, 1},
			ChildScale: 0.2,
		},
		Orbit: orbit.DefaultTuning(),
		Graphics: GraphicsConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Audio: AudioConfig{
			MasterVolume: 0.8,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
		Telemetry: TelemetryConfig{
			Addr:          "127.0.0.1:8765",
			FrameInterval: Duration(100 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks the settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Endpoint.SourceURL == "" && c.Endpoint.Static == "" {
		return fmt.Errorf("%w: endpoint needs source_url or static", ErrInvalid)
	}
	if err := c.Orbit.Validate(); err != nil {
		return fmt.Errorf("%w: orbit: %w", ErrInvalid, err)
	}
	if c.Acquire.RequestTimeout < 0 || c.Acquire.ImportTimeout < 0 || c.Acquire.SubmitInterval < 0 {
		return fmt.Errorf("%w: acquire durations must not be negative", ErrInvalid)
	}
	if c.Acquire.MaxModelMB <= 0 {
		return fmt.Errorf("%w: acquire.max_model_mb must be positive", ErrInvalid)
	}
	if c.Storage.ModelDir == "" {
		return fmt.Errorf("%w: storage.model_dir is empty", ErrInvalid)
	}
	if c.Spawner.ChildScale <= 0 {
		return fmt.Errorf("%w: spawner.child_scale must be positive", ErrInvalid)
	}
	for _, s := range c.Spawner.Scale {
		if s == 0 {
			return fmt.Errorf("%w: spawner.scale has a zero axis", ErrInvalid)
		}
	}
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: graphics size %dx%d", ErrInvalid, c.Graphics.Width, c.Graphics.Height)
	}
	if c.Audio.MasterVolume < 0 || c.Audio.MasterVolume > 1 {
		return fmt.Errorf("%w: audio.master_volume %v outside 0-1", ErrInvalid, c.Audio.MasterVolume)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics enabled without addr", ErrInvalid)
	}
	if c.Telemetry.Enabled && c.Telemetry.Addr == "" {
		return fmt.Errorf("%w: telemetry enabled without addr", ErrInvalid)
	}
	return nil
}
