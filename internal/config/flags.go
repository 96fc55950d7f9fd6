package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagEndpoint   = flag.String("endpoint", "", "Static generation server base URL")
	flagSource     = flag.String("source", "", "URL of the text resource holding the server address")
	flagModelDir   = flag.String("models", "", "Directory downloaded models are stored in")
	flagSeed       = flag.Uint64("seed", 0, "Seed for orbit sampling (0 = clock)")
	flagMetrics    = flag.String("metrics", "", "Serve Prometheus metrics on this address")
	flagTelemetry  = flag.String("telemetry", "", "Serve the websocket feed on this address")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagEndpoint != "" {
		cfg.Endpoint.Static = *flagEndpoint
	}
	if *flagSource != "" {
		cfg.Endpoint.SourceURL = *flagSource
	}
	if *flagModelDir != "" {
		cfg.Storage.ModelDir = *flagModelDir
	}
	if *flagSeed != 0 {
		cfg.Spawner.Seed = *flagSeed
	}
	if *flagMetrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *flagMetrics
	}
	if *flagTelemetry != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Addr = *flagTelemetry
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
}
