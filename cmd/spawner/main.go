// Package main is the entry point for the OrbitForge preview: type a
// prompt, the server generates a GLB model and it spirals into orbit.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/acquire"
	"github.com/Faultbox/orbitforge/internal/assets"
	"github.com/Faultbox/orbitforge/internal/config"
	"github.com/Faultbox/orbitforge/internal/endpoint"
	"github.com/Faultbox/orbitforge/internal/engine/model"
	"github.com/Faultbox/orbitforge/internal/engine/scene"
	"github.com/Faultbox/orbitforge/internal/game"
	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/internal/metrics"
	"github.com/Faultbox/orbitforge/internal/network"
	"github.com/Faultbox/orbitforge/internal/orbit"
	"github.com/Faultbox/orbitforge/internal/placement"
	"github.com/Faultbox/orbitforge/internal/spawner"
	"github.com/Faultbox/orbitforge/internal/telemetry"
	"github.com/Faultbox/orbitforge/pkg/math"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== OrbitForge ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("spawner exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("closed normally")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *metrics.Collector
	status := &game.StatusBox{}

	var hub *telemetry.Hub
	if cfg.Telemetry.Enabled {
		hub = telemetry.NewHub(cfg.Telemetry.FrameInterval.D())
		go serve(ctx, "telemetry", func(ctx context.Context) error { return hub.Serve(ctx, cfg.Telemetry.Addr) })
	}
	if cfg.Metrics.Enabled {
		collector = metrics.New()
		go serve(ctx, "metrics", func(ctx context.Context) error { return collector.Serve(ctx, cfg.Metrics.Addr) })
	}

	var sink acquire.StatusSink = status
	if hub != nil {
		sink = acquire.MultiSink(status, hub)
	}

	client := network.New(network.Options{
		MaxBodyBytes: int64(cfg.Acquire.MaxModelMB) << 20,
	})
	resolver := endpoint.NewResolver(endpoint.Config{
		SourceURL: cfg.Endpoint.SourceURL,
		Static:    cfg.Endpoint.Static,
	}, client)

	store, err := assets.NewStore(cfg.Storage.ModelDir)
	if err != nil {
		return fmt.Errorf("model store: %w", err)
	}
	if cached, err := store.List(); err != nil {
		logger.Warn("listing model store", zap.Error(err))
	} else {
		logger.Info("model store", zap.String("dir", store.Dir()), zap.Int("cached", len(cached)))
	}
	pipeline := acquire.New(client, store, model.NewGLTFImporter(), acquire.Options{
		RequestTimeout: cfg.Acquire.RequestTimeout.D(),
		ImportTimeout:  cfg.Acquire.ImportTimeout.D(),
		Interval:       cfg.Acquire.SubmitInterval.D(),
		Burst:          cfg.Acquire.SubmitBurst,
	}, collector)

	sampler := orbit.NewSampler(nil)
	if cfg.Spawner.Seed != 0 {
		sampler = orbit.NewSeededSampler(cfg.Spawner.Seed)
	}

	placeOpts := placement.DefaultOptions()
	placeOpts.Anchor = anchorTransform(cfg.Spawner)
	placeOpts.ChildScale = cfg.Spawner.ChildScale

	sp, err := spawner.New(resolver, pipeline, spawner.Options{
		Tuning:    cfg.Orbit,
		Placement: placeOpts,
		Graph:     scene.NewGraph(),
		Factory:   scene.GrabbableFactory{},
		Sampler:   sampler,
		Status:    sink,
		Metrics:   collector,
	})
	if err != nil {
		return fmt.Errorf("spawner: %w", err)
	}
	defer sp.Close()
	sp.Start(ctx)

	if path := config.Path(); path != "" {
		go watchConfig(ctx, path, sp)
	}

	g, err := game.New(game.Config{
		Title:    "OrbitForge",
		Graphics: cfg.Graphics,
		Audio:    cfg.Audio,
		Anchor:   placeOpts.Anchor.Position,

		ScreenshotDir: filepath.Join(config.ConfigDir(), "screenshots"),
	}, sp, status, hub)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	defer g.Close()

	return g.Run(ctx)
}

// anchorTransform converts the configured spawn pose.
func anchorTransform(c config.SpawnerConfig) scene.Transform {
	return scene.Transform{
		Position: math.Vec3{X: c.Anchor[0], Y: c.Anchor[1], Z: c.Anchor[2]},
		Rotation: math.QuatFromEuler(c.Rotation[0], c.Rotation[1], c.Rotation[2]),
		Scale:    math.Vec3{X: c.Scale[0], Y: c.Scale[1], Z: c.Scale[2]},
	}
}

// watchConfig applies orbit tuning edits while running. Objects already
// in flight keep the parameters they were sampled with.
func watchConfig(ctx context.Context, path string, sp *spawner.Spawner) {
	err := config.Watch(ctx, path, func(c *config.Config) {
		if err := sp.SetTuning(c.Orbit); err != nil {
			logger.Warn("tuning rejected", zap.Error(err))
			return
		}
		logger.Info("orbit tuning updated",
			zap.Float32("min_radius", c.Orbit.MinRadius),
			zap.Float32("max_radius", c.Orbit.MaxRadius))
	})
	if err != nil {
		logger.Warn("config watch stopped", zap.String("path", path), zap.Error(err))
	}
}

func serve(ctx context.Context, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", zap.String("server", name), zap.Error(err))
	}
}
