// Package game implements the preview window: it types prompts, drives
// the spawner once per frame and draws the orbiting containers.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/config"
	"github.com/Faultbox/orbitforge/internal/engine/audio"
	"github.com/Faultbox/orbitforge/internal/engine/camera"
	"github.com/Faultbox/orbitforge/internal/engine/debug"
	"github.com/Faultbox/orbitforge/internal/engine/input"
	"github.com/Faultbox/orbitforge/internal/engine/renderer"
	"github.com/Faultbox/orbitforge/internal/engine/window"
	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/internal/spawner"
	"github.com/Faultbox/orbitforge/internal/telemetry"
	"github.com/Faultbox/orbitforge/pkg/math"
)

// maxFrameDelta caps dt so a stalled frame does not teleport objects.
const maxFrameDelta = 0.25

// Config holds preview configuration.
type Config struct {
	Title    string
	Graphics config.GraphicsConfig
	Audio    config.AudioConfig
	Anchor   math.Vec3
	// ScreenshotDir receives F12 captures; empty disables them.
	ScreenshotDir string
}

// Game is the preview window instance.
type Game struct {
	config   Config
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	audio    *audio.Manager
	log      *zap.Logger

	spawner *spawner.Spawner
	status  *StatusBox
	hub     *telemetry.Hub
	prompt  *Prompt
	batch   renderer.Batch
	shots   *debug.Screenshots

	captureNext bool

	statusVersion uint64
	title         string
}

// New opens the window and GL renderer. status must be the sink the
// spawner reports to; hub may be nil.
func New(cfg Config, sp *spawner.Spawner, status *StatusBox, hub *telemetry.Hub) (*Game, error) {
	g := &Game{
		config:  cfg,
		spawner: sp,
		status:  status,
		hub:     hub,
		prompt:  NewPrompt(sp),
		log:     logger.Named("game"),
	}
	if cfg.ScreenshotDir != "" {
		g.shots = debug.NewScreenshots(cfg.ScreenshotDir, "orbitforge")
	}
	g.log.Info("initializing preview",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	var err error
	g.window, err = window.New(window.Config{
		Title:      cfg.Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer after window, since the GL context must exist.
	g.renderer, err = renderer.New(renderer.Config{
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
	})
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	g.input = input.New()
	g.camera = camera.NewOrbitCamera()
	g.camera.Center = cfg.Anchor
	g.camera.AutoRotate = 0.05

	g.audio = audio.New()
	g.audio.SetMasterVolume(float64(cfg.Audio.MasterVolume))
	g.audio.SetMuted(cfg.Audio.Muted)
	if err := g.audio.Init(); err != nil {
		// Cues are optional; the preview runs silent.
		g.log.Warn("audio unavailable", zap.Error(err))
	}

	return g, nil
}

// Run drives frames until the window closes or ctx is done.
func (g *Game) Run(ctx context.Context) error {
	g.log.Info("starting preview loop")

	var frameBudget time.Duration
	if !g.config.Graphics.VSync && g.config.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(g.config.Graphics.FPSLimit)
	}

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frameStart := time.Now()
		dt := float32(frameStart.Sub(lastTime).Seconds())
		lastTime = frameStart
		if dt > maxFrameDelta {
			dt = maxFrameDelta
		}

		if g.input.Update() {
			return nil
		}
		if g.handleEvents() {
			return nil
		}

		g.update(dt)
		g.render()
		if g.captureNext {
			g.captureNext = false
			g.capture()
		}
		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			g.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Int("objects", g.spawner.Engine().Len()))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if rest := frameBudget - time.Since(frameStart); rest > 0 {
				time.Sleep(rest)
			}
		}
	}
}

// handleEvents applies this frame's input. It reports whether to quit.
func (g *Game) handleEvents() bool {
	for _, ev := range g.input.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			g.renderer.Resize(ev.Width, ev.Height)
		case input.EventTextInput:
			g.prompt.Type(ev.Text)
		case input.EventMouseDrag:
			g.camera.HandleDrag(ev.DX, ev.DY)
		case input.EventMouseWheel:
			g.camera.HandleZoom(ev.Wheel)
		case input.EventKeyDown:
			switch ev.Key {
			case sdl.SCANCODE_RETURN, sdl.SCANCODE_KP_ENTER:
				if err := g.prompt.Enter(); err != nil && !errors.Is(err, spawner.ErrBusy) {
					g.log.Debug("prompt rejected", zap.Error(err))
				}
			case sdl.SCANCODE_HOME:
				g.camera.FitToBounds(sceneBounds(g.config.Anchor, g.spawner.Engine().Objects()))
			case sdl.SCANCODE_F12:
				g.captureNext = g.shots != nil
			case sdl.SCANCODE_BACKSPACE:
				g.prompt.Backspace()
			case sdl.SCANCODE_ESCAPE:
				if g.prompt.Text() == "" {
					return true
				}
				g.prompt.Clear()
			}
		}
	}
	return false
}

func (g *Game) update(dt float32) {
	g.spawner.Update(dt)
	g.camera.Update(dt)

	text, version := g.status.Snapshot()
	if version != g.statusVersion {
		g.statusVersion = version
		if cue, ok := cueFor(text); ok {
			if err := g.audio.Play(cue); err != nil {
				g.log.Debug("cue failed", zap.Error(err))
			}
		}
	}
	if title := Title(g.config.Title, text, g.prompt.Text()); title != g.title {
		g.title = title
		g.window.SetTitle(title)
	}

	if g.hub != nil {
		g.hub.PublishFrame(g.spawner.Engine().Objects())
	}
}

func (g *Game) render() {
	renderer.BuildScene(&g.batch, g.config.Anchor, g.spawner.Engine().Objects())
	g.renderer.Begin()
	g.renderer.Draw(&g.batch, g.camera.ViewProjection(g.window.Aspect()))
}

func (g *Game) capture() {
	pixels, w, h := g.renderer.ReadPixels()
	path, err := g.shots.Save(pixels, w, h)
	if err != nil {
		g.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	g.log.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up preview resources.
func (g *Game) Close() {
	g.log.Info("closing preview")

	g.audio.Close()
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}
