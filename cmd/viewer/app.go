package main

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/annotations"
	"github.com/Faultbox/reveal-viewer/internal/config"
	"github.com/Faultbox/reveal-viewer/internal/engine/debug"
	"github.com/Faultbox/reveal-viewer/internal/engine/gldevice"
	"github.com/Faultbox/reveal-viewer/internal/engine/render"
	"github.com/Faultbox/reveal-viewer/internal/engine/window"
	"github.com/Faultbox/reveal-viewer/internal/logger"
	"github.com/Faultbox/reveal-viewer/internal/viewer"
)

const windowTitle = "Reveal Viewer"

// app is the SDL frame loop around a viewer session.
type app struct {
	cfg     *config.Config
	window  *window.Window
	device  *gldevice.Device
	session *viewer.Session
	shots   *debug.ScreenshotCapture

	running bool
	log     *zap.Logger
}

func newApp(cfg *config.Config) (*app, error) {
	if cfg.Viewer.Backend != "gl" {
		return nil, fmt.Errorf("backend %q has no window; use render-frame for headless output", cfg.Viewer.Backend)
	}

	a := &app{
		cfg:   cfg,
		shots: debug.NewScreenshotCapture(cfg.Viewer.ScreenshotDir, "reveal"),
		log:   logger.Named("app"),
	}

	// Create window (this also creates the OpenGL context)
	var err error
	a.window, err = window.New(window.Config{
		Title:      windowTitle,
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Device after the window: the GL context must exist.
	a.device, err = gldevice.New()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create GL device: %w", err)
	}

	client := annotations.NewClient(cfg.Annotations.BaseURL, cfg.Annotations.Timeout)
	a.session, err = viewer.NewSession(cfg, a.device, client)
	if err != nil {
		a.device.Destroy()
		a.window.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	a.session.Resize(a.window.DrawableSize())

	if len(cfg.Viewer.ModelIDs) > 0 {
		if err := a.load(); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) load() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Annotations.Timeout)
	defer cancel()
	if _, err := a.session.LoadModels(ctx, a.cfg.Viewer.ModelIDs); err != nil {
		return fmt.Errorf("loading models %v: %w", a.cfg.Viewer.ModelIDs, err)
	}
	a.window.SetTitle(fmt.Sprintf("%s - %d objects", windowTitle, len(a.session.Styler().Objects())))
	return nil
}

// run is the frame loop.
func (a *app) run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var minFrame time.Duration
	if a.cfg.Viewer.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(a.cfg.Viewer.FPSLimit)
	}

	a.log.Info("starting frame loop")

	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		// 1. Input: pointer events go straight to the camera and selection.
		events := a.window.PollEvents(a.session.Input())
		if events.Quit || events.KeyPressed(sdl.SCANCODE_ESCAPE) {
			a.running = false
			break
		}
		if events.Resized {
			a.session.Resize(a.window.DrawableSize())
		}
		a.handleKeys(events)

		// 2. Camera update and layered render
		res, err := a.session.Frame(dt)
		if err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		// 3. Present
		w, h := a.window.DrawableSize()
		if err := a.device.Present(res.Target, w, h); err != nil {
			return fmt.Errorf("present error: %w", err)
		}
		if events.KeyPressed(sdl.SCANCODE_F12) {
			a.screenshot(res.Target)
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if minFrame > 0 {
			if spent := time.Since(now); spent < minFrame {
				time.Sleep(minFrame - spent)
			}
		}
	}

	return nil
}

func (a *app) handleKeys(events window.Events) {
	if events.KeyPressed(sdl.SCANCODE_R) {
		if err := a.load(); err != nil {
			a.log.Warn("reload failed", zap.Error(err))
		}
	}
	if events.KeyPressed(sdl.SCANCODE_F) {
		bounds := a.session.Scene().Bounds()
		a.session.Camera().FitCameraToBoundingBox(bounds, a.cfg.Camera.FitDuration, a.cfg.Camera.FitRadiusFactor)
	}
}

func (a *app) screenshot(target render.Target) {
	img, err := a.device.Image(target)
	if err != nil {
		a.log.Warn("screenshot read-back failed", zap.Error(err))
		return
	}
	path, err := a.shots.Capture(img)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

func (a *app) close() {
	a.log.Info("closing viewer")

	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
	if a.device != nil {
		a.device.Destroy()
		a.device = nil
	}
	if a.window != nil {
		a.window.Close()
		a.window = nil
	}
}
