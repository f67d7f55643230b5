// Package viewer ties the camera, styling and render pipeline into one viewer
// session. It has no window dependency; the frame loop lives in cmd/viewer.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/annotations"
	"github.com/Faultbox/reveal-viewer/internal/config"
	"github.com/Faultbox/reveal-viewer/internal/engine/camera"
	"github.com/Faultbox/reveal-viewer/internal/engine/debug"
	"github.com/Faultbox/reveal-viewer/internal/engine/input"
	"github.com/Faultbox/reveal-viewer/internal/engine/render"
	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/internal/engine/styling"
	"github.com/Faultbox/reveal-viewer/internal/logger"
	"github.com/Faultbox/reveal-viewer/internal/pointcloud"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

const (
	gridNodeID     = 1
	objectNodeBase = 1000
	gridSpacing    = 1

	// clickSlop is how far, in pixels, a pointer may travel between down and
	// up and still select.
	clickSlop = 4
)

// SelectedColor is the in-front highlight of the selected object.
var SelectedColor = [4]float32{1, 0.6, 0.1, 1}

// Session is one open viewer: a camera, a scene of styled objects and a
// pipeline. It is driven from a single frame thread.
type Session struct {
	cfg *config.Config

	input    *input.Dispatcher
	device   render.Device
	camera   camera.Manager
	scene    *scene.Scene
	styler   *styling.Styler
	provider *pointcloud.Provider
	pipeline *render.Pipeline

	custom   []*scene.Node
	bounds   math.Box3
	selected int64
	hasSel   bool

	width, height int
	unsubscribe   func()
	log           *zap.Logger
}

// NewSession builds a session drawing through dev and reading annotations
// from lister.
func NewSession(cfg *config.Config, dev render.Device, lister annotations.Lister) (*Session, error) {
	camCfg, err := CameraConfig(cfg)
	if err != nil {
		return nil, err
	}
	order, err := pointcloud.ParseMatrixOrder(cfg.Annotations.MatrixOrder)
	if err != nil {
		return nil, fmt.Errorf("annotations.matrix_order: %w", err)
	}

	d := input.NewDispatcher()
	cam, err := camera.New(camCfg, d)
	if err != nil {
		return nil, err
	}
	styler, err := styling.New(nil, styling.DefaultStyle, styling.Options{NodeIDBase: objectNodeBase})
	if err != nil {
		cam.Dispose()
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		input:    d,
		device:   dev,
		camera:   cam,
		scene:    scene.New(),
		styler:   styler,
		provider: pointcloud.NewProvider(lister, pointcloud.Options{PageLimit: cfg.Annotations.PageLimit, MatrixOrder: order}),
		pipeline: render.New(dev, RenderOptions(cfg.Render)),
		bounds:   math.EmptyBox3(),
		width:    cfg.Viewer.Width,
		height:   cfg.Viewer.Height,
		log:      logger.Named("viewer"),
	}
	s.unsubscribe = d.Subscribe(&clickSelector{session: s})
	cam.On(camera.EventCameraStop, func(st camera.State) {
		s.log.Debug("camera stopped",
			zap.Float32s("position", []float32{st.Position.X, st.Position.Y, st.Position.Z}),
			zap.Float32s("target", []float32{st.Target.X, st.Target.Y, st.Target.Z}))
	})
	return s, nil
}

// CameraConfig maps the file configuration onto the camera manager.
func CameraConfig(cfg *config.Config) (camera.Config, error) {
	mode, err := camera.ParseMode(cfg.Camera.Mode)
	if err != nil {
		return camera.Config{}, err
	}
	c := camera.DefaultConfig(mode)
	c.FOV = cfg.Camera.FOV
	c.MinFOV = cfg.Camera.MinFOV
	c.StopDebounce = cfg.Camera.StopDebounce
	c.FitRadiusFactor = cfg.Camera.FitRadiusFactor
	c.PinchThreshold = cfg.Camera.PinchThreshold
	c.RotationSensitivity = cfg.Camera.RotationSensitivity
	c.WheelSensitivity = cfg.Camera.WheelSensitivity
	c.ViewportWidth = cfg.Viewer.Width
	c.ViewportHeight = cfg.Viewer.Height
	return c, nil
}

// RenderOptions maps the file configuration onto the pipeline.
func RenderOptions(rc config.RenderConfig) render.Options {
	o := render.DefaultOptions()
	o.SampleCount = rc.SampleCount
	o.GhostAlpha = rc.GhostAlpha
	o.InFrontAlpha = rc.InFrontAlpha
	o.ClearColor = rc.ClearColor
	o.Outline = rc.Outline
	o.OutlineColor = rc.OutlineColor
	return o
}

// Input is the dispatcher the window forwards pointer events to.
func (s *Session) Input() *input.Dispatcher { return s.input }

// Camera returns the camera manager.
func (s *Session) Camera() camera.Manager { return s.camera }

// Styler returns the object styler. Call Restyle after changing styles.
func (s *Session) Styler() *styling.Styler { return s.styler }

// Scene returns the scene, for inspection.
func (s *Session) Scene() *scene.Scene { return s.scene }

// Resize sets the frame size.
func (s *Session) Resize(width, height int) {
	s.width, s.height = width, height
	s.camera.SetViewport(width, height)
}

// LoadModels fetches the stylable objects of every model, replaces the
// current object set and frames the result. It returns the transition's
// completion channel.
func (s *Session) LoadModels(ctx context.Context, modelIDs []int64) (<-chan struct{}, error) {
	byModel, err := s.provider.GetPointCloudObjectsForModels(ctx, modelIDs)
	if err != nil {
		return nil, err
	}
	var objects []pointcloud.StylableObject
	for _, id := range modelIDs {
		objects = append(objects, byModel[id]...)
	}
	s.release(s.styler.Replace(objects)...)
	// The styler keeps the style of ids that survive, so a surviving
	// selection stays selected.
	if s.hasSel {
		if _, ok := s.styler.Bounds(s.selected); !ok {
			s.hasSel = false
		}
	}
	if err := s.Restyle(); err != nil {
		return nil, err
	}
	s.log.Info("models loaded", zap.Int64s("models", modelIDs), zap.Int("objects", len(objects)))

	s.bounds = s.contentBounds()
	return s.camera.FitCameraToBoundingBox(s.bounds, s.cfg.Camera.FitDuration, s.cfg.Camera.FitRadiusFactor), nil
}

// Restyle rebuilds the object nodes and the ground grid.
func (s *Session) Restyle() error {
	custom, err := s.styler.Apply(s.scene)
	if err != nil {
		return err
	}
	s.custom = custom

	if old := s.scene.Node(gridNodeID); old != nil {
		s.scene.Remove(gridNodeID)
		s.release(old.Mesh)
	}
	if mesh := debug.GroundGrid(s.contentBounds(), gridSpacing, 0); mesh != nil {
		if err := s.scene.Add(&scene.Node{
			ID:        gridNodeID,
			Mesh:      mesh,
			Transform: math.Identity(),
			Color:     debug.GridColor,
			Layers:    scene.Mask(scene.LayerBack),
		}); err != nil {
			return err
		}
	}
	return nil
}

// release frees the device copies of meshes that will not be drawn again.
func (s *Session) release(meshes ...*scene.Mesh) {
	r, ok := s.device.(render.MeshReleaser)
	if !ok {
		return
	}
	for _, m := range meshes {
		r.ReleaseMesh(m)
	}
}

func (s *Session) contentBounds() math.Box3 {
	b := math.EmptyBox3()
	for _, o := range s.styler.Objects() {
		if ob, ok := s.styler.Bounds(o.ObjectID); ok {
			b = b.Union(ob)
		}
	}
	return b
}

// Pick returns the object under the pixel (x, y).
func (s *Session) Pick(x, y float32) (int64, bool) {
	id, _, ok := s.styler.Pick(s.camera.Camera().CursorRay(x, y))
	return id, ok
}

// Select highlights id in front of everything, clearing the previous
// selection. Selecting an unknown id only clears.
func (s *Session) Select(id int64) error {
	if s.hasSel {
		s.styler.ResetStyle(s.selected)
		s.hasSel = false
	}
	err := s.styler.SetStyle(id, styling.Style{Color: SelectedColor, Layer: scene.LayerInFront})
	switch {
	case errors.Is(err, styling.ErrUnknownObject):
	case err != nil:
		return err
	default:
		s.selected, s.hasSel = id, true
	}
	return s.Restyle()
}

// ClearSelection drops the highlight.
func (s *Session) ClearSelection() error {
	return s.Select(-1)
}

// Selected returns the selected object.
func (s *Session) Selected() (int64, bool) {
	return s.selected, s.hasSel
}

// Frame advances the camera by dt and renders one frame.
func (s *Session) Frame(dt time.Duration) (render.Result, error) {
	s.camera.Update(dt, s.bounds)
	res, err := s.pipeline.Render(render.Frame{
		Scene:  s.scene,
		Camera: s.camera.Camera(),
		Width:  s.width,
		Height: s.height,
		Custom: s.custom,
	})
	if err != nil {
		return render.Result{}, err
	}
	s.bounds = res.SceneBounds
	return res, nil
}

// Close releases the pipeline targets and the camera.
func (s *Session) Close() {
	s.unsubscribe()
	s.pipeline.Dispose()
	s.camera.Dispose()
}

// clickSelector selects the object under a primary click.
type clickSelector struct {
	session *Session
	pressed bool
	x, y    float32
}

func (c *clickSelector) PointerDown(e input.PointerEvent) {
	c.pressed = e.Button == input.ButtonPrimary
	c.x, c.y = e.X, e.Y
}

func (c *clickSelector) PointerMove(input.PointerEvent) {}

func (c *clickSelector) PointerUp(e input.PointerEvent) {
	if !c.pressed {
		return
	}
	c.pressed = false
	dx, dy := e.X-c.x, e.Y-c.y
	if dx*dx+dy*dy > clickSlop*clickSlop {
		return
	}
	var err error
	if id, ok := c.session.Pick(e.X, e.Y); ok {
		err = c.session.Select(id)
	} else {
		err = c.session.ClearSelection()
	}
	if err != nil {
		c.session.log.Warn("selection failed", zap.Error(err))
	}
}

func (c *clickSelector) Wheel(input.WheelEvent) {}
