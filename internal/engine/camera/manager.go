package camera

import (
	"fmt"
	"time"

	"github.com/Faultbox/reveal-viewer/internal/engine/input"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// Manager owns the viewer camera. It is driven from a single frame thread:
// input handlers, Update and the setters must not be called concurrently.
//
// The set of implementations is closed: *OrbitManager and *StationaryManager.
type Manager interface {
	// Camera returns a snapshot of the current camera.
	Camera() Camera
	// CameraState returns the resolved position, target and rotation.
	CameraState() State
	// SetCameraState applies a sparse patch. It cancels any running animation.
	SetCameraState(patch StatePatch) error
	// FitCameraToBoundingBox frames box from the current view direction. The
	// returned channel closes when the transition completes.
	FitCameraToBoundingBox(box math.Box3, duration time.Duration, radiusFactor float32) <-chan struct{}
	// Update advances animations and the stop debounce and refreshes the clip planes.
	Update(dt time.Duration, sceneBounds math.Box3)
	// SetViewport updates the aspect ratio and the pixel size used for cursor rays.
	SetViewport(width, height int)

	On(kind EventKind, fn Listener) ListenerID
	Off(kind EventKind, id ListenerID)

	// Dispose unsubscribes from input and drops listeners. It is idempotent.
	Dispose()

	Mode() Mode

	isManager()
}

// New creates the manager for cfg.Mode and subscribes it to src, which may be nil.
func New(cfg Config, src input.Source) (Manager, error) {
	switch cfg.Mode {
	case ModeOrbit:
		return NewOrbit(cfg, src), nil
	case ModeStationary:
		return NewStationary(cfg, src), nil
	default:
		return nil, fmt.Errorf("camera: unknown mode %q", cfg.Mode)
	}
}
