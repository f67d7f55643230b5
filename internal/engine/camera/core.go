package camera

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/engine/input"
	"github.com/Faultbox/reveal-viewer/internal/logger"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// core is the state and plumbing shared by both manager variants.
type core struct {
	cfg Config
	cam Camera

	// resolve builds the public State from the variant's authoritative fields.
	resolve func() State

	change emitter
	stop   emitter
	nextID ListenerID

	stopTrigger stopTrigger
	anim        *animation
	pointers    pointerCache

	unsubscribe func()
	disposed    bool

	log *zap.Logger
}

func newCore(cfg Config) core {
	cfg = cfg.withDefaults()
	c := core{
		cfg:         cfg,
		stopTrigger: newStopTrigger(cfg.StopDebounce),
		log:         logger.Named("camera"),
		cam: Camera{
			Position: cfg.Position,
			Rotation: math.QuatLookAt(cfg.Position, cfg.Target, math.UnitY),
			FOV:      cfg.FOV,
			Near:     DefaultNear,
			Far:      DefaultFar,
		},
	}
	c.SetViewport(cfg.ViewportWidth, cfg.ViewportHeight)
	return c
}

func (c *core) subscribe(src input.Source, h input.Handler) {
	if src != nil {
		c.unsubscribe = src.Subscribe(h)
	}
}

// Camera returns a snapshot of the current camera.
func (c *core) Camera() Camera {
	return c.cam
}

// SetViewport updates aspect and cursor-ray dimensions. Non-positive sizes are ignored.
func (c *core) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.cam.ViewportWidth = width
	c.cam.ViewportHeight = height
	c.cam.Aspect = float32(width) / float32(height)
}

// On subscribes fn to kind and returns an id for Off. Unknown kinds and nil listeners return 0.
func (c *core) On(kind EventKind, fn Listener) ListenerID {
	e := c.emitterFor(kind)
	if e == nil || fn == nil || c.disposed {
		return 0
	}
	c.nextID++
	e.add(c.nextID, fn)
	return c.nextID
}

// Off removes a subscription. Removing an unknown id is a no-op.
func (c *core) Off(kind EventKind, id ListenerID) {
	if e := c.emitterFor(kind); e != nil {
		e.remove(id)
	}
}

func (c *core) emitterFor(kind EventKind) *emitter {
	switch kind {
	case EventCameraChange:
		return &c.change
	case EventCameraStop:
		return &c.stop
	}
	return nil
}

// raiseChange notifies change listeners and restarts the stop debounce.
func (c *core) raiseChange() {
	c.stopTrigger.changed()
	c.change.emit(c.resolve())
}

// Update advances the running animation, refreshes the clip planes from
// sceneBounds and fires cameraStop once the debounce window has passed.
func (c *core) Update(dt time.Duration, sceneBounds math.Box3) {
	if c.disposed {
		return
	}
	if a := c.anim; a != nil {
		if a.advance(dt) && c.anim == a {
			c.anim = nil
		}
	}
	if !sceneBounds.IsEmpty() {
		c.cam.Near, c.cam.Far = clipPlanes(c.cam, sceneBounds)
	}
	if c.stopTrigger.advance(dt) {
		c.stop.emit(c.resolve())
	}
}

// animate replaces any running animation. Non-positive durations apply the end state now.
func (c *core) animate(duration time.Duration, step func(t float32)) <-chan struct{} {
	if duration <= 0 {
		c.anim = nil
		step(1)
		return closedChan()
	}
	a := &animation{duration: duration, step: step, done: make(chan struct{})}
	c.anim = a
	return a.done
}

// cancelAnimation drops the running animation without completing it.
func (c *core) cancelAnimation() {
	if c.anim != nil {
		c.log.Debug("animation superseded")
		c.anim = nil
	}
}

// Dispose unsubscribes from input and drops listeners. Safe to call repeatedly.
func (c *core) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.anim = nil
	c.change = emitter{}
	c.stop = emitter{}
}

func (c *core) isManager() {}
