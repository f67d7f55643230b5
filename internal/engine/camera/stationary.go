package camera

import (
	gomath "math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/engine/input"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// StationaryManager is a free-look camera: the position only changes through
// SetCameraState, MoveTo and FitCameraToBoundingBox, while dragging rotates in
// place and the wheel zooms by narrowing the field of view.
//
// Rotation is authoritative; the reported target is one unit along the view direction.
type StationaryManager struct {
	core
}

// NewStationary creates a stationary manager subscribed to src (may be nil).
func NewStationary(cfg Config, src input.Source) *StationaryManager {
	cfg.Mode = ModeStationary
	m := &StationaryManager{core: newCore(cfg)}
	m.resolve = m.CameraState
	m.subscribe(src, m)
	return m
}

func (m *StationaryManager) Mode() Mode { return ModeStationary }

// CameraState returns the current position, a target one unit ahead and the rotation.
func (m *StationaryManager) CameraState() State {
	return State{
		Position: m.cam.Position,
		Target:   m.cam.Position.Add(m.cam.Forward()),
		Rotation: m.cam.Rotation,
	}
}

// SetCameraState applies patch. A target-only patch turns the camera to look at it.
func (m *StationaryManager) SetCameraState(patch StatePatch) error {
	if err := patch.validate(); err != nil {
		return err
	}
	m.cancelAnimation()

	if patch.Position != nil {
		m.cam.Position = *patch.Position
	}
	switch {
	case patch.Rotation != nil:
		m.cam.Rotation = patch.Rotation.Normalize()
	case patch.Target != nil:
		m.cam.Rotation = math.QuatLookAt(m.cam.Position, *patch.Target, math.UnitY)
	}
	m.raiseChange()
	return nil
}

// FitCameraToBoundingBox moves the camera back along its view direction until box fits.
func (m *StationaryManager) FitCameraToBoundingBox(box math.Box3, duration time.Duration, radiusFactor float32) <-chan struct{} {
	to, _ := fitPosition(m.cam, box, radiusFactor)
	from := m.cam.Position
	m.log.Debug("fit to bounds", zap.Stringer("duration", duration), zap.Float32("distance", to.Distance(from)))
	return m.animate(duration, func(t float32) {
		m.cam.Position = from.Lerp(to, t)
		if t >= 1 && !box.IsEmpty() {
			m.cam.Near, m.cam.Far = clipPlanes(m.cam, box)
		}
		m.raiseChange()
	})
}

// MoveTo animates the position to p and restores the default field of view.
func (m *StationaryManager) MoveTo(p math.Vec3, duration time.Duration) <-chan struct{} {
	from := m.cam.Position
	fromFOV := m.cam.FOV
	return m.animate(duration, func(t float32) {
		m.cam.Position = from.Lerp(p, t)
		m.cam.FOV = fromFOV + (m.cfg.FOV-fromFOV)*t
		m.raiseChange()
	})
}

func (m *StationaryManager) PointerDown(e input.PointerEvent) {
	m.pointers.down(e)
}

func (m *StationaryManager) PointerMove(e input.PointerEvent) {
	if !m.pointers.move(e) {
		return
	}
	switch m.pointers.count() {
	case 1:
		m.rotate(e.MovementX, e.MovementY)
	case 2:
		delta, ok := m.pointers.pinch(m.cfg.PinchThreshold)
		if !ok {
			return
		}
		x, y := m.pointers.midpoint()
		m.zoom(x, y, -delta*m.cfg.PinchSensitivity)
	}
}

func (m *StationaryManager) PointerUp(e input.PointerEvent) {
	m.pointers.up(e)
}

func (m *StationaryManager) Wheel(e input.WheelEvent) {
	m.zoom(e.X, e.Y, e.DeltaY*m.cfg.WheelSensitivity)
}

// rotate turns the camera in place. The angle scales with the current FOV so a
// zoomed-in view does not swing faster than the cursor.
func (m *StationaryManager) rotate(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	m.cancelAnimation()

	scale := m.cfg.RotationSensitivity * m.cam.FOV / m.cfg.FOV
	pitch, yaw, roll := m.cam.Rotation.EulerYXZ()
	pitch += dy * scale
	yaw += dx * scale
	pitch = max(-gomath.Pi/2, min(gomath.Pi/2, pitch))

	m.cam.Rotation = math.QuatFromEulerYXZ(pitch, yaw, roll).Normalize()
	m.raiseChange()
}

// zoom changes the FOV by deltaFOV degrees and re-aims the camera so the world
// point under (x, y) stays under the cursor.
func (m *StationaryManager) zoom(x, y, deltaFOV float32) {
	fov := max(m.cfg.MinFOV, min(m.cfg.FOV, m.cam.FOV+deltaFOV))
	if fov == m.cam.FOV {
		return
	}
	m.cancelAnimation()

	before := m.cam.CursorDirection(x, y)
	m.cam.FOV = fov
	after := m.cam.CursorDirection(x, y)

	m.cam.Rotation = math.QuatFromUnitVectors(after, before).Mul(m.cam.Rotation).Normalize()
	m.raiseChange()
}
