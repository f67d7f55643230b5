package camera

import (
	gomath "math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/engine/input"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// maxOrbitPitch keeps dragging away from the poles, where yaw is undefined.
const maxOrbitPitch = gomath.Pi/2 - 0.01

// pinchDollyScale converts pinch pixels to wheel units.
const pinchDollyScale = 5

// OrbitManager rotates, pans and dollies around a target point.
// The target is authoritative; rotation always looks from position at target with +Y up.
type OrbitManager struct {
	core
	target math.Vec3
}

// NewOrbit creates an orbit manager subscribed to src (may be nil).
func NewOrbit(cfg Config, src input.Source) *OrbitManager {
	cfg.Mode = ModeOrbit
	m := &OrbitManager{core: newCore(cfg)}
	m.target = m.cfg.Target
	m.resolve = m.CameraState
	m.subscribe(src, m)
	return m
}

func (m *OrbitManager) Mode() Mode { return ModeOrbit }

// Target returns the orbit centre.
func (m *OrbitManager) Target() math.Vec3 {
	return m.target
}

// CameraState returns position, target and the derived look-at rotation.
func (m *OrbitManager) CameraState() State {
	return State{
		Position: m.cam.Position,
		Target:   m.target,
		Rotation: m.cam.Rotation,
	}
}

// SetCameraState applies patch. A rotation-only patch moves the target along the
// new view direction, keeping the current distance.
func (m *OrbitManager) SetCameraState(patch StatePatch) error {
	if err := patch.validate(); err != nil {
		return err
	}
	m.cancelAnimation()

	distance := m.distance()
	if patch.Position != nil {
		m.cam.Position = *patch.Position
	}
	switch {
	case patch.Target != nil:
		m.target = *patch.Target
	case patch.Rotation != nil:
		if distance <= 0 {
			distance = m.cfg.MinDistance
		}
		forward := patch.Rotation.Normalize().Rotate(math.Vec3{Z: -1})
		m.target = m.cam.Position.Add(forward.Scale(distance))
	}
	m.sync()
	m.raiseChange()
	return nil
}

// FitCameraToBoundingBox moves position and target so box is framed from the current direction.
func (m *OrbitManager) FitCameraToBoundingBox(box math.Box3, duration time.Duration, radiusFactor float32) <-chan struct{} {
	toPos, toTarget := fitPosition(m.cam, box, radiusFactor)
	fromPos, fromTarget := m.cam.Position, m.target
	m.log.Debug("fit to bounds", zap.Stringer("duration", duration), zap.Float32("distance", toPos.Distance(toTarget)))
	return m.animate(duration, func(t float32) {
		m.cam.Position = fromPos.Lerp(toPos, t)
		m.target = fromTarget.Lerp(toTarget, t)
		m.sync()
		if t >= 1 && !box.IsEmpty() {
			m.cam.Near, m.cam.Far = clipPlanes(m.cam, box)
		}
		m.raiseChange()
	})
}

func (m *OrbitManager) PointerDown(e input.PointerEvent) {
	m.pointers.down(e)
}

func (m *OrbitManager) PointerMove(e input.PointerEvent) {
	if !m.pointers.move(e) {
		return
	}
	switch m.pointers.count() {
	case 1:
		switch m.pointers.first().Button {
		case input.ButtonSecondary, input.ButtonMiddle:
			m.pan(e.MovementX, e.MovementY)
		default:
			m.orbit(e.MovementX, e.MovementY)
		}
	case 2:
		if delta, ok := m.pointers.pinch(m.cfg.PinchThreshold); ok {
			m.dolly(-delta * pinchDollyScale)
		}
	}
}

func (m *OrbitManager) PointerUp(e input.PointerEvent) {
	m.pointers.up(e)
}

func (m *OrbitManager) Wheel(e input.WheelEvent) {
	m.dolly(e.DeltaY)
}

func (m *OrbitManager) distance() float32 {
	return m.cam.Position.Distance(m.target)
}

// sync derives the rotation from position and target.
func (m *OrbitManager) sync() {
	m.cam.Rotation = math.QuatLookAt(m.cam.Position, m.target, math.UnitY)
}

// spherical returns the offset from target as distance, pitch and yaw.
func (m *OrbitManager) spherical() (distance, pitch, yaw float32) {
	offset := m.cam.Position.Sub(m.target)
	distance = offset.Length()
	if distance == 0 {
		return 0, 0, 0
	}
	pitch = float32(gomath.Asin(float64(max(-1, min(1, offset.Y/distance)))))
	yaw = float32(gomath.Atan2(float64(offset.X), float64(offset.Z)))
	return distance, pitch, yaw
}

func (m *OrbitManager) setSpherical(distance, pitch, yaw float32) {
	cosPitch := float32(gomath.Cos(float64(pitch)))
	m.cam.Position = m.target.Add(math.Vec3{
		X: distance * cosPitch * float32(gomath.Sin(float64(yaw))),
		Y: distance * float32(gomath.Sin(float64(pitch))),
		Z: distance * cosPitch * float32(gomath.Cos(float64(yaw))),
	})
	m.sync()
}

func (m *OrbitManager) orbit(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	m.cancelAnimation()

	distance, pitch, yaw := m.spherical()
	if distance == 0 {
		return
	}
	yaw -= dx * m.cfg.OrbitSensitivity
	pitch += dy * m.cfg.OrbitSensitivity
	pitch = max(-maxOrbitPitch, min(maxOrbitPitch, pitch))
	m.setSpherical(distance, pitch, yaw)
	m.raiseChange()
}

// pan slides position and target together so the point under the cursor follows it.
func (m *OrbitManager) pan(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	m.cancelAnimation()

	worldPerPixel := 2 * m.distance() * float32(gomath.Tan(float64(degToRad(m.cam.FOV))/2)) / float32(m.cam.ViewportHeight)
	offset := m.cam.Right().Scale(-dx * worldPerPixel).Add(m.cam.Up().Scale(dy * worldPerPixel))
	m.cam.Position = m.cam.Position.Add(offset)
	m.target = m.target.Add(offset)
	m.raiseChange()
}

// dolly moves toward (negative delta) or away from the target, never closer than MinDistance.
func (m *OrbitManager) dolly(delta float32) {
	if delta == 0 {
		return
	}
	distance := m.distance()
	if distance == 0 {
		return
	}
	factor := max(0.1, 1+delta*m.cfg.DollySensitivity)
	next := max(m.cfg.MinDistance, distance*factor)
	if next == distance {
		return
	}
	m.cancelAnimation()

	dir := m.cam.Position.Sub(m.target).Scale(1 / distance)
	m.cam.Position = m.target.Add(dir.Scale(next))
	m.raiseChange()
}
