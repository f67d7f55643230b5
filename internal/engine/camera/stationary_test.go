package camera

import (
	gomath "math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/reveal-viewer/internal/engine/input"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

func newStationary(t *testing.T) (*StationaryManager, *input.Dispatcher) {
	t.Helper()
	d := input.NewDispatcher()
	m := NewStationary(DefaultConfig(ModeStationary), d)
	t.Cleanup(m.Dispose)
	return m, d
}

func TestStationaryDragRotatesInPlace(t *testing.T) {
	m, d := newStationary(t)
	start := m.CameraState().Position

	d.PointerDown(input.PointerEvent{PointerID: 1, X: 100, Y: 100, Button: input.ButtonPrimary})
	d.PointerMove(input.PointerEvent{PointerID: 1, X: 200, Y: 100, MovementX: 100})
	d.PointerUp(input.PointerEvent{PointerID: 1, X: 200, Y: 100})

	pitch, yaw, _ := m.Camera().Rotation.EulerYXZ()
	assert.InDelta(t, 100*DefaultRotationSensitivity, yaw, 1e-4)
	assert.InDelta(t, 0, pitch, 1e-4)
	assert.Equal(t, start, m.CameraState().Position)

	// Moves without a pressed pointer are hover and do nothing.
	before := m.CameraState()
	d.PointerMove(input.PointerEvent{PointerID: 1, MovementX: 300})
	assert.Equal(t, before, m.CameraState())
}

func TestStationaryDragScalesWithFOV(t *testing.T) {
	m, d := newStationary(t)
	d.Wheel(input.WheelEvent{X: 640, Y: 360, DeltaY: -600}) // 60 -> 30 degrees
	require.InDelta(t, 30, m.Camera().FOV, 1e-4)
	_, yaw0, _ := m.Camera().Rotation.EulerYXZ()

	d.PointerDown(input.PointerEvent{PointerID: 1, Button: input.ButtonPrimary})
	d.PointerMove(input.PointerEvent{PointerID: 1, MovementX: 100})

	_, yaw1, _ := m.Camera().Rotation.EulerYXZ()
	assert.InDelta(t, 50*DefaultRotationSensitivity, yaw1-yaw0, 1e-4)
}

func TestStationaryPitchClamped(t *testing.T) {
	m, d := newStationary(t)
	d.PointerDown(input.PointerEvent{PointerID: 1, Button: input.ButtonPrimary})
	d.PointerMove(input.PointerEvent{PointerID: 1, MovementY: 5000})

	pitch, _, _ := m.Camera().Rotation.EulerYXZ()
	assert.LessOrEqual(t, float64(pitch), gomath.Pi/2+1e-4)
	assert.Greater(t, m.Camera().Forward().Y, float32(0.99))
}

func TestStationaryWheelClampsFOV(t *testing.T) {
	m, d := newStationary(t)

	d.Wheel(input.WheelEvent{X: 10, Y: 10, DeltaY: -100000})
	assert.Equal(t, float32(DefaultMinFOV), m.Camera().FOV)

	d.Wheel(input.WheelEvent{X: 10, Y: 10, DeltaY: 100000})
	assert.Equal(t, float32(DefaultFOV), m.Camera().FOV)

	// Already at the limit: no change event.
	changes := 0
	m.On(EventCameraChange, func(State) { changes++ })
	d.Wheel(input.WheelEvent{DeltaY: 100})
	assert.Equal(t, 0, changes)
}

func TestStationaryZoomKeepsPointUnderCursor(t *testing.T) {
	cursors := [][2]float32{{900, 200}, {10, 700}, {640, 360}, {1270, 5}}
	for _, c := range cursors {
		m, d := newStationary(t)
		before := m.Camera().CursorDirection(c[0], c[1])

		d.Wheel(input.WheelEvent{X: c[0], Y: c[1], DeltaY: -200})
		require.InDelta(t, 50, m.Camera().FOV, 1e-4)

		after := m.Camera().CursorDirection(c[0], c[1])
		assertVecNear(t, before, after, 1e-4)
	}
}

func TestStationaryPinch(t *testing.T) {
	m, d := newStationary(t)
	d.PointerDown(input.PointerEvent{PointerID: 1, X: 100, Y: 100})
	d.PointerDown(input.PointerEvent{PointerID: 2, X: 200, Y: 100})

	// Within the jitter threshold.
	d.PointerMove(input.PointerEvent{PointerID: 2, X: 201, Y: 100, MovementX: 1})
	assert.Equal(t, float32(DefaultFOV), m.Camera().FOV)

	// Spreading zooms in; the ignored pixel still counts.
	d.PointerMove(input.PointerEvent{PointerID: 2, X: 260, Y: 100, MovementX: 59})
	assert.InDelta(t, DefaultFOV-60*DefaultPinchSensitivity, m.Camera().FOV, 1e-4)

	// Pinching in zooms back out.
	d.PointerMove(input.PointerEvent{PointerID: 2, X: 240, Y: 100, MovementX: -20})
	assert.InDelta(t, DefaultFOV-40*DefaultPinchSensitivity, m.Camera().FOV, 1e-4)
}

func TestStationarySetTargetLooksAt(t *testing.T) {
	m, _ := newStationary(t)
	pos := math.Vec3{X: 0, Y: 0, Z: 10}
	target := math.Vec3{X: 10, Y: 0, Z: 10}
	require.NoError(t, m.SetCameraState(StatePatch{Position: &pos, Target: &target}))

	assertVecNear(t, math.Vec3{X: 1}, m.Camera().Forward(), 1e-5)
	assertVecNear(t, math.Vec3{X: 1, Z: 10}, m.CameraState().Target, 1e-5)
}

func TestStationaryMoveTo(t *testing.T) {
	m, d := newStationary(t)
	d.Wheel(input.WheelEvent{X: 640, Y: 360, DeltaY: -300})
	require.Less(t, m.Camera().FOV, float32(DefaultFOV))

	dest := math.Vec3{X: 4, Y: 5, Z: 6}
	done := m.MoveTo(dest, 200*time.Millisecond)
	m.Update(100*time.Millisecond, math.EmptyBox3())
	assert.False(t, isClosed(done))
	m.Update(100*time.Millisecond, math.EmptyBox3())
	require.True(t, isClosed(done))

	assertVecNear(t, dest, m.CameraState().Position, 1e-5)
	assert.InDelta(t, DefaultFOV, m.Camera().FOV, 1e-4)
}

func TestStationaryDragCancelsAnimation(t *testing.T) {
	m, d := newStationary(t)
	done := m.MoveTo(math.Vec3{X: 100}, time.Second)

	d.PointerDown(input.PointerEvent{PointerID: 1, Button: input.ButtonPrimary})
	d.PointerMove(input.PointerEvent{PointerID: 1, MovementX: 10})
	m.Update(2*time.Second, math.EmptyBox3())

	assert.False(t, isClosed(done))
	assert.Equal(t, math.Vec3{Z: 10}, m.CameraState().Position)
}
