// Package camera provides the viewer's camera managers: a target-driven orbit
// manager and a rotation-driven stationary (free-look) manager, sharing one
// event, animation and clip-plane core.
package camera

import (
	gomath "math"

	"github.com/Faultbox/reveal-viewer/internal/engine/picking"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// Camera is a read-only snapshot of the projection and view parameters.
// Managers hand out copies; the only way to change the camera is through a Manager.
type Camera struct {
	Position math.Vec3
	Rotation math.Quat

	FOV    float32 // vertical field of view, degrees
	Aspect float32 // width / height
	Near   float32
	Far    float32

	ViewportWidth  int
	ViewportHeight int
}

// Forward returns the viewing direction (camera -Z) in world space.
func (c Camera) Forward() math.Vec3 {
	return c.Rotation.Rotate(math.Vec3{Z: -1})
}

// Up returns the camera's up vector in world space.
func (c Camera) Up() math.Vec3 {
	return c.Rotation.Rotate(math.UnitY)
}

// Right returns the camera's right vector in world space.
func (c Camera) Right() math.Vec3 {
	return c.Rotation.Rotate(math.UnitX)
}

// ViewMatrix returns the world-to-camera transform.
func (c Camera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Position.Add(c.Forward()), c.Up())
}

// ProjectionMatrix returns the perspective projection.
func (c Camera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(degToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjectionMatrix returns projection * view.
func (c Camera) ViewProjectionMatrix() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// CursorDirection returns the world-space direction of the ray through viewport pixel (x, y).
// It is computed from the rotation and field of view directly, not by matrix inversion,
// so it stays exact at extreme near/far ratios.
func (c Camera) CursorDirection(x, y float32) math.Vec3 {
	ndcX, ndcY := picking.ScreenToNDC(x, y, float32(c.ViewportWidth), float32(c.ViewportHeight))
	tanHalf := float32(gomath.Tan(float64(degToRad(c.FOV)) / 2))
	local := math.Vec3{X: ndcX * tanHalf * c.Aspect, Y: ndcY * tanHalf, Z: -1}.Normalize()
	return c.Rotation.Rotate(local)
}

// CursorRay returns the world-space ray through viewport pixel (x, y), starting on the near plane.
func (c Camera) CursorRay(x, y float32) picking.Ray {
	return picking.ScreenToRay(x, y, float32(c.ViewportWidth), float32(c.ViewportHeight), c.ViewProjectionMatrix().Inverse())
}

// InFrustum reports whether p lies inside the view frustum, allowing a relative
// tolerance on each clip-space bound.
func (c Camera) InFrustum(p math.Vec3, tolerance float32) bool {
	clip := c.ViewProjectionMatrix().MulVec4(math.Vec4{p.X, p.Y, p.Z, 1})
	w := clip[3]
	if w <= 0 {
		return false
	}
	limit := w * (1 + tolerance)
	for i := 0; i < 3; i++ {
		if clip[i] < -limit || clip[i] > limit {
			return false
		}
	}
	return true
}

func degToRad(deg float32) float32 {
	return deg * gomath.Pi / 180
}

func radToDeg(rad float32) float32 {
	return rad * 180 / gomath.Pi
}
