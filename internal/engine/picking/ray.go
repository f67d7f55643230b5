// Package picking provides screen-to-world rays and ray/box intersection.
package picking

import (
	gomath "math"

	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX, ndcY := ScreenToNDC(screenX, screenY, viewportW, viewportH)

	nearWorld := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1.0, 1.0})
	farWorld := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1.0, 1.0})

	return Ray{
		Origin:    nearWorld,
		Direction: farWorld.Sub(nearWorld).Normalize(),
	}
}

// ScreenToNDC maps pixel coordinates to normalized device coordinates (-1 to 1, Y up).
func ScreenToNDC(screenX, screenY, viewportW, viewportH float32) (float32, float32) {
	return 2.0*screenX/viewportW - 1.0, 1.0 - 2.0*screenY/viewportH
}

func unproject(inv math.Mat4, p math.Vec4) math.Vec3 {
	w := inv.MulVec4(p)
	if w[3] != 0 {
		return math.Vec3{X: w[0] / w[3], Y: w[1] / w[3], Z: w[2] / w[3]}
	}
	return math.Vec3{X: w[0], Y: w[1], Z: w[2]}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box using the slab method.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box math.Box3) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}

	// Return entry point, or exit point if starting inside
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Transform returns the ray mapped through m. The direction is renormalized, so
// distances along the result are in the target space, not the source space.
func (r Ray) Transform(m math.Mat4) Ray {
	return Ray{
		Origin:    m.TransformVec3(r.Origin),
		Direction: math.Vec3FromArray(m.TransformDirection(r.Direction.Array())).Normalize(),
	}
}

// IntersectTriangle returns the distance to the triangle abc, hitting either
// face (Möller–Trumbore).
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	const eps = 1e-7
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -eps && det < eps {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectMesh returns the nearest hit against an indexed triangle list whose
// positions are mapped to world space by transform.
func (r Ray) IntersectMesh(positions []math.Vec3, indices []uint32, transform math.Mat4) (t float32, hit bool) {
	best := float32(gomath.MaxFloat32)
	for i := 0; i+2 < len(indices); i += 3 {
		a := transform.TransformVec3(positions[indices[i]])
		b := transform.TransformVec3(positions[indices[i+1]])
		c := transform.TransformVec3(positions[indices[i+2]])
		if d, ok := r.IntersectTriangle(a, b, c); ok && d < best {
			best, hit = d, true
		}
	}
	if !hit {
		return 0, false
	}
	return best, true
}
