package camera

import (
	gomath "math"

	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// clipPlanes fits near and far to the scene bounds. The near plane is pulled in
// until its corners stay outside the box; the far plane reaches the deepest box
// corner along the view direction.
func clipPlanes(cam Camera, bounds math.Box3) (near, far float32) {
	tanHalf := gomath.Tan(float64(degToRad(cam.FOV)) / 2)
	aspect := float64(cam.Aspect)
	cornerFactor := gomath.Sqrt(1 + tanHalf*tanHalf*(aspect*aspect+1))

	near = bounds.DistanceToPoint(cam.Position) / float32(cornerFactor)
	near = max(near, MinNear)

	forward := cam.Forward()
	far = float32(-gomath.MaxFloat32)
	for _, corner := range bounds.Corners() {
		far = max(far, corner.Sub(cam.Position).Dot(forward))
	}
	// Keep the deepest corner strictly inside the far plane.
	far *= 1.001
	far = max(far, 2*near)
	return near, far
}

// fitDistance returns how far from the bounding sphere centre the camera must
// sit to keep the whole sphere in view.
func fitDistance(cam Camera, box math.Box3, radiusFactor float32) (center math.Vec3, distance float32) {
	if radiusFactor <= 0 {
		radiusFactor = DefaultFitRadiusFactor
	}
	if box.IsEmpty() {
		return math.Vec3{}, DefaultFitDistance
	}
	center, radius := box.BoundingSphere()
	if radius <= 0 {
		return center, DefaultFitDistance
	}

	halfV := float64(degToRad(cam.FOV)) / 2
	halfH := gomath.Atan(gomath.Tan(halfV) * float64(cam.Aspect))
	half := gomath.Min(halfV, halfH)

	distance = max(radiusFactor*radius, radius/float32(gomath.Sin(half)))
	if box.Volume() == 0 {
		distance = max(distance, DefaultFitDistance)
	}
	return center, distance
}

// fitPosition places the camera along its current view direction so that box is framed.
func fitPosition(cam Camera, box math.Box3, radiusFactor float32) (position, target math.Vec3) {
	center, distance := fitDistance(cam, box, radiusFactor)
	return center.Sub(cam.Forward().Scale(distance)), center
}
