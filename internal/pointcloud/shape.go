// Package pointcloud turns annotation region geometry into shapes that the
// viewer uses to style parts of a point cloud.
package pointcloud

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// minDeterminant is the smallest |det| accepted for a box transform.
const minDeterminant = 1e-12

// Bounds is an axis-aligned box in world space.
type Bounds struct {
	Min, Max mgl64.Vec3
}

// emptyBounds returns bounds that any point expands.
func emptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

func (b Bounds) expand(p mgl64.Vec3) Bounds {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the bounds enclosing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return b.expand(o.Min).expand(o.Max)
}

// Shape is a primitive volume. The set of implementations is closed: Box and
// Cylinder.
type Shape interface {
	// Contains reports whether p lies inside or on the surface.
	Contains(p mgl64.Vec3) bool
	// BoundingBox returns the world-space axis-aligned bounds.
	BoundingBox() Bounds

	isShape()
}

// Box is the unit cube [-0.5, 0.5]³ mapped into world space by Transform.
// Transform combines centre, orientation and non-uniform half-extents, so a
// box is not axis aligned in general.
type Box struct {
	Transform mgl64.Mat4
}

// NewBox validates that transform is invertible.
func NewBox(transform mgl64.Mat4) (Box, error) {
	if math.Abs(transform.Det()) <= minDeterminant {
		return Box{}, ErrSingularMatrix
	}
	return Box{Transform: transform}, nil
}

// Contains reports whether p is inside the box.
func (b Box) Contains(p mgl64.Vec3) bool {
	local := mgl64.TransformCoordinate(p, b.Transform.Inv())
	const half = 0.5 + 1e-9
	return math.Abs(local[0]) <= half && math.Abs(local[1]) <= half && math.Abs(local[2]) <= half
}

// BoundingBox returns the bounds of the eight transformed corners.
func (b Box) BoundingBox() Bounds {
	out := emptyBounds()
	for _, x := range [2]float64{-0.5, 0.5} {
		for _, y := range [2]float64{-0.5, 0.5} {
			for _, z := range [2]float64{-0.5, 0.5} {
				out = out.expand(mgl64.TransformCoordinate(mgl64.Vec3{x, y, z}, b.Transform))
			}
		}
	}
	return out
}

func (Box) isShape() {}

// Cylinder is a capped cylinder whose axis runs from CenterA to CenterB.
type Cylinder struct {
	CenterA mgl64.Vec3
	CenterB mgl64.Vec3
	Radius  float64
}

// NewCylinder validates the radius and axis.
func NewCylinder(a, b mgl64.Vec3, radius float64) (Cylinder, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Cylinder{}, ErrNonPositiveRadius
	}
	if b.Sub(a).Len() == 0 {
		return Cylinder{}, ErrDegenerateAxis
	}
	return Cylinder{CenterA: a, CenterB: b, Radius: radius}, nil
}

// Contains reports whether p is inside the cylinder.
func (c Cylinder) Contains(p mgl64.Vec3) bool {
	axis := c.CenterB.Sub(c.CenterA)
	lenSq := axis.Dot(axis)
	rel := p.Sub(c.CenterA)
	t := rel.Dot(axis) / lenSq
	if t < 0 || t > 1 {
		return false
	}
	radial := rel.Sub(axis.Mul(t))
	return radial.Dot(radial) <= c.Radius*c.Radius*(1+1e-9)
}

// BoundingBox returns the exact bounds of both end caps.
func (c Cylinder) BoundingBox() Bounds {
	dir := c.CenterB.Sub(c.CenterA).Normalize()
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		ext[i] = c.Radius * math.Sqrt(math.Max(0, 1-dir[i]*dir[i]))
	}
	out := emptyBounds()
	for _, centre := range [2]mgl64.Vec3{c.CenterA, c.CenterB} {
		out = out.expand(centre.Sub(ext)).expand(centre.Add(ext))
	}
	return out
}

func (Cylinder) isShape() {}
