package math

import "math"

// Box3 is an axis-aligned bounding box. The zero value is not empty; use EmptyBox3.
type Box3 struct {
	Min Vec3
	Max Vec3
}

// EmptyBox3 returns a box that contains nothing and grows on ExpandByPoint.
func EmptyBox3() Box3 {
	inf := float32(math.Inf(1))
	return Box3{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewBox3 creates a box from two corners in any order.
func NewBox3(a, b Vec3) Box3 {
	return Box3{Min: a.Min(b), Max: a.Max(b)}
}

// IsEmpty reports whether the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// ExpandByPoint grows the box to include p.
func (b Box3) ExpandByPoint(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both boxes.
func (b Box3) Union(other Box3) Box3 {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	return Box3{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Center returns the box midpoint.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents.
func (b Box3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Volume returns the box volume, 0 for empty or flat boxes.
func (b Box3) Volume() float32 {
	if b.IsEmpty() {
		return 0
	}
	s := b.Size()
	return s.X * s.Y * s.Z
}

// BoundingSphere returns the center and radius of the sphere enclosing the box.
func (b Box3) BoundingSphere() (center Vec3, radius float32) {
	if b.IsEmpty() {
		return Vec3{}, 0
	}
	return b.Center(), b.Size().Length() * 0.5
}

// Corners returns the 8 box corners.
func (b Box3) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// ClampPoint returns the point inside the box closest to p.
func (b Box3) ClampPoint(p Vec3) Vec3 {
	return p.Max(b.Min).Min(b.Max)
}

// DistanceToPoint returns the distance from p to the box, 0 if p is inside.
func (b Box3) DistanceToPoint(p Vec3) float32 {
	return b.ClampPoint(p).Distance(p)
}

// ContainsPoint reports whether p lies inside or on the box.
func (b Box3) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Transform returns the axis-aligned box enclosing b transformed by m.
func (b Box3) Transform(m Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox3()
	for _, c := range b.Corners() {
		out = out.ExpandByPoint(m.TransformVec3(c))
	}
	return out
}
