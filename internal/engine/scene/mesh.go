package scene

import "github.com/Faultbox/reveal-viewer/pkg/math"

// Mesh is an indexed triangle list in object space. Meshes are shared between
// nodes and must not be modified after NewMesh.
type Mesh struct {
	Positions []math.Vec3
	Indices   []uint32
	bounds    math.Box3
}

// NewMesh builds a mesh and caches its bounds.
func NewMesh(positions []math.Vec3, indices []uint32) *Mesh {
	b := math.EmptyBox3()
	for _, p := range positions {
		b = b.ExpandByPoint(p)
	}
	return &Mesh{Positions: positions, Indices: indices, bounds: b}
}

// Bounds returns the object-space bounding box.
func (m *Mesh) Bounds() math.Box3 {
	return m.bounds
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Quad returns a unit square in the XY plane centred at the origin.
func Quad() *Mesh {
	return NewMesh([]math.Vec3{
		{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5},
	}, []uint32{0, 1, 2, 0, 2, 3})
}
