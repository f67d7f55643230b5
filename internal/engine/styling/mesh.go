package styling

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/internal/pointcloud"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// DefaultCylinderSegments is the side count of tessellated cylinders.
const DefaultCylinderSegments = 16

// unitCube is [-0.5, 0.5]³, shared by every box node.
var unitCube = scene.NewMesh([]math.Vec3{
	{X: -0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: -0.5},
	{X: 0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5},
	{X: -0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: 0.5},
	{X: 0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5},
}, []uint32{
	0, 2, 1, 0, 3, 2, // -z
	4, 5, 6, 4, 6, 7, // +z
	0, 1, 5, 0, 5, 4, // -y
	3, 7, 6, 3, 6, 2, // +y
	0, 4, 7, 0, 7, 3, // -x
	1, 2, 6, 1, 6, 5, // +x
})

// shapeMesh is a shape ready to become a scene node.
type shapeMesh struct {
	mesh      *scene.Mesh
	transform math.Mat4
}

func meshFor(s pointcloud.Shape, segments int) shapeMesh {
	switch s := s.(type) {
	case pointcloud.Box:
		return shapeMesh{mesh: unitCube, transform: toMat4(s.Transform)}
	case pointcloud.Cylinder:
		return shapeMesh{mesh: cylinderMesh(s, segments), transform: math.Identity()}
	}
	panic("styling: unknown shape type")
}

// toMat4 narrows a float64 transform. Both are column-major.
func toMat4(m mgl64.Mat4) math.Mat4 {
	var out math.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

func toVec3(v mgl64.Vec3) math.Vec3 {
	return math.Vec3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

// cylinderMesh builds a closed prism in world space: two rings of segments
// vertices followed by the two cap centres.
func cylinderMesh(c pointcloud.Cylinder, segments int) *scene.Mesh {
	if segments < 3 {
		segments = 3
	}
	axis := c.CenterB.Sub(c.CenterA).Normalize()
	ref := mgl64.Vec3{1, 0, 0}
	if gomath.Abs(axis[0]) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	u := axis.Cross(ref).Normalize()
	v := axis.Cross(u)

	n := uint32(segments)
	positions := make([]math.Vec3, 0, 2*segments+2)
	for _, centre := range [2]mgl64.Vec3{c.CenterA, c.CenterB} {
		for i := 0; i < segments; i++ {
			a := 2 * gomath.Pi * float64(i) / float64(segments)
			off := u.Mul(gomath.Cos(a) * c.Radius).Add(v.Mul(gomath.Sin(a) * c.Radius))
			positions = append(positions, toVec3(centre.Add(off)))
		}
	}
	capA, capB := 2*n, 2*n+1
	positions = append(positions, toVec3(c.CenterA), toVec3(c.CenterB))

	indices := make([]uint32, 0, 12*segments)
	for i := uint32(0); i < n; i++ {
		j := (i + 1) % n
		indices = append(indices,
			i, j, n+j, i, n+j, n+i, // side
			capA, j, i, // cap at A
			capB, n+i, n+j, // cap at B
		)
	}
	return scene.NewMesh(positions, indices)
}
