package debug

import (
	gomath "math"

	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// GridColor is the default ground grid color.
var GridColor = [4]float32{0.5, 0.5, 0.5, 1}

// GroundGrid builds a grid of thin quads on the XZ plane under bounds, with
// lines every spacing units. The grid is snapped to multiples of spacing.
// It returns nil for an empty box or a non-positive spacing.
func GroundGrid(bounds math.Box3, spacing, lineWidth float32) *scene.Mesh {
	if bounds.IsEmpty() || spacing <= 0 {
		return nil
	}
	if lineWidth <= 0 {
		lineWidth = spacing / 50
	}

	minX := snapDown(bounds.Min.X, spacing)
	maxX := snapUp(bounds.Max.X, spacing)
	minZ := snapDown(bounds.Min.Z, spacing)
	maxZ := snapUp(bounds.Max.Z, spacing)
	y := bounds.Min.Y
	half := lineWidth / 2

	var positions []math.Vec3
	var indices []uint32
	addQuad := func(x0, z0, x1, z1 float32) {
		base := uint32(len(positions))
		positions = append(positions,
			math.Vec3{X: x0, Y: y, Z: z0},
			math.Vec3{X: x1, Y: y, Z: z0},
			math.Vec3{X: x1, Y: y, Z: z1},
			math.Vec3{X: x0, Y: y, Z: z1},
		)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	// Lines along Z
	for x := minX; x <= maxX+spacing/2; x += spacing {
		addQuad(x-half, minZ, x+half, maxZ)
	}
	// Lines along X
	for z := minZ; z <= maxZ+spacing/2; z += spacing {
		addQuad(minX, z-half, maxX, z+half)
	}

	return scene.NewMesh(positions, indices)
}

func snapDown(v, step float32) float32 {
	return float32(gomath.Floor(float64(v/step))) * step
}

func snapUp(v, step float32) float32 {
	return float32(gomath.Ceil(float64(v/step))) * step
}
