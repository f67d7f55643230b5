package render

import (
	"image"

	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// Target is an offscreen color + depth buffer pair owned by the pipeline.
type Target interface {
	Size() (width, height int)
	Samples() int
	Resize(width, height int) error
	Destroy()
}

// BlitState configures one full-screen composition pass of a source target
// onto the destination.
type BlitState struct {
	// Alpha scales the source coverage before blending over the destination.
	Alpha float32

	DepthTest  bool
	DepthWrite bool
	// PinDepth writes the near plane instead of the source depth.
	PinDepth bool

	// SSAO multiplies the source color when set.
	SSAO *image.Gray
	// Edges blends the source color toward EdgeColor by the edge strength when set.
	Edges     *image.Gray
	EdgeColor [4]float32

	// Outline paints the inner silhouette of the source coverage with OutlineColor,
	// ignoring Alpha.
	Outline      bool
	OutlineColor [4]float32
}

// Device is a rendering backend. Targets passed to a device must have been
// created by the same device.
type Device interface {
	NewTarget(width, height, samples int) (Target, error)
	// Clear sets every pixel of t to color and resets depth to the far plane.
	Clear(t Target, color [4]float32) error
	// DrawNodes rasterizes nodes into t with depth test and depth write on,
	// blending each node's color by its alpha.
	DrawNodes(t Target, nodes []*scene.Node, view, projection math.Mat4) error
	// Blit composes src onto dst.
	Blit(dst, src Target, state BlitState) error
}

// MeshReleaser is implemented by devices that keep a per-mesh copy of the
// geometry, such as GPU buffers. Callers release meshes they will not draw
// again.
type MeshReleaser interface {
	ReleaseMesh(m *scene.Mesh)
}
