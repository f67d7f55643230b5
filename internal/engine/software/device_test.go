package software

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/reveal-viewer/internal/engine/render"
	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

var (
	red  = [4]float32{1, 0, 0, 1}
	blue = [4]float32{0, 0, 1, 1}
)

func newTestTarget(t *testing.T, d *Device, w, h int) *Target {
	t.Helper()
	rt, err := d.NewTarget(w, h, 1)
	require.NoError(t, err)
	return rt.(*Target)
}

// testMatrices looks down -Z from z=5.
func testMatrices() (view, proj math.Mat4) {
	view = math.LookAt(math.Vec3{Z: 5}, math.Vec3{}, math.UnitY)
	proj = math.Perspective(60*3.14159265/180, 1, 0.1, 100)
	return view, proj
}

func quadNode(id int64, z, size float32, col [4]float32) *scene.Node {
	return &scene.Node{
		ID:        id,
		Mesh:      scene.Quad(),
		Transform: math.Translate(0, 0, z).Mul(math.Scale(size, size, 1)),
		Color:     col,
		Layers:    scene.Mask(scene.LayerBack),
	}
}

func TestClearAndImage(t *testing.T) {
	d := New()
	rt := newTestTarget(t, d, 4, 3)
	require.NoError(t, d.Clear(rt, red))

	img := rt.Image()
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(3, 2))
	assert.Equal(t, float32(1), rt.DepthAt(0, 0))
}

func TestDrawNodesCoversCentre(t *testing.T) {
	d := New()
	rt := newTestTarget(t, d, 64, 64)
	require.NoError(t, d.Clear(rt, [4]float32{}))

	view, proj := testMatrices()
	require.NoError(t, d.DrawNodes(rt, []*scene.Node{quadNode(1, 0, 2, red)}, view, proj))

	assert.Equal(t, red, rt.At(32, 32))
	assert.Less(t, rt.DepthAt(32, 32), float32(1))
	assert.Equal(t, [4]float32{}, rt.At(0, 0))
	assert.Equal(t, float32(1), rt.DepthAt(0, 0))
}

func TestDrawNodesDepthTest(t *testing.T) {
	d := New()
	rt := newTestTarget(t, d, 32, 32)
	require.NoError(t, d.Clear(rt, [4]float32{}))

	view, proj := testMatrices()
	near := quadNode(1, 1, 2, blue)
	far := quadNode(2, 0, 2, red)
	require.NoError(t, d.DrawNodes(rt, []*scene.Node{near, far}, view, proj))
	assert.Equal(t, blue, rt.At(16, 16))
}

func TestDrawNodesSkipsGeometryBehindCamera(t *testing.T) {
	d := New()
	rt := newTestTarget(t, d, 32, 32)
	require.NoError(t, d.Clear(rt, [4]float32{}))

	view, proj := testMatrices()
	require.NoError(t, d.DrawNodes(rt, []*scene.Node{quadNode(1, 10, 2, red)}, view, proj))
	assert.Equal(t, [4]float32{}, rt.At(16, 16))
}

func TestDrawNodesBadIndex(t *testing.T) {
	d := New()
	rt := newTestTarget(t, d, 8, 8)
	view, proj := testMatrices()

	bad := &scene.Node{ID: 7, Mesh: scene.NewMesh([]math.Vec3{{}, {X: 1}}, []uint32{0, 1, 2}), Transform: math.Identity()}
	assert.Error(t, d.DrawNodes(rt, []*scene.Node{bad}, view, proj))
}

func TestBlitAlphaOver(t *testing.T) {
	d := New()
	dst := newTestTarget(t, d, 4, 4)
	src := newTestTarget(t, d, 4, 4)
	require.NoError(t, d.Clear(dst, [4]float32{0, 0, 0, 1}))
	require.NoError(t, d.Clear(src, red))

	require.NoError(t, d.Blit(dst, src, render.BlitState{Alpha: 0.5}))
	got := dst.At(1, 1)
	assert.InDelta(t, 0.5, got[0], 1e-6)
	assert.InDelta(t, 1, got[3], 1e-6)
}

func TestBlitDepth(t *testing.T) {
	d := New()
	dst := newTestTarget(t, d, 4, 4)
	src := newTestTarget(t, d, 4, 4)
	require.NoError(t, d.Clear(dst, [4]float32{0, 0, 0, 1}))
	require.NoError(t, d.Clear(src, red))

	// Cleared source depth is the far plane: a depth-tested blit is rejected.
	require.NoError(t, d.Blit(dst, src, render.BlitState{Alpha: 1, DepthTest: true}))
	assert.Equal(t, [4]float32{0, 0, 0, 1}, dst.At(0, 0))

	// Pinned depth passes and is written.
	require.NoError(t, d.Blit(dst, src, render.BlitState{Alpha: 1, DepthTest: true, DepthWrite: true, PinDepth: true}))
	assert.Equal(t, red, dst.At(0, 0))
	assert.Equal(t, float32(0), dst.DepthAt(0, 0))
}

func TestBlitSkipsUncovered(t *testing.T) {
	d := New()
	dst := newTestTarget(t, d, 4, 4)
	src := newTestTarget(t, d, 4, 4)
	require.NoError(t, d.Clear(dst, blue))
	require.NoError(t, d.Clear(src, [4]float32{}))

	require.NoError(t, d.Blit(dst, src, render.BlitState{Alpha: 1, DepthWrite: true, PinDepth: true}))
	assert.Equal(t, blue, dst.At(2, 2))
	assert.Equal(t, float32(1), dst.DepthAt(2, 2))
}

func TestBlitSSAOResampled(t *testing.T) {
	d := New()
	dst := newTestTarget(t, d, 8, 8)
	src := newTestTarget(t, d, 8, 8)
	require.NoError(t, d.Clear(dst, [4]float32{0, 0, 0, 1}))
	require.NoError(t, d.Clear(src, [4]float32{1, 1, 1, 1}))

	ao := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range ao.Pix {
		ao.Pix[i] = 128
	}
	require.NoError(t, d.Blit(dst, src, render.BlitState{Alpha: 1, SSAO: ao}))
	got := dst.At(5, 3)
	assert.InDelta(t, 128.0/255, got[0], 0.01)
	assert.InDelta(t, 128.0/255, got[2], 0.01)
}

func TestBlitEdges(t *testing.T) {
	d := New()
	dst := newTestTarget(t, d, 4, 4)
	src := newTestTarget(t, d, 4, 4)
	require.NoError(t, d.Clear(dst, [4]float32{0, 0, 0, 1}))
	require.NoError(t, d.Clear(src, [4]float32{1, 1, 1, 1}))

	edges := image.NewGray(image.Rect(0, 0, 4, 4))
	edges.SetGray(1, 1, color.Gray{Y: 255})
	require.NoError(t, d.Blit(dst, src, render.BlitState{Alpha: 1, Edges: edges, EdgeColor: [4]float32{0, 0, 0, 1}}))

	assert.Equal(t, [4]float32{0, 0, 0, 1}, dst.At(1, 1))
	assert.Equal(t, [4]float32{1, 1, 1, 1}, dst.At(2, 2))
}

func TestBlitOutline(t *testing.T) {
	d := New()
	dst := newTestTarget(t, d, 64, 64)
	src := newTestTarget(t, d, 64, 64)
	require.NoError(t, d.Clear(dst, [4]float32{0, 0, 0, 1}))
	require.NoError(t, d.Clear(src, [4]float32{}))

	view, proj := testMatrices()
	require.NoError(t, d.DrawNodes(src, []*scene.Node{quadNode(1, 0, 2, red)}, view, proj))

	white := [4]float32{1, 1, 1, 1}
	require.NoError(t, d.Blit(dst, src, render.BlitState{Alpha: 1, Outline: true, OutlineColor: white}))
	assert.Equal(t, red, dst.At(32, 32))

	// Walk left from the centre to the first silhouette pixel.
	x := 32
	for x > 0 && src.covered(x-1, 32) {
		x--
	}
	require.Greater(t, x, 0)
	assert.Equal(t, white, dst.At(x, 32))
	assert.Equal(t, [4]float32{0, 0, 0, 1}, dst.At(x-1, 32))
}

func TestTargetLifecycle(t *testing.T) {
	d := New()
	a := newTestTarget(t, d, 4, 4)
	b := newTestTarget(t, d, 4, 4)
	assert.Equal(t, 2, d.Live())

	require.NoError(t, a.Resize(8, 2))
	w, h := a.Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 2, h)

	a.Destroy()
	a.Destroy()
	assert.Equal(t, 1, d.Live())
	assert.True(t, a.Destroyed())
	assert.ErrorIs(t, a.Resize(4, 4), ErrDestroyedTarget)
	assert.ErrorIs(t, d.Clear(a, red), ErrDestroyedTarget)

	_, err := d.NewTarget(0, 10, 1)
	assert.ErrorIs(t, err, ErrTargetSize)
	assert.ErrorIs(t, b.Resize(-1, 4), ErrTargetSize)

	other := New()
	foreign := newTestTarget(t, other, 4, 4)
	assert.ErrorIs(t, d.Clear(foreign, red), ErrForeignTarget)
	assert.ErrorIs(t, d.Blit(b, foreign, render.BlitState{}), ErrForeignTarget)
}

func TestBlitSizeMismatch(t *testing.T) {
	d := New()
	assert.Error(t, d.Blit(newTestTarget(t, d, 4, 4), newTestTarget(t, d, 2, 2), render.BlitState{Alpha: 1}))
}
