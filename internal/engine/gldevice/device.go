// Package gldevice implements render.Device on OpenGL 4.1 core.
// All calls must happen on the thread that owns the GL context.
package gldevice

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/engine/render"
	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/internal/logger"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

var (
	ErrForeignTarget   = errors.New("gldevice: target not created by this device")
	ErrTargetSize      = errors.New("gldevice: invalid target size")
	ErrDestroyedTarget = errors.New("gldevice: target destroyed")
)

type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

// Device renders with OpenGL. New must be called after the context is current.
type Device struct {
	meshProgram uint32
	locMVP      int32
	locColor    int32

	blitProgram   uint32
	blitVAO       uint32
	locAlpha      int32
	locPinDepth   int32
	locHasSSAO    int32
	locHasEdges   int32
	locEdgeColor  int32
	locOutline    int32
	locOutlineCol int32

	ssaoTexture  uint32
	edgesTexture uint32

	meshes map[*scene.Mesh]*gpuMesh
	log    *zap.Logger
}

var _ render.Device = (*Device)(nil)

// New initializes GL function pointers and compiles the device programs.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	d := &Device{
		meshes: make(map[*scene.Mesh]*gpuMesh),
		log:    logger.Named("gldevice"),
	}
	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	var err error
	if d.meshProgram, err = compileProgram(meshVertexShader, meshFragmentShader); err != nil {
		return nil, fmt.Errorf("mesh program: %w", err)
	}
	d.locMVP = uniform(d.meshProgram, "uMVP")
	d.locColor = uniform(d.meshProgram, "uColor")

	if d.blitProgram, err = compileProgram(blitVertexShader, blitFragmentShader); err != nil {
		d.Destroy()
		return nil, fmt.Errorf("blit program: %w", err)
	}
	gl.UseProgram(d.blitProgram)
	gl.Uniform1i(uniform(d.blitProgram, "uColor"), 0)
	gl.Uniform1i(uniform(d.blitProgram, "uDepth"), 1)
	gl.Uniform1i(uniform(d.blitProgram, "uSSAO"), 2)
	gl.Uniform1i(uniform(d.blitProgram, "uEdges"), 3)
	d.locAlpha = uniform(d.blitProgram, "uAlpha")
	d.locPinDepth = uniform(d.blitProgram, "uPinDepth")
	d.locHasSSAO = uniform(d.blitProgram, "uHasSSAO")
	d.locHasEdges = uniform(d.blitProgram, "uHasEdges")
	d.locEdgeColor = uniform(d.blitProgram, "uEdgeColor")
	d.locOutline = uniform(d.blitProgram, "uOutline")
	d.locOutlineCol = uniform(d.blitProgram, "uOutlineColor")
	gl.UseProgram(0)

	gl.GenVertexArrays(1, &d.blitVAO)
	d.ssaoTexture = newMaskTexture()
	d.edgesTexture = newMaskTexture()
	return d, nil
}

func newMaskTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// NewTarget allocates a framebuffer with color and depth textures.
func (d *Device) NewTarget(width, height, samples int) (render.Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrTargetSize, width, height)
	}
	return newTarget(d, width, height, max(samples, 1))
}

func (d *Device) target(t render.Target) (*Target, error) {
	gt, ok := t.(*Target)
	if !ok || gt.dev != d {
		return nil, ErrForeignTarget
	}
	if gt.fbo == 0 {
		return nil, ErrDestroyedTarget
	}
	return gt, nil
}

// Clear clears color to c and depth to 1.
func (d *Device) Clear(t render.Target, c [4]float32) error {
	gt, err := d.target(t)
	if err != nil {
		return err
	}
	gt.bind()
	gl.DepthMask(true)
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// DrawNodes draws nodes with depth test and write on and straight-alpha blending.
func (d *Device) DrawNodes(t render.Target, nodes []*scene.Node, view, projection math.Mat4) error {
	gt, err := d.target(t)
	if err != nil {
		return err
	}
	gt.bind()
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.DepthMask(true)
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	gl.UseProgram(d.meshProgram)
	viewProj := projection.Mul(view)
	for _, n := range nodes {
		if n.Mesh == nil || len(n.Mesh.Indices) == 0 || len(n.Mesh.Positions) == 0 {
			continue
		}
		m := d.mesh(n.Mesh)
		mvp := viewProj.Mul(n.Transform)
		gl.UniformMatrix4fv(d.locMVP, 1, false, &mvp[0])
		gl.Uniform4f(d.locColor, n.Color[0], n.Color[1], n.Color[2], n.Color[3])
		gl.BindVertexArray(m.vao)
		gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
	}
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	gl.Disable(gl.BLEND)
	return nil
}

// mesh returns the uploaded buffers for m, uploading on first use.
func (d *Device) mesh(m *scene.Mesh) *gpuMesh {
	if g, ok := d.meshes[m]; ok {
		return g
	}
	g := &gpuMesh{indexCount: int32(len(m.Indices))}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	vertexSize := int(unsafe.Sizeof(math.Vec3{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Positions)*vertexSize, unsafe.Pointer(&m.Positions[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	d.meshes[m] = g
	d.log.Debug("uploaded mesh", zap.Int("triangles", m.TriangleCount()))
	return g
}

// ReleaseMesh frees the GPU copy of m.
func (d *Device) ReleaseMesh(m *scene.Mesh) {
	g, ok := d.meshes[m]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ebo)
	delete(d.meshes, m)
}

// Blit composes src onto dst with a full-screen pass.
func (d *Device) Blit(dstTarget, srcTarget render.Target, s render.BlitState) error {
	dst, err := d.target(dstTarget)
	if err != nil {
		return err
	}
	src, err := d.target(srcTarget)
	if err != nil {
		return err
	}
	dst.bind()
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	// Depth writes need the depth test enabled; ALWAYS stands in for "off".
	gl.Enable(gl.DEPTH_TEST)
	if s.DepthTest {
		gl.DepthFunc(gl.LESS)
	} else {
		gl.DepthFunc(gl.ALWAYS)
	}
	gl.DepthMask(s.DepthWrite)
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	gl.UseProgram(d.blitProgram)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, src.colorTexture)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, src.depthTexture)

	gl.Uniform1f(d.locAlpha, s.Alpha)
	gl.Uniform1i(d.locPinDepth, boolToInt(s.PinDepth))
	gl.Uniform1i(d.locHasSSAO, boolToInt(s.SSAO != nil))
	gl.Uniform1i(d.locHasEdges, boolToInt(s.Edges != nil))
	gl.Uniform4f(d.locEdgeColor, s.EdgeColor[0], s.EdgeColor[1], s.EdgeColor[2], s.EdgeColor[3])
	gl.Uniform1i(d.locOutline, boolToInt(s.Outline))
	gl.Uniform4f(d.locOutlineCol, s.OutlineColor[0], s.OutlineColor[1], s.OutlineColor[2], s.OutlineColor[3])
	if s.SSAO != nil {
		uploadMask(gl.TEXTURE2, d.ssaoTexture, s.SSAO)
	}
	if s.Edges != nil {
		uploadMask(gl.TEXTURE3, d.edgesTexture, s.Edges)
	}

	gl.BindVertexArray(d.blitVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.UseProgram(0)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	return nil
}

// uploadMask copies a single-channel image to tex. GL filtering handles size mismatch.
func uploadMask(unit, tex uint32, img *image.Gray) {
	b := img.Bounds()
	pix := img.Pix
	if img.Stride != b.Dx() || b.Min != (image.Point{}) {
		pix = make([]byte, b.Dx()*b.Dy())
		for y := 0; y < b.Dy(); y++ {
			row := img.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*b.Dx():(y+1)*b.Dx()], img.Pix[row:row+b.Dx()])
		}
	}
	gl.ActiveTexture(unit)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, int32(b.Dx()), int32(b.Dy()), 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
}

// Present copies t to the default framebuffer, scaled to width x height.
func (d *Device) Present(t render.Target, width, height int) error {
	gt, err := d.target(t)
	if err != nil {
		return err
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, gt.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, gt.width, gt.height, 0, 0, int32(width), int32(height), gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// Image reads t back as an 8-bit image.
func (d *Device) Image(t render.Target) (*image.NRGBA, error) {
	gt, err := d.target(t)
	if err != nil {
		return nil, err
	}
	w, h := gt.Size()
	return &image.NRGBA{Pix: gt.ReadPixels(), Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
}

// Destroy frees programs, textures and uploaded meshes.
func (d *Device) Destroy() {
	for m := range d.meshes {
		d.ReleaseMesh(m)
	}
	if d.meshProgram != 0 {
		gl.DeleteProgram(d.meshProgram)
		d.meshProgram = 0
	}
	if d.blitProgram != 0 {
		gl.DeleteProgram(d.blitProgram)
		d.blitProgram = 0
	}
	if d.blitVAO != 0 {
		gl.DeleteVertexArrays(1, &d.blitVAO)
		d.blitVAO = 0
	}
	for _, tex := range []*uint32{&d.ssaoTexture, &d.edgesTexture} {
		if *tex != 0 {
			gl.DeleteTextures(1, tex)
			*tex = 0
		}
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
