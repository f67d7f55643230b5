// Package software is a CPU implementation of render.Device. It backs headless
// rendering, screenshots and pipeline tests.
package software

import (
	"errors"
	"fmt"
	"image"
	gomath "math"

	"golang.org/x/image/draw"

	"github.com/Faultbox/reveal-viewer/internal/engine/render"
	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

var (
	// ErrForeignTarget is returned for targets created by another device.
	ErrForeignTarget = errors.New("software: target not created by this device")
	// ErrTargetSize is returned for non-positive or oversized targets.
	ErrTargetSize = errors.New("software: invalid target size")
	// ErrDestroyedTarget is returned when drawing to a destroyed target.
	ErrDestroyedTarget = errors.New("software: target destroyed")
)

// DefaultMaxPixels caps a single target at roughly 8K x 8K.
const DefaultMaxPixels = 8192 * 8192

// Device rasterizes triangles on the CPU.
type Device struct {
	MaxPixels int
	live      int
}

var _ render.Device = (*Device)(nil)

// New creates a device with the default size limit.
func New() *Device {
	return &Device{MaxPixels: DefaultMaxPixels}
}

// Live returns the number of targets that have not been destroyed.
func (d *Device) Live() int {
	return d.live
}

func (d *Device) checkSize(width, height int) error {
	if width <= 0 || height <= 0 || (d.MaxPixels > 0 && width*height > d.MaxPixels) {
		return fmt.Errorf("%w: %dx%d", ErrTargetSize, width, height)
	}
	return nil
}

// NewTarget allocates a target.
func (d *Device) NewTarget(width, height, samples int) (render.Target, error) {
	if err := d.checkSize(width, height); err != nil {
		return nil, err
	}
	d.live++
	return newTarget(d, width, height, max(samples, 1)), nil
}

func (d *Device) target(t render.Target) (*Target, error) {
	st, ok := t.(*Target)
	if !ok || st.dev != d {
		return nil, ErrForeignTarget
	}
	if st.Destroyed() {
		return nil, ErrDestroyedTarget
	}
	return st, nil
}

// Clear fills the color buffer and resets depth to 1.
func (d *Device) Clear(t render.Target, c [4]float32) error {
	st, err := d.target(t)
	if err != nil {
		return err
	}
	for i := 0; i < len(st.depth); i++ {
		copy(st.color[i*4:i*4+4], c[:])
		st.depth[i] = 1
	}
	return nil
}

type screenVertex struct {
	x, y, z float32
	ok      bool
}

// DrawNodes rasterizes every triangle of every node. Triangles with a vertex
// behind the camera are skipped.
func (d *Device) DrawNodes(t render.Target, nodes []*scene.Node, view, projection math.Mat4) error {
	st, err := d.target(t)
	if err != nil {
		return err
	}
	viewProj := projection.Mul(view)
	var verts []screenVertex
	for _, n := range nodes {
		if n.Mesh == nil {
			continue
		}
		mvp := viewProj.Mul(n.Transform)
		verts = verts[:0]
		for _, p := range n.Mesh.Positions {
			verts = append(verts, st.project(mvp, p))
		}
		idx := n.Mesh.Indices
		for i := 0; i+2 < len(idx); i += 3 {
			a, b, c := int(idx[i]), int(idx[i+1]), int(idx[i+2])
			if a >= len(verts) || b >= len(verts) || c >= len(verts) {
				return fmt.Errorf("node %d: index out of range", n.ID)
			}
			if !verts[a].ok || !verts[b].ok || !verts[c].ok {
				continue
			}
			st.triangle(verts[a], verts[b], verts[c], n.Color)
		}
	}
	return nil
}

func (t *Target) project(mvp math.Mat4, p math.Vec3) screenVertex {
	clip := mvp.MulVec4(math.Vec4{p.X, p.Y, p.Z, 1})
	if clip[3] <= 0 {
		return screenVertex{}
	}
	nx, ny, nz := clip[0]/clip[3], clip[1]/clip[3], clip[2]/clip[3]
	return screenVertex{
		x:  (nx + 1) / 2 * float32(t.width),
		y:  (1 - ny) / 2 * float32(t.height),
		z:  (nz + 1) / 2,
		ok: true,
	}
}

func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// triangle fills pixels whose centres lie inside abc, with a less-than depth test.
func (t *Target) triangle(a, b, c screenVertex, col [4]float32) {
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return
	}
	minX := max(0, int(gomath.Floor(float64(min(a.x, b.x, c.x)))))
	maxX := min(t.width-1, int(gomath.Ceil(float64(max(a.x, b.x, c.x)))))
	minY := max(0, int(gomath.Floor(float64(min(a.y, b.y, c.y)))))
	maxY := min(t.height-1, int(gomath.Ceil(float64(max(a.y, b.y, c.y)))))

	sign := float32(1)
	if area < 0 {
		sign, area = -1, -area
	}
	rgb := [3]float32{col[0], col[1], col[2]}
	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			sx, sy := float32(px)+0.5, float32(py)+0.5
			w0 := sign * edge(b, c, sx, sy)
			w1 := sign * edge(c, a, sx, sy)
			w2 := sign * edge(a, b, sx, sy)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := (w0*a.z + w1*b.z + w2*c.z) / area
			if z < 0 || z > 1 {
				continue
			}
			i := py*t.width + px
			if z >= t.depth[i] {
				continue
			}
			t.depth[i] = z
			t.over(i, rgb, col[3])
		}
	}
}

// Blit composes src onto dst pixel by pixel. Uncovered source pixels are skipped.
func (d *Device) Blit(dstTarget, srcTarget render.Target, s render.BlitState) error {
	dst, err := d.target(dstTarget)
	if err != nil {
		return err
	}
	src, err := d.target(srcTarget)
	if err != nil {
		return err
	}
	if dst.width != src.width || dst.height != src.height {
		return fmt.Errorf("software: blit size mismatch %dx%d -> %dx%d", src.width, src.height, dst.width, dst.height)
	}
	ssao := fitGray(s.SSAO, dst.width, dst.height)
	edges := fitGray(s.Edges, dst.width, dst.height)

	for y := 0; y < dst.height; y++ {
		for x := 0; x < dst.width; x++ {
			i := y*dst.width + x
			sc := src.At(x, y)
			if sc[3] <= 0 {
				continue
			}
			depth := src.depth[i]
			if s.PinDepth {
				depth = 0
			}
			if s.DepthTest && depth >= dst.depth[i] {
				continue
			}

			rgb := [3]float32{sc[0], sc[1], sc[2]}
			a := sc[3] * s.Alpha
			if ssao != nil {
				ao := float32(ssao.GrayAt(x, y).Y) / 255
				for k := range rgb {
					rgb[k] *= ao
				}
			}
			if edges != nil {
				e := float32(edges.GrayAt(x, y).Y) / 255
				for k := range rgb {
					rgb[k] += (s.EdgeColor[k] - rgb[k]) * e
				}
			}
			if s.Outline && src.silhouette(x, y) {
				rgb = [3]float32{s.OutlineColor[0], s.OutlineColor[1], s.OutlineColor[2]}
				a = s.OutlineColor[3]
			}

			dst.over(i, rgb, a)
			if s.DepthWrite {
				dst.depth[i] = depth
			}
		}
	}
	return nil
}

// fitGray returns img rebased to the origin and bilinearly resampled to width x height.
func fitGray(img *image.Gray, width, height int) *image.Gray {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Min == (image.Point{}) && b.Dx() == width && b.Dy() == height {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}
