package software

import (
	"fmt"
	"image"
	"image/color"
)

// Target is a CPU render target with straight-alpha RGBA color and a [0, 1] depth buffer.
// Row 0 is the top of the image.
type Target struct {
	width   int
	height  int
	samples int
	color   []float32
	depth   []float32
	dev     *Device
}

func newTarget(dev *Device, width, height, samples int) *Target {
	t := &Target{dev: dev, samples: samples}
	t.alloc(width, height)
	return t
}

func (t *Target) alloc(width, height int) {
	t.width, t.height = width, height
	t.color = make([]float32, width*height*4)
	t.depth = make([]float32, width*height)
	for i := range t.depth {
		t.depth[i] = 1
	}
}

// Size returns the target dimensions.
func (t *Target) Size() (width, height int) {
	return t.width, t.height
}

// Samples returns the requested sample count. Rasterization always uses one sample per pixel.
func (t *Target) Samples() int {
	return t.samples
}

// Resize reallocates the buffers; contents are discarded.
func (t *Target) Resize(width, height int) error {
	if t.color == nil {
		return ErrDestroyedTarget
	}
	if width == t.width && height == t.height {
		return nil
	}
	if err := t.dev.checkSize(width, height); err != nil {
		return err
	}
	t.alloc(width, height)
	return nil
}

// Destroy releases the buffers. Further use of the target is an error.
func (t *Target) Destroy() {
	if t.color == nil {
		return
	}
	t.color = nil
	t.depth = nil
	t.dev.live--
}

// Destroyed reports whether Destroy has been called.
func (t *Target) Destroyed() bool {
	return t.color == nil
}

// At returns the color at pixel (x, y).
func (t *Target) At(x, y int) [4]float32 {
	i := (y*t.width + x) * 4
	return [4]float32{t.color[i], t.color[i+1], t.color[i+2], t.color[i+3]}
}

// DepthAt returns the depth at pixel (x, y).
func (t *Target) DepthAt(x, y int) float32 {
	return t.depth[y*t.width+x]
}

// Image converts the color buffer to 8-bit NRGBA.
func (t *Target) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			c := t.At(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3])})
		}
	}
	return img
}

func (t *Target) covered(x, y int) bool {
	return t.color[(y*t.width+x)*4+3] > 0
}

// silhouette reports whether a covered pixel has an uncovered 4-neighbour.
func (t *Target) silhouette(x, y int) bool {
	if !t.covered(x, y) {
		return false
	}
	return (x > 0 && !t.covered(x-1, y)) ||
		(x < t.width-1 && !t.covered(x+1, y)) ||
		(y > 0 && !t.covered(x, y-1)) ||
		(y < t.height-1 && !t.covered(x, y+1))
}

// over blends straight-alpha rgb/a over pixel i.
func (t *Target) over(i int, rgb [3]float32, a float32) {
	if a >= 1 {
		t.color[i*4+0], t.color[i*4+1], t.color[i*4+2], t.color[i*4+3] = rgb[0], rgb[1], rgb[2], 1
		return
	}
	if a <= 0 {
		return
	}
	dstA := t.color[i*4+3]
	outA := a + dstA*(1-a)
	for k := 0; k < 3; k++ {
		t.color[i*4+k] = (rgb[k]*a + t.color[i*4+k]*dstA*(1-a)) / outA
	}
	t.color[i*4+3] = outA
}

func to8(v float32) uint8 {
	v = max(0, min(1, v))
	return uint8(v*255 + 0.5)
}

func (t *Target) String() string {
	return fmt.Sprintf("software.Target(%dx%d)", t.width, t.height)
}
