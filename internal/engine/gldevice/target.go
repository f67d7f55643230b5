package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Target is a framebuffer with sampleable color and depth textures.
type Target struct {
	fbo          uint32
	colorTexture uint32
	depthTexture uint32
	width        int32
	height       int32
	samples      int
	dev          *Device
}

func newTarget(dev *Device, width, height, samples int) (*Target, error) {
	t := &Target{dev: dev, width: int32(width), height: int32(height), samples: samples}
	if err := t.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return t, nil
}

func (t *Target) create() error {
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)

	gl.GenTextures(1, &t.colorTexture)
	gl.GenTextures(1, &t.depthTexture)
	t.allocStorage()
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.colorTexture, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, t.depthTexture, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		t.Destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

func (t *Target) allocStorage() {
	gl.BindTexture(gl.TEXTURE_2D, t.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, t.width, t.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.BindTexture(gl.TEXTURE_2D, t.depthTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, t.width, t.height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// bind makes t the draw framebuffer and sets the viewport to cover it.
func (t *Target) bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, t.width, t.height)
}

// Size returns the target dimensions.
func (t *Target) Size() (width, height int) {
	return int(t.width), int(t.height)
}

// Samples returns the requested sample count. Targets are single-sampled so
// their textures can be read by the blit shader.
func (t *Target) Samples() int {
	return t.samples
}

// Resize reallocates both textures when the size changed.
func (t *Target) Resize(width, height int) error {
	if t.fbo == 0 {
		return ErrDestroyedTarget
	}
	if int32(width) == t.width && int32(height) == t.height {
		return nil
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrTargetSize, width, height)
	}
	t.width, t.height = int32(width), int32(height)
	t.allocStorage()
	return nil
}

// ReadPixels reads the color attachment as RGBA, flipped so row 0 is the top.
func (t *Target) ReadPixels() []byte {
	pixels := make([]byte, t.width*t.height*4)

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.ReadPixels(0, 0, t.width, t.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	stride := int(t.width) * 4
	row := make([]byte, stride)
	for y := 0; y < int(t.height)/2; y++ {
		top := pixels[y*stride : (y+1)*stride]
		bottom := pixels[(int(t.height)-1-y)*stride : (int(t.height)-y)*stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
	return pixels
}

// Destroy releases the GL objects. It is idempotent.
func (t *Target) Destroy() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.colorTexture != 0 {
		gl.DeleteTextures(1, &t.colorTexture)
		t.colorTexture = 0
	}
	if t.depthTexture != 0 {
		gl.DeleteTextures(1, &t.depthTexture)
		t.depthTexture = 0
	}
}
