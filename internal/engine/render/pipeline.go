// Package render composites the viewer's layered scene into a single frame.
//
// Each geometry layer is drawn into its own target and the targets are blended
// into the output in a fixed order:
//
//	in-front early-Z, back (+SSAO, edges), ghost, in-front (alpha + outline), custom
//
// Custom objects are drawn last straight into the output with their render
// order offset by CustomRenderOrderOffset.
package render

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/engine/camera"
	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/internal/logger"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

var (
	// ErrZeroSizeTarget is returned when a frame is requested with a zero or negative size.
	ErrZeroSizeTarget = errors.New("render: zero-size render target")
	// ErrDisposed is returned by Render after Dispose.
	ErrDisposed = errors.New("render: pipeline disposed")
)

// CustomRenderOrderOffset is added to custom objects' render order so they
// sort after every fixed layer.
const CustomRenderOrderOffset = 1000

// Options controls composition.
type Options struct {
	SampleCount  int
	GhostAlpha   float32
	InFrontAlpha float32
	ClearColor   [4]float32
	Outline      bool
	OutlineColor [4]float32
	EdgeColor    [4]float32
}

// DefaultOptions returns the standard composition settings.
func DefaultOptions() Options {
	return Options{
		SampleCount:  1,
		GhostAlpha:   0.3,
		InFrontAlpha: 0.5,
		ClearColor:   [4]float32{0, 0, 0, 1},
		Outline:      true,
		OutlineColor: [4]float32{1, 1, 1, 1},
		EdgeColor:    [4]float32{0, 0, 0, 1},
	}
}

// Frame is the input of one Render call.
type Frame struct {
	Scene  *scene.Scene
	Camera camera.Camera
	Width  int
	Height int

	// Custom is borrowed for the duration of the call and handed back in Result.
	// The nodes are never modified.
	Custom []*scene.Node

	// Optional screen-space buffers, resampled when their size differs.
	SSAO  *image.Gray
	Edges *image.Gray
}

// Result is the output of one Render call.
type Result struct {
	// Target holds the composed frame. It belongs to the pipeline and stays
	// valid until the next Render or Dispose.
	Target Target
	// Custom is the borrow list from the frame, unchanged.
	Custom []*scene.Node
	// SceneBounds covers the scene and the custom objects, for camera clip planes.
	SceneBounds math.Box3
	// Drawn counts nodes drawn per layer, custom included.
	Drawn map[scene.Layer]int
}

// Pipeline owns one target per geometry layer plus the output target.
// It is not safe for concurrent use.
type Pipeline struct {
	dev      Device
	opts     Options
	layers   map[scene.Layer]Target
	post     Target
	width    int
	height   int
	disposed bool

	log *zap.Logger
}

// New creates a pipeline. Targets are allocated on first use.
func New(dev Device, opts Options) *Pipeline {
	if opts.SampleCount < 1 {
		opts.SampleCount = 1
	}
	return &Pipeline{
		dev:    dev,
		opts:   opts,
		layers: make(map[scene.Layer]Target),
		log:    logger.Named("render"),
	}
}

// Options returns the composition settings.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Render draws and composites one frame. On error no output is produced.
func (p *Pipeline) Render(f Frame) (Result, error) {
	if p.disposed {
		return Result{}, ErrDisposed
	}
	if f.Width <= 0 || f.Height <= 0 {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrZeroSizeTarget, f.Width, f.Height)
	}

	byLayer := make(map[scene.Layer][]*scene.Node, len(scene.Layers))
	if f.Scene != nil {
		for _, l := range scene.Layers {
			if nodes := f.Scene.LayerNodes(l); len(nodes) > 0 {
				byLayer[l] = nodes
			}
		}
	}

	// Allocate everything up front so a failure cannot leave a partial frame.
	if err := p.prepare(f.Width, f.Height, byLayer); err != nil {
		return Result{}, err
	}

	view := f.Camera.ViewMatrix()
	proj := f.Camera.ProjectionMatrix()
	drawn := make(map[scene.Layer]int)

	for l, nodes := range byLayer {
		t := p.layers[l]
		if err := p.dev.Clear(t, [4]float32{}); err != nil {
			return Result{}, fmt.Errorf("clearing %s target: %w", l, err)
		}
		if err := p.dev.DrawNodes(t, nodes, view, proj); err != nil {
			return Result{}, fmt.Errorf("drawing %s layer: %w", l, err)
		}
		drawn[l] = len(nodes)
	}

	if err := p.dev.Clear(p.post, p.opts.ClearColor); err != nil {
		return Result{}, fmt.Errorf("clearing output target: %w", err)
	}
	for _, pass := range p.passes(f, byLayer) {
		if err := p.dev.Blit(p.post, pass.src, pass.state); err != nil {
			return Result{}, fmt.Errorf("%s pass: %w", pass.name, err)
		}
	}

	custom := offsetRenderOrder(f.Custom)
	if len(custom) > 0 {
		if err := p.dev.DrawNodes(p.post, custom, view, proj); err != nil {
			return Result{}, fmt.Errorf("drawing custom objects: %w", err)
		}
		drawn[scene.LayerCustom] = len(custom)
	}

	bounds := scene.BoundsOf(f.Custom)
	if f.Scene != nil {
		bounds = bounds.Union(f.Scene.Bounds())
	}

	return Result{
		Target:      p.post,
		Custom:      f.Custom,
		SceneBounds: bounds,
		Drawn:       drawn,
	}, nil
}

type pass struct {
	name  string
	src   Target
	state BlitState
}

// passes lists the composition steps for the layers present in this frame.
func (p *Pipeline) passes(f Frame, byLayer map[scene.Layer][]*scene.Node) []pass {
	var out []pass
	inFront, hasInFront := p.layers[scene.LayerInFront]
	hasInFront = hasInFront && len(byLayer[scene.LayerInFront]) > 0

	if hasInFront {
		out = append(out, pass{
			name: "in-front early-z",
			src:  inFront,
			state: BlitState{
				Alpha:      1,
				DepthWrite: true,
				PinDepth:   true,
			},
		})
	}
	if len(byLayer[scene.LayerBack]) > 0 {
		out = append(out, pass{
			name: "back",
			src:  p.layers[scene.LayerBack],
			state: BlitState{
				Alpha:      1,
				DepthTest:  true,
				DepthWrite: true,
				SSAO:       f.SSAO,
				Edges:      f.Edges,
				EdgeColor:  p.opts.EdgeColor,
			},
		})
	}
	if len(byLayer[scene.LayerGhost]) > 0 {
		out = append(out, pass{
			name: "ghost",
			src:  p.layers[scene.LayerGhost],
			state: BlitState{
				Alpha:     p.opts.GhostAlpha,
				DepthTest: true,
			},
		})
	}
	if hasInFront {
		out = append(out, pass{
			name: "in-front",
			src:  inFront,
			state: BlitState{
				Alpha:        p.opts.InFrontAlpha,
				Outline:      p.opts.Outline,
				OutlineColor: p.opts.OutlineColor,
			},
		})
	}
	return out
}

// prepare allocates the output target and the targets of every populated
// layer, resizing all existing targets together when the size changed.
func (p *Pipeline) prepare(width, height int, byLayer map[scene.Layer][]*scene.Node) error {
	if width != p.width || height != p.height {
		if p.post != nil {
			p.log.Debug("resizing targets", zap.Int("width", width), zap.Int("height", height))
			if err := p.post.Resize(width, height); err != nil {
				return fmt.Errorf("resizing output target: %w", err)
			}
		}
		for l, t := range p.layers {
			if err := t.Resize(width, height); err != nil {
				return fmt.Errorf("resizing %s target: %w", l, err)
			}
		}
		p.width, p.height = width, height
	}

	if p.post == nil {
		t, err := p.dev.NewTarget(width, height, p.opts.SampleCount)
		if err != nil {
			return fmt.Errorf("allocating output target: %w", err)
		}
		p.post = t
	}
	for l := range byLayer {
		if _, ok := p.layers[l]; ok {
			continue
		}
		t, err := p.dev.NewTarget(width, height, p.opts.SampleCount)
		if err != nil {
			return fmt.Errorf("allocating %s target: %w", l, err)
		}
		p.log.Debug("allocated layer target", zap.Stringer("layer", l), zap.Int("width", width), zap.Int("height", height))
		p.layers[l] = t
	}
	return nil
}

// offsetRenderOrder returns sorted shallow copies of nodes with the custom
// render order applied. The input nodes are left as they were.
func offsetRenderOrder(nodes []*scene.Node) []*scene.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*scene.Node, len(nodes))
	for i, n := range nodes {
		c := *n
		c.RenderOrder += CustomRenderOrderOffset
		out[i] = &c
	}
	scene.SortByRenderOrder(out)
	return out
}

// Targets returns the number of allocated targets, output included.
func (p *Pipeline) Targets() int {
	n := len(p.layers)
	if p.post != nil {
		n++
	}
	return n
}

// Dispose frees every target. It is idempotent.
func (p *Pipeline) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	for l, t := range p.layers {
		t.Destroy()
		delete(p.layers, l)
	}
	if p.post != nil {
		p.post.Destroy()
		p.post = nil
	}
}
