// Package styling applies per-object visual overrides to point-cloud stylable
// objects and turns them into scene nodes on the compositing layers.
package styling

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/engine/picking"
	"github.com/Faultbox/reveal-viewer/internal/engine/scene"
	"github.com/Faultbox/reveal-viewer/internal/logger"
	"github.com/Faultbox/reveal-viewer/internal/pointcloud"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

var (
	// ErrUnknownObject is returned when styling an id that is not loaded.
	ErrUnknownObject = errors.New("styling: unknown object")
	// ErrInvalidLayer is returned for a style whose layer is not a single layer.
	ErrInvalidLayer = errors.New("styling: style must name exactly one layer")
)

// Style is the override for one object. An object sits on exactly one layer
// at a time.
type Style struct {
	Color       [4]float32
	Layer       scene.Layer
	Hidden      bool
	RenderOrder int
}

// DefaultStyle draws objects opaque grey on the back layer.
var DefaultStyle = Style{Color: [4]float32{0.75, 0.75, 0.75, 1}, Layer: scene.LayerBack}

func (s Style) validate() error {
	switch s.Layer {
	case scene.LayerBack, scene.LayerInFront, scene.LayerGhost, scene.LayerCustom:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrInvalidLayer, s.Layer)
}

// Options configures a Styler.
type Options struct {
	// CylinderSegments is the side count of cylinder meshes.
	CylinderSegments int
	// NodeIDBase is the first scene node id handed out. Keep it clear of
	// other nodes in the same scene.
	NodeIDBase int64
}

// Styler owns the object set of one model and its styles.
// It is not safe for concurrent use.
type Styler struct {
	opts   Options
	def    Style
	styles map[int64]Style

	objects []pointcloud.StylableObject
	index   map[int64]int
	meshes  [][]shapeMesh

	applied []int64
	log     *zap.Logger
}

// New creates a styler for objects. Objects without an explicit style use def.
func New(objects []pointcloud.StylableObject, def Style, opts Options) (*Styler, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	if opts.CylinderSegments <= 0 {
		opts.CylinderSegments = DefaultCylinderSegments
	}
	s := &Styler{
		opts:   opts,
		def:    def,
		styles: make(map[int64]Style),
		log:    logger.Named("styling"),
	}
	s.Replace(objects)
	return s, nil
}

// Replace swaps in a freshly fetched object set. Styles of ids that are still
// present are kept. It returns the meshes of the previous set that are no
// longer drawn, so devices caching them can free their copies.
func (s *Styler) Replace(objects []pointcloud.StylableObject) (dropped []*scene.Mesh) {
	for _, sms := range s.meshes {
		for _, sm := range sms {
			if sm.mesh != unitCube {
				dropped = append(dropped, sm.mesh)
			}
		}
	}

	s.objects = objects
	s.index = make(map[int64]int, len(objects))
	s.meshes = make([][]shapeMesh, len(objects))
	for i, o := range objects {
		s.index[o.ObjectID] = i
		for _, shape := range o.Shapes {
			s.meshes[i] = append(s.meshes[i], meshFor(shape, s.opts.CylinderSegments))
		}
	}
	for id := range s.styles {
		if _, ok := s.index[id]; !ok {
			delete(s.styles, id)
		}
	}
	s.log.Debug("objects replaced",
		zap.Int("objects", len(objects)),
		zap.Int("styled", len(s.styles)),
		zap.Int("dropped_meshes", len(dropped)))
	return dropped
}

// Objects returns the current object set.
func (s *Styler) Objects() []pointcloud.StylableObject {
	return s.objects
}

// SetStyle overrides the style of one object.
func (s *Styler) SetStyle(id int64, st Style) error {
	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	if err := st.validate(); err != nil {
		return err
	}
	s.styles[id] = st
	return nil
}

// ResetStyle returns an object to the default style.
func (s *Styler) ResetStyle(id int64) {
	delete(s.styles, id)
}

// ResetAll drops every override.
func (s *Styler) ResetAll() {
	clear(s.styles)
}

// StyleOf returns the effective style of id.
func (s *Styler) StyleOf(id int64) Style {
	if st, ok := s.styles[id]; ok {
		return st
	}
	return s.def
}

// Nodes builds scene nodes for every visible object. Custom-layer nodes are
// returned separately; they go to the renderer as a borrow list instead of
// into the scene.
func (s *Styler) Nodes() (layered, custom []*scene.Node) {
	id := s.opts.NodeIDBase
	for i, o := range s.objects {
		st := s.StyleOf(o.ObjectID)
		for _, sm := range s.meshes[i] {
			nodeID := id
			id++
			if st.Hidden {
				continue
			}
			n := &scene.Node{
				ID:          nodeID,
				Mesh:        sm.mesh,
				Transform:   sm.transform,
				Color:       st.Color,
				Layers:      scene.Mask(st.Layer),
				RenderOrder: st.RenderOrder,
			}
			if st.Layer == scene.LayerCustom {
				custom = append(custom, n)
			} else {
				layered = append(layered, n)
			}
		}
	}
	return layered, custom
}

// Apply replaces the nodes this styler previously put into sc with a fresh
// build and returns the custom-layer borrow list.
func (s *Styler) Apply(sc *scene.Scene) ([]*scene.Node, error) {
	for _, id := range s.applied {
		sc.Remove(id)
	}
	s.applied = s.applied[:0]

	layered, custom := s.Nodes()
	for _, n := range layered {
		if err := sc.Add(n); err != nil {
			return nil, fmt.Errorf("applying styles: %w", err)
		}
		s.applied = append(s.applied, n.ID)
	}
	return custom, nil
}

// Bounds returns the world bounds of one object.
func (s *Styler) Bounds(id int64) (math.Box3, bool) {
	i, ok := s.index[id]
	if !ok {
		return math.EmptyBox3(), false
	}
	b := math.EmptyBox3()
	for _, sm := range s.meshes[i] {
		b = b.Union(sm.mesh.Bounds().Transform(sm.transform))
	}
	return b, true
}

// Pick returns the visible object nearest along ray.
func (s *Styler) Pick(ray picking.Ray) (id int64, dist float32, ok bool) {
	for i, o := range s.objects {
		if s.StyleOf(o.ObjectID).Hidden {
			continue
		}
		for _, sm := range s.meshes[i] {
			if _, hit := ray.IntersectAABB(sm.mesh.Bounds().Transform(sm.transform)); !hit {
				continue
			}
			d, hit := ray.IntersectMesh(sm.mesh.Positions, sm.mesh.Indices, sm.transform)
			if hit && (!ok || d < dist) {
				id, dist, ok = o.ObjectID, d, true
			}
		}
	}
	return id, dist, ok
}
