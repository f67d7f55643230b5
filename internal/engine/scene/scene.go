// Package scene holds the drawable nodes of the viewer, partitioned into
// compositing layers.
package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// ErrDuplicateNode is returned by Add when a node id is already present.
var ErrDuplicateNode = errors.New("scene: duplicate node id")

// Node is one drawable instance of a mesh.
type Node struct {
	ID          int64
	Mesh        *Mesh
	Transform   math.Mat4
	Color       [4]float32 // straight alpha
	Layers      LayerMask
	RenderOrder int
}

// WorldBounds returns the node's bounding box in world space.
func (n *Node) WorldBounds() math.Box3 {
	if n.Mesh == nil {
		return math.EmptyBox3()
	}
	return n.Mesh.Bounds().Transform(n.Transform)
}

// Scene is an ordered set of nodes. It is not safe for concurrent use.
type Scene struct {
	nodes []*Node
	byID  map[int64]*Node
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{byID: make(map[int64]*Node)}
}

// Add inserts n.
func (s *Scene) Add(n *Node) error {
	if _, ok := s.byID[n.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
	}
	s.nodes = append(s.nodes, n)
	s.byID[n.ID] = n
	return nil
}

// Remove deletes the node with id and reports whether it existed.
func (s *Scene) Remove(id int64) bool {
	n, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	for i, candidate := range s.nodes {
		if candidate == n {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all nodes.
func (s *Scene) Clear() {
	s.nodes = nil
	s.byID = make(map[int64]*Node)
}

// Node returns the node with id, or nil.
func (s *Scene) Node(id int64) *Node {
	return s.byID[id]
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	return len(s.nodes)
}

// Nodes returns all nodes in insertion order.
func (s *Scene) Nodes() []*Node {
	out := make([]*Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// LayerNodes returns the nodes in layer l, stably sorted by RenderOrder.
func (s *Scene) LayerNodes(l Layer) []*Node {
	var out []*Node
	for _, n := range s.nodes {
		if n.Layers.Has(l) {
			out = append(out, n)
		}
	}
	SortByRenderOrder(out)
	return out
}

// Bounds returns the union of all node bounds.
func (s *Scene) Bounds() math.Box3 {
	return BoundsOf(s.nodes)
}

// BoundsOf returns the union of the nodes' world bounds.
func BoundsOf(nodes []*Node) math.Box3 {
	b := math.EmptyBox3()
	for _, n := range nodes {
		b = b.Union(n.WorldBounds())
	}
	return b
}

// SortByRenderOrder sorts nodes by RenderOrder, keeping insertion order for ties.
func SortByRenderOrder(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].RenderOrder < nodes[j].RenderOrder
	})
}
