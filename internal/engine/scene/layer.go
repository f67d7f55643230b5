package scene

import "strings"

// Layer is one compositing group. Layers are bit flags so a node can carry a mask.
type Layer uint8

const (
	LayerBack Layer = 1 << iota
	LayerInFront
	LayerGhost
	LayerCustom
)

// Layers lists the geometry layers in pass order. Custom objects are not part of
// the scene; they are handed to the renderer per frame.
var Layers = []Layer{LayerBack, LayerInFront, LayerGhost}

// LayerMask is a set of layers.
type LayerMask uint8

// Mask returns a mask holding the given layers.
func Mask(layers ...Layer) LayerMask {
	var m LayerMask
	for _, l := range layers {
		m |= LayerMask(l)
	}
	return m
}

// Has reports whether l is in the mask.
func (m LayerMask) Has(l Layer) bool {
	return m&LayerMask(l) != 0
}

func (l Layer) String() string {
	switch l {
	case LayerBack:
		return "back"
	case LayerInFront:
		return "in-front"
	case LayerGhost:
		return "ghost"
	case LayerCustom:
		return "custom"
	}
	return "unknown"
}

// ParseLayer parses a layer name as produced by String.
func ParseLayer(s string) (Layer, bool) {
	for _, l := range []Layer{LayerBack, LayerInFront, LayerGhost, LayerCustom} {
		if strings.EqualFold(s, l.String()) {
			return l, true
		}
	}
	return 0, false
}
