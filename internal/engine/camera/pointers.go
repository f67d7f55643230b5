package camera

import (
	"github.com/Faultbox/reveal-viewer/internal/engine/input"
	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// pointerCache tracks pressed pointers for drag and two-finger pinch gestures.
type pointerCache struct {
	active        []input.PointerEvent
	pinchDistance float32
}

func (p *pointerCache) index(id int) int {
	for i, e := range p.active {
		if e.PointerID == id {
			return i
		}
	}
	return -1
}

// down records a pressed pointer. A further button on an already pressed
// pointer (a mouse chord) keeps the gesture started by the first button.
func (p *pointerCache) down(e input.PointerEvent) {
	if p.index(e.PointerID) >= 0 {
		return
	}
	p.active = append(p.active, e)
	if len(p.active) == 2 {
		p.pinchDistance = p.distance()
	}
}

// move records e and reports whether the pointer is pressed.
func (p *pointerCache) move(e input.PointerEvent) bool {
	i := p.index(e.PointerID)
	if i < 0 {
		return false
	}
	e.Button = p.active[i].Button
	p.active[i] = e
	return true
}

// up releases the pointer only when the button that started it is released.
func (p *pointerCache) up(e input.PointerEvent) {
	i := p.index(e.PointerID)
	if i < 0 {
		return
	}
	if e.Button != input.ButtonNone && e.Button != p.active[i].Button {
		return
	}
	p.active = append(p.active[:i], p.active[i+1:]...)
	p.pinchDistance = 0
	if len(p.active) == 2 {
		p.pinchDistance = p.distance()
	}
}

func (p *pointerCache) count() int {
	return len(p.active)
}

func (p *pointerCache) first() input.PointerEvent {
	return p.active[0]
}

func (p *pointerCache) distance() float32 {
	a := math.Vec2{X: p.active[0].X, Y: p.active[0].Y}
	b := math.Vec2{X: p.active[1].X, Y: p.active[1].Y}
	return a.Distance(b)
}

func (p *pointerCache) midpoint() (x, y float32) {
	return (p.active[0].X + p.active[1].X) / 2, (p.active[0].Y + p.active[1].Y) / 2
}

// pinch returns the spread since the last accepted pinch step. Changes within
// threshold are ignored and accumulate until they exceed it.
func (p *pointerCache) pinch(threshold float32) (delta float32, ok bool) {
	if len(p.active) != 2 {
		return 0, false
	}
	d := p.distance()
	delta = d - p.pinchDistance
	if delta <= threshold && delta >= -threshold {
		return 0, false
	}
	p.pinchDistance = d
	return delta, true
}

func (p *pointerCache) reset() {
	p.active = nil
	p.pinchDistance = 0
}
