package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name string
	log  *[]string
}

func (r recorder) PointerDown(PointerEvent) { *r.log = append(*r.log, r.name+":down") }
func (r recorder) PointerMove(PointerEvent) { *r.log = append(*r.log, r.name+":move") }
func (r recorder) PointerUp(PointerEvent)   { *r.log = append(*r.log, r.name+":up") }
func (r recorder) Wheel(WheelEvent)         { *r.log = append(*r.log, r.name+":wheel") }

func TestDispatcherOrder(t *testing.T) {
	var log []string
	d := NewDispatcher()
	d.Subscribe(recorder{"a", &log})
	d.Subscribe(recorder{"b", &log})

	d.PointerDown(PointerEvent{})
	d.Wheel(WheelEvent{})

	assert.Equal(t, []string{"a:down", "b:down", "a:wheel", "b:wheel"}, log)
}

func TestDispatcherUnsubscribeIsIdempotent(t *testing.T) {
	var log []string
	d := NewDispatcher()
	unsubscribe := d.Subscribe(recorder{"a", &log})
	d.Subscribe(recorder{"b", &log})

	unsubscribe()
	unsubscribe()

	assert.Equal(t, 1, d.Len())
	d.PointerMove(PointerEvent{})
	assert.Equal(t, []string{"b:move"}, log)
}
