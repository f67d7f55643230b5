// Package input defines the pointer and wheel events the camera managers consume
// and a dispatcher that fans them out to subscribers.
package input

// PointerButton identifies which button started a pointer interaction.
type PointerButton uint8

const (
	ButtonNone PointerButton = iota
	ButtonPrimary
	ButtonSecondary
	ButtonMiddle
)

// PointerEvent is a pointer (mouse or touch) event in viewport pixels.
// MovementX/Y are deltas since the previous event for the same pointer.
type PointerEvent struct {
	PointerID int
	X, Y      float32
	MovementX float32
	MovementY float32
	Button    PointerButton
}

// WheelEvent is a scroll event at a viewport position. Positive DeltaY means the
// wheel was rolled toward the user, which zooms out.
type WheelEvent struct {
	X, Y   float32
	DeltaY float32
}

// Handler receives input events. Handlers run synchronously on the frame thread.
type Handler interface {
	PointerDown(e PointerEvent)
	PointerMove(e PointerEvent)
	PointerUp(e PointerEvent)
	Wheel(e WheelEvent)
}

// Source is anything handlers can subscribe to.
type Source interface {
	Subscribe(h Handler) (unsubscribe func())
}
