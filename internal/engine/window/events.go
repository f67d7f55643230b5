package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/reveal-viewer/internal/engine/input"
)

// Events holds the non-pointer events of one PollEvents call.
type Events struct {
	Quit          bool
	Resized       bool
	Width, Height int
	KeysPressed   []sdl.Scancode
}

// KeyPressed checks if a specific key was pressed during the poll.
func (e Events) KeyPressed(scancode sdl.Scancode) bool {
	for _, k := range e.KeysPressed {
		if k == scancode {
			return true
		}
	}
	return false
}

// PollEvents drains the SDL queue, forwarding pointer, touch and wheel events to the dispatcher.
func (w *Window) PollEvents(d *input.Dispatcher) Events {
	var out Events
	drawW, drawH := w.DrawableSize()
	winW, winH := w.size()
	scale := newPixelScale(winW, winH, drawW, drawH)

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			out.Quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				out.Resized = true
				out.Width = int(e.Data1)
				out.Height = int(e.Data2)
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				out.KeysPressed = append(out.KeysPressed, e.Keysym.Scancode)
			}

		case *sdl.MouseMotionEvent:
			if e.Which == sdl.TOUCH_MOUSEID {
				continue
			}
			d.PointerMove(scale.pointer(input.PointerEvent{
				PointerID: mousePointerID,
				X:         float32(e.X),
				Y:         float32(e.Y),
				MovementX: float32(e.XRel),
				MovementY: float32(e.YRel),
			}))

		case *sdl.MouseButtonEvent:
			if e.Which == sdl.TOUCH_MOUSEID {
				continue
			}
			pe := scale.pointer(input.PointerEvent{
				PointerID: mousePointerID,
				X:         float32(e.X),
				Y:         float32(e.Y),
				Button:    mouseButton(e.Button),
			})
			if e.Type == sdl.MOUSEBUTTONDOWN {
				d.PointerDown(pe)
			} else {
				d.PointerUp(pe)
			}

		case *sdl.MouseWheelEvent:
			x, y, _ := sdl.GetMouseState()
			// SDL reports positive Y when scrolling away from the user; browsers use the opposite sign.
			d.Wheel(scale.wheel(input.WheelEvent{
				X:      float32(x),
				Y:      float32(y),
				DeltaY: -float32(e.Y) * wheelLineHeight,
			}))

		case *sdl.TouchFingerEvent:
			// Finger coordinates are normalized to the window, so they map
			// straight onto drawable pixels.
			pe := input.PointerEvent{
				PointerID: int(e.FingerID) + 1,
				X:         e.X * float32(drawW),
				Y:         e.Y * float32(drawH),
				MovementX: e.DX * float32(drawW),
				MovementY: e.DY * float32(drawH),
				Button:    input.ButtonPrimary,
			}
			switch e.Type {
			case sdl.FINGERDOWN:
				d.PointerDown(pe)
			case sdl.FINGERMOTION:
				d.PointerMove(pe)
			case sdl.FINGERUP:
				d.PointerUp(pe)
			}
		}
	}

	return out
}

const (
	mousePointerID = 0

	// Pixels per wheel notch, matching a browser's line-mode wheel events.
	wheelLineHeight = 100
)

func mouseButton(b uint8) input.PointerButton {
	switch b {
	case sdl.BUTTON_LEFT:
		return input.ButtonPrimary
	case sdl.BUTTON_RIGHT:
		return input.ButtonSecondary
	case sdl.BUTTON_MIDDLE:
		return input.ButtonMiddle
	default:
		return input.ButtonNone
	}
}

// pixelScale converts window coordinates (points) into drawable pixels, the
// unit the viewport and camera work in. The two differ on high-DPI displays.
type pixelScale struct {
	x, y float32
}

func newPixelScale(winW, winH, drawW, drawH int) pixelScale {
	s := pixelScale{x: 1, y: 1}
	if winW > 0 && drawW > 0 {
		s.x = float32(drawW) / float32(winW)
	}
	if winH > 0 && drawH > 0 {
		s.y = float32(drawH) / float32(winH)
	}
	return s
}

func (s pixelScale) pointer(e input.PointerEvent) input.PointerEvent {
	e.X *= s.x
	e.Y *= s.y
	e.MovementX *= s.x
	e.MovementY *= s.y
	return e
}

// wheel scales the cursor position only; DeltaY is in scroll units.
func (s pixelScale) wheel(e input.WheelEvent) input.WheelEvent {
	e.X *= s.x
	e.Y *= s.y
	return e
}
