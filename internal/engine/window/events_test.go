package window

import (
	"testing"

	"github.com/Faultbox/reveal-viewer/internal/engine/input"
)

func TestPixelScale(t *testing.T) {
	tests := []struct {
		name     string
		window   [2]int
		drawable [2]int
		in, want input.PointerEvent
	}{
		{"standard display", [2]int{1280, 720}, [2]int{1280, 720},
			input.PointerEvent{X: 640, Y: 360, MovementX: 3, MovementY: -2},
			input.PointerEvent{X: 640, Y: 360, MovementX: 3, MovementY: -2}},
		{"2x display", [2]int{1280, 720}, [2]int{2560, 1440},
			input.PointerEvent{X: 640, Y: 360, MovementX: 3, MovementY: -2, Button: input.ButtonPrimary},
			input.PointerEvent{X: 1280, Y: 720, MovementX: 6, MovementY: -4, Button: input.ButtonPrimary}},
		{"minimized window", [2]int{0, 0}, [2]int{0, 0},
			input.PointerEvent{X: 5, Y: 7},
			input.PointerEvent{X: 5, Y: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPixelScale(tt.window[0], tt.window[1], tt.drawable[0], tt.drawable[1])
			if got := s.pointer(tt.in); got != tt.want {
				t.Errorf("pointer() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPixelScaleWheel(t *testing.T) {
	s := newPixelScale(1280, 720, 2560, 1440)
	got := s.wheel(input.WheelEvent{X: 640, Y: 360, DeltaY: 100})
	want := input.WheelEvent{X: 1280, Y: 720, DeltaY: 100}
	if got != want {
		t.Errorf("wheel() = %+v, want %+v", got, want)
	}
}
