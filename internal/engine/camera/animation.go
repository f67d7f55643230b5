package camera

import "time"

// animation interpolates over frame ticks. A superseded animation is simply
// dropped; its done channel is never closed.
type animation struct {
	duration time.Duration
	elapsed  time.Duration
	step     func(t float32)
	done     chan struct{}
}

// advance applies the eased progress and reports whether the animation finished.
func (a *animation) advance(dt time.Duration) bool {
	a.elapsed += dt
	t := float32(1)
	if a.elapsed < a.duration {
		t = float32(a.elapsed) / float32(a.duration)
	}
	a.step(easeQuinticInOut(t))
	if t >= 1 {
		close(a.done)
		return true
	}
	return false
}

// easeQuinticInOut is monotonic on [0, 1] and never overshoots.
func easeQuinticInOut(t float32) float32 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if t < 0.5 {
		return 16 * t * t * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u*u*u/2
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
