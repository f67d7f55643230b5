package camera

import "time"

type stopState int

const (
	stopIdle stopState = iota
	stopPending
	stopFired
)

// stopTrigger is the cameraStop debounce: idle -> pending on change, pending ->
// fired once quiet has elapsed without another change, fired -> pending on the next change.
type stopTrigger struct {
	state   stopState
	quiet   time.Duration
	elapsed time.Duration
}

func newStopTrigger(quiet time.Duration) stopTrigger {
	return stopTrigger{quiet: quiet}
}

// changed restarts the quiet period.
func (t *stopTrigger) changed() {
	t.state = stopPending
	t.elapsed = 0
}

// advance moves the timer forward and reports whether the stop event is due now.
func (t *stopTrigger) advance(dt time.Duration) bool {
	if t.state != stopPending {
		return false
	}
	t.elapsed += dt
	if t.elapsed < t.quiet {
		return false
	}
	t.state = stopFired
	return true
}
