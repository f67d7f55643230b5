package camera

// EventKind selects the notification stream a listener subscribes to.
type EventKind int

const (
	// EventCameraChange fires synchronously after every state mutation.
	EventCameraChange EventKind = iota
	// EventCameraStop fires once motion has been quiet for the debounce window.
	EventCameraStop
)

func (k EventKind) String() string {
	switch k {
	case EventCameraChange:
		return "cameraChange"
	case EventCameraStop:
		return "cameraStop"
	default:
		return "unknown"
	}
}

// Listener receives the resolved camera state.
type Listener func(State)

// ListenerID identifies a subscription for Off. The zero value is never issued.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// emitter delivers to listeners in registration order.
type emitter struct {
	entries []listenerEntry
}

func (e *emitter) add(id ListenerID, fn Listener) {
	e.entries = append(e.entries, listenerEntry{id: id, fn: fn})
}

func (e *emitter) remove(id ListenerID) {
	for i, entry := range e.entries {
		if entry.id == id {
			e.entries = append(e.entries[:i:i], e.entries[i+1:]...)
			return
		}
	}
}

func (e *emitter) emit(s State) {
	// Listeners may call Off while being notified.
	entries := e.entries
	for _, entry := range entries {
		entry.fn(s)
	}
}

func (e *emitter) len() int {
	return len(e.entries)
}
