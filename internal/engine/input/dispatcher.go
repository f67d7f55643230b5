package input

// Dispatcher fans events out to subscribed handlers in subscription order.
type Dispatcher struct {
	handlers []*subscription
}

type subscription struct {
	handler Handler
	active  bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers h. The returned function removes it and may be called more than once.
func (d *Dispatcher) Subscribe(h Handler) func() {
	sub := &subscription{handler: h, active: true}
	d.handlers = append(d.handlers, sub)

	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		for i, s := range d.handlers {
			if s == sub {
				d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
				break
			}
		}
	}
}

// Len returns the number of active subscriptions.
func (d *Dispatcher) Len() int {
	return len(d.handlers)
}

// PointerDown dispatches a pointer-down event.
func (d *Dispatcher) PointerDown(e PointerEvent) {
	for _, s := range d.snapshot() {
		s.handler.PointerDown(e)
	}
}

// PointerMove dispatches a pointer-move event.
func (d *Dispatcher) PointerMove(e PointerEvent) {
	for _, s := range d.snapshot() {
		s.handler.PointerMove(e)
	}
}

// PointerUp dispatches a pointer-up event.
func (d *Dispatcher) PointerUp(e PointerEvent) {
	for _, s := range d.snapshot() {
		s.handler.PointerUp(e)
	}
}

// Wheel dispatches a wheel event.
func (d *Dispatcher) Wheel(e WheelEvent) {
	for _, s := range d.snapshot() {
		s.handler.Wheel(e)
	}
}

// snapshot lets handlers unsubscribe while an event is being delivered.
func (d *Dispatcher) snapshot() []*subscription {
	out := make([]*subscription, 0, len(d.handlers))
	for _, s := range d.handlers {
		if s.active {
			out = append(out, s)
		}
	}
	return out
}
