package dom

// Event is a DOM event travelling from its target up to the root.
type Event struct {
	// Type is the event name, e.g. "click".
	Type string
	// Target is the element the event was dispatched on.
	Target Element
	// CurrentTarget is the element whose listeners are running.
	CurrentTarget Element
	// Detail carries an optional payload.
	Detail any

	stopped bool
}

// NewEvent creates an event of the given type.
func NewEvent(eventType string) *Event {
	return &Event{Type: eventType}
}

// StopPropagation prevents delivery to further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// Listener gives an event callback an identity so it can be removed again.
type Listener struct {
	fn func(*Event)
}

// NewListener wraps fn.
func NewListener(fn func(*Event)) *Listener {
	return &Listener{fn: fn}
}

// Handle invokes the wrapped callback.
func (l *Listener) Handle(e *Event) {
	if l != nil && l.fn != nil {
		l.fn(e)
	}
}
