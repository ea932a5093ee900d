package render

import "toolcall/internal/events"

// Renderer emits events to an output target.
type Renderer interface {
	Emit(events.Event)
	Close() error
}

// Sink adapts r for components that publish through an events.Sink.
func Sink(r Renderer) events.Sink {
	if r == nil {
		return nil
	}
	return r.Emit
}
