package cloudantstore

import "time"

// EventType classifies an observability signal.
type EventType string

const (
	// EventConnect is emitted when a reachability probe succeeds.
	EventConnect EventType = "connect"

	// EventDisconnect is emitted when a reachability probe fails.
	EventDisconnect EventType = "disconnect"

	// EventError is emitted when a lifecycle operation fails for any
	// reason other than an absent session.
	EventError EventType = "error"
)

// Event is a single observability signal from the store.
type Event struct {
	Type EventType

	// Op names the operation that produced the event (get, set, touch,
	// destroy, probe). Empty for reachability signals.
	Op string

	// SessionID is the affected session, if any.
	SessionID string

	// Err carries the failure detail for error and disconnect events.
	Err error

	// Time is when the event was produced.
	Time time.Time
}

// EventSink receives store events. Implementations must not block: events
// are emitted inline on the operation path.
type EventSink interface {
	Emit(Event)
}

// NoOpSink discards all events.
type NoOpSink struct{}

// Emit implements EventSink.
func (NoOpSink) Emit(Event) {}

// FuncSink adapts a function to an EventSink.
type FuncSink func(Event)

// Emit implements EventSink.
func (f FuncSink) Emit(ev Event) {
	f(ev)
}

// ChannelSink forwards events to a channel, dropping when the channel is
// full so a slow consumer cannot stall session operations.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Events returns the receiving side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Emit implements EventSink.
func (s *ChannelSink) Emit(ev Event) {
	select {
	case s.ch <- ev:
	default:
	}
}
