package channel

import (
	"context"
	"sync"
)

// Kind identifies the delivery mechanism of a channel implementation.
type Kind string

const (
	// KindPush is a persistent publish/subscribe transport where the server
	// initiates message delivery.
	KindPush Kind = "push"
	// KindPoll is a client-initiated periodic request transport.
	KindPoll Kind = "poll"
)

// Channel abstracts one notification delivery mechanism. Open produces a lazy,
// unbounded stream of events for the given user that runs until the transport
// fails, the session ends, or ctx is cancelled.
//
// Implementations perform network I/O only; they never touch the unread
// counter or the presentation layer.
type Channel interface {
	// Kind reports the delivery mechanism. The orchestrator uses it to decide
	// whether reconnect supervision is needed (push) or the channel heals
	// itself by construction (poll).
	Kind() Kind

	// Open establishes the transport and returns a live stream. A returned
	// error means the transport could not be established at all; stream
	// termination afterwards is reported through Stream.Err.
	Open(ctx context.Context, userID int64) (*Stream, error)
}

// Stream is the consumer side of an open channel. Events are received from
// Events until it is closed; Err then reports why the stream terminated.
//
// Producer discipline: Emit and Close must be called from a single producing
// goroutine. Consumers may read Events and Err concurrently.
type Stream struct {
	events chan Event

	mu     sync.Mutex
	err    error
	closed bool
}

// NewStream creates a stream with the given event buffer size. It is used by
// channel implementations and by test fakes; consumers only read from it.
func NewStream(bufferSize int) *Stream {
	return &Stream{
		events: make(chan Event, max(bufferSize, 1)),
	}
}

// Events returns the channel events are delivered on. It is closed exactly
// once, when the stream terminates.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Err reports why the stream terminated. It is valid only after the Events
// channel has been closed; before that it returns nil.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Emit delivers one event to the consumer, blocking until there is buffer
// space or ctx is cancelled. Returns ErrStreamClosed after Close.
func (s *Stream) Emit(ctx context.Context, ev Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	s.mu.Unlock()

	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the stream with the given cause and closes the events
// channel. It is idempotent; only the first cause is kept.
func (s *Stream) Close(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.err = cause
	close(s.events)
}
