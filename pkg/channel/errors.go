package channel

import "errors"

// Transport errors, designed for classification with errors.Is. Streams report
// exactly one of the terminal errors below (or a context error) after their
// event channel is closed.
var (
	// ErrMalformedEvent marks a payload that does not decode into an Event.
	// Malformed payloads are dropped per message and never terminate a stream.
	ErrMalformedEvent = errors.New("channel: malformed notification event")

	// ErrConnectionLost indicates the underlying transport failed or closed.
	// Recoverable: the reconnect supervisor retries after backoff.
	ErrConnectionLost = errors.New("channel: connection lost")

	// ErrUnauthorized indicates the server rejected the session. Terminal:
	// the channel must not be reopened for this identity.
	ErrUnauthorized = errors.New("channel: session unauthorized")

	// ErrInvalidUserID is returned by Open when the user identifier is absent.
	ErrInvalidUserID = errors.New("channel: invalid user id")

	// ErrStreamClosed is returned by Stream.Emit after the stream terminated.
	ErrStreamClosed = errors.New("channel: stream is closed")
)
