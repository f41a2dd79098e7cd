package notisync

import (
	"log/slog"

	"github.com/dmitrymomot/notisync/pkg/channel"
	"github.com/dmitrymomot/notisync/pkg/reconnect"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the Client.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithBackoff sets the reconnect delay strategy for push channels. Defaults
// to capped exponential backoff with jitter.
func WithBackoff(strategy reconnect.BackoffStrategy) Option {
	return func(c *Client) {
		if strategy != nil {
			c.backoff = strategy
		}
	}
}

// WithOnNotification registers the presentation callback invoked once per
// delivered notification, after the unread counter was incremented.
// Callbacks run sequentially on the delivery goroutine and should hand off
// long work.
func WithOnNotification(fn func(ev channel.Event)) Option {
	return func(c *Client) { c.onNotification = fn }
}

// WithOnCounterChanged registers the badge callback invoked with the new
// unread count after every effective counter mutation, including the initial
// seed at Start.
func WithOnCounterChanged(fn func(count int)) Option {
	return func(c *Client) { c.onCounterChanged = fn }
}

// WithOnSessionEnded registers the callback fired when the server rejected
// the session and notification delivery stopped permanently. This is the
// only failure surfaced to the user; transient transport failures are
// absorbed silently.
func WithOnSessionEnded(fn func()) Option {
	return func(c *Client) { c.onSessionEnded = fn }
}

// WithOnConnectionState registers an observer for push connection state
// transitions. Not invoked for polling channels, which have no persistent
// connection.
func WithOnConnectionState(fn func(s reconnect.State)) Option {
	return func(c *Client) { c.onStateChange = fn }
}
