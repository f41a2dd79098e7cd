package reconnect

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/notisync/pkg/channel"
	"github.com/dmitrymomot/notisync/pkg/logger"
)

// Supervisor owns the retry policy of a channel that can disconnect. It runs
// a sequential connect/consume/backoff loop, so at most one open attempt
// exists at any time and events are handled one at a time.
//
// On every transition into the connected state, the first connect included,
// the OnConnected hook fires before any event from that connection is
// delivered. The orchestrator uses it to resynchronize the unread counter,
// since the gap between disconnect and reconnect may have swallowed push
// events and silent undercounting must be self-healing.
type Supervisor struct {
	ch      channel.Channel
	backoff BackoffStrategy
	logger  *slog.Logger

	onConnected    func(ctx context.Context)
	onEvent        func(ev channel.Event)
	onStateChange  func(s State)
	onSessionEnded func()

	mu      sync.Mutex
	state   State
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithBackoff sets the retry delay strategy. Defaults to capped exponential
// backoff with jitter.
func WithBackoff(strategy BackoffStrategy) Option {
	return func(s *Supervisor) {
		if strategy != nil {
			s.backoff = strategy
		}
	}
}

// WithLogger sets the logger for the Supervisor.
func WithLogger(log *slog.Logger) Option {
	return func(s *Supervisor) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithOnConnected registers the hook fired on every transition into
// StateConnected, before any event from that connection is delivered.
func WithOnConnected(fn func(ctx context.Context)) Option {
	return func(s *Supervisor) { s.onConnected = fn }
}

// WithOnEvent registers the delivery callback. Events are delivered
// sequentially from a single goroutine.
func WithOnEvent(fn func(ev channel.Event)) Option {
	return func(s *Supervisor) { s.onEvent = fn }
}

// WithOnStateChange registers an observer for state transitions.
func WithOnStateChange(fn func(s State)) Option {
	return func(s *Supervisor) { s.onStateChange = fn }
}

// WithOnSessionEnded registers the hook fired when the channel reports the
// session is no longer authorized. The supervisor stops permanently.
func WithOnSessionEnded(fn func()) Option {
	return func(s *Supervisor) { s.onSessionEnded = fn }
}

// New creates a supervisor for the given channel.
func New(ch channel.Channel, opts ...Option) (*Supervisor, error) {
	if ch == nil {
		return nil, ErrNilChannel
	}

	s := &Supervisor{
		ch:      ch,
		backoff: DefaultBackoffStrategy(),
		logger:  slog.Default(),
		state:   StateDisconnected,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the supervision loop for the given user. It returns
// immediately; connection progress is observable through WithOnStateChange.
func (s *Supervisor) Start(ctx context.Context, userID int64) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.run(ctx, userID)
	}()

	return nil
}

// Stop terminates the loop, cancelling any pending backoff timer so no
// reconnect can fire after teardown. It blocks until the loop goroutine has
// exited and is idempotent.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()
}

func (s *Supervisor) run(ctx context.Context, userID int64) {
	defer s.setState(ctx, StateDisconnected)

	attempt := 0
	for {
		s.setState(ctx, StateConnecting)

		stream, err := s.ch.Open(ctx, userID)
		if err != nil {
			if s.handleTerminal(ctx, userID, err) {
				return
			}
			attempt++
			if !s.waitBackoff(ctx, userID, attempt) {
				return
			}
			continue
		}

		attempt = 0
		s.setState(ctx, StateConnected)
		if s.onConnected != nil {
			s.onConnected(ctx)
		}

		for ev := range stream.Events() {
			if s.onEvent != nil {
				s.onEvent(ev)
			}
		}

		if s.handleTerminal(ctx, userID, stream.Err()) {
			return
		}

		attempt++
		if !s.waitBackoff(ctx, userID, attempt) {
			return
		}
	}
}

// handleTerminal reports whether the loop must exit for the given failure:
// either the context is done or the session was rejected. Recoverable
// failures return false and are retried after backoff.
func (s *Supervisor) handleTerminal(ctx context.Context, userID int64, err error) bool {
	if ctx.Err() != nil {
		return true
	}

	if errors.Is(err, channel.ErrUnauthorized) {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "Session ended, stopping reconnection",
			logger.UserID(userID),
			logger.ChannelKind(string(s.ch.Kind())),
		)
		if s.onSessionEnded != nil {
			s.onSessionEnded()
		}
		return true
	}

	return false
}

// waitBackoff sleeps out the retry delay for the given attempt. It reports
// false when the context was cancelled while waiting.
func (s *Supervisor) waitBackoff(ctx context.Context, userID int64, attempt int) bool {
	s.setState(ctx, StateBackoff)

	delay := s.backoff.NextInterval(attempt)
	s.logger.LogAttrs(ctx, slog.LevelDebug, "Connection lost, waiting before reconnect",
		logger.UserID(userID),
		logger.Attempt(attempt),
		logger.Duration(delay),
	)

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func (s *Supervisor) setState(ctx context.Context, next State) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()

	s.logger.LogAttrs(ctx, slog.LevelDebug, "Connection state changed",
		logger.ChannelKind(string(s.ch.Kind())),
		logger.State(next.String()),
	)

	if s.onStateChange != nil {
		s.onStateChange(next)
	}
}
