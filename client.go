package notisync

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notisync/pkg/channel"
	"github.com/dmitrymomot/notisync/pkg/counter"
	"github.com/dmitrymomot/notisync/pkg/dedup"
	"github.com/dmitrymomot/notisync/pkg/logger"
	"github.com/dmitrymomot/notisync/pkg/reconnect"
)

// Backend is the server-side API surface the client mutates and resyncs
// against. *api.Client satisfies it.
type Backend interface {
	// MarkRead marks a single notification as read on the server.
	MarkRead(ctx context.Context, id string) error
	// UnreadCount returns the authoritative unread total for the user.
	UnreadCount(ctx context.Context, userID int64) (int, error)
}

// Client keeps a user's local notification state synchronized with the
// server: it receives notifications over a transport channel, maintains the
// unread counter, deduplicates mark-read requests, and resynchronizes the
// counter after every (re)connection.
//
// A Client serves exactly one user session. Create it with New, run it with
// Start, and tear it down with Stop.
type Client struct {
	backend Backend
	ch      channel.Channel
	logger  *slog.Logger
	backoff reconnect.BackoffStrategy

	// id correlates all log lines of one client instance.
	id uuid.UUID

	onNotification   func(ev channel.Event)
	onCounterChanged func(count int)
	onSessionEnded   func()
	onStateChange    func(s reconnect.State)

	mu      sync.Mutex
	started bool
	userID  int64
	counter *counter.Store
	gate    *dedup.Gate
	sup     *reconnect.Supervisor
	cancel  context.CancelFunc
	unsub   func()

	wg sync.WaitGroup
}

// New creates a Client bound to the given backend and transport channel.
func New(backend Backend, ch channel.Channel, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if ch == nil {
		return nil, ErrNilChannel
	}

	c := &Client{
		backend: backend,
		ch:      ch,
		logger:  slog.Default(),
		backoff: reconnect.DefaultBackoffStrategy(),
		id:      uuid.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("notisync"), logger.ClientID(c.id))
	return c, nil
}

// Start begins delivering notifications for the given user. initialCount
// seeds the unread counter (the server-rendered badge value); the counter
// callback is invoked with the seed before Start returns.
//
// For push channels Start launches a supervised connection loop that
// reconnects after transient failures and resynchronizes the counter on
// every successful (re)connect. For polling channels it opens a single
// polling stream.
func (c *Client) Start(ctx context.Context, userID int64, initialCount int) error {
	if userID <= 0 {
		return ErrInvalidIdentity
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}

	c.userID = userID
	c.counter = counter.New(initialCount)
	c.gate = dedup.New()

	if c.onCounterChanged != nil {
		c.unsub = c.counter.Subscribe(c.onCounterChanged)
		c.onCounterChanged(c.counter.Value())
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	var err error
	switch c.ch.Kind() {
	case channel.KindPush:
		err = c.startPush(runCtx, userID)
	default:
		err = c.startPoll(runCtx, userID)
	}
	if err != nil {
		cancel()
		c.teardownLocked()
		return err
	}

	c.started = true
	c.logger.InfoContext(runCtx, "client started",
		logger.UserID(userID),
		logger.ChannelKind(string(c.ch.Kind())),
		logger.Count(initialCount))
	return nil
}

func (c *Client) startPush(ctx context.Context, userID int64) error {
	opts := []reconnect.Option{
		reconnect.WithBackoff(c.backoff),
		reconnect.WithLogger(c.logger),
		reconnect.WithOnEvent(c.handleEvent),
		reconnect.WithOnConnected(c.resyncAsync),
		reconnect.WithOnSessionEnded(c.sessionEnded),
	}
	if c.onStateChange != nil {
		opts = append(opts, reconnect.WithOnStateChange(c.onStateChange))
	}

	sup, err := reconnect.New(c.ch, opts...)
	if err != nil {
		return err
	}
	if err := sup.Start(ctx, userID); err != nil {
		return err
	}
	c.sup = sup
	return nil
}

func (c *Client) startPoll(ctx context.Context, userID int64) error {
	stream, err := c.ch.Open(ctx, userID)
	if err != nil {
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range stream.Events() {
			c.handleEvent(ev)
		}
		if errors.Is(stream.Err(), channel.ErrUnauthorized) {
			c.sessionEnded()
		}
	}()
	return nil
}

// handleEvent runs on the single delivery goroutine: the counter moves
// first, then the presentation callback observes the already-updated state.
func (c *Client) handleEvent(ev channel.Event) {
	c.counter.Increment()
	c.logger.Debug("notification delivered",
		logger.UserID(c.userID),
		logger.NotificationID(ev.ID),
		logger.Count(c.counter.Value()))
	if c.onNotification != nil {
		c.onNotification(ev)
	}
}

func (c *Client) sessionEnded() {
	c.logger.Warn("session rejected by server, delivery stopped", logger.UserID(c.userID))
	if c.onSessionEnded != nil {
		c.onSessionEnded()
	}
}

// MarkRead marks a notification as read on the server and, only after the
// server confirmed, decrements the local unread counter. Concurrent calls
// for the same notification collapse into a single request; duplicates
// return nil without any effect.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	c.mu.Lock()
	gate, ctr := c.gate, c.counter
	c.mu.Unlock()
	if gate == nil {
		return ErrNotStarted
	}

	if !gate.TryAcquire(id) {
		c.logger.DebugContext(ctx, "duplicate mark-read suppressed", logger.NotificationID(id))
		return nil
	}
	defer gate.Release(id)

	if err := c.backend.MarkRead(ctx, id); err != nil {
		c.logger.WarnContext(ctx, "mark-read failed, counter unchanged",
			logger.NotificationID(id), logger.Error(err))
		return errors.Join(ErrMutationFailed, err)
	}

	ctr.Decrement()
	return nil
}

// Resync replaces the local unread counter with the server's authoritative
// count. Notifications delivered while the request was in flight win: a
// stale result is discarded rather than applied.
func (c *Client) Resync(ctx context.Context) error {
	c.mu.Lock()
	ctr, userID := c.counter, c.userID
	c.mu.Unlock()
	if ctr == nil {
		return ErrNotStarted
	}

	epoch := ctr.BeginResync()
	count, err := c.backend.UnreadCount(ctx, userID)
	if err != nil {
		c.logger.WarnContext(ctx, "resync failed, keeping local count",
			logger.UserID(userID), logger.Error(err))
		return errors.Join(ErrMutationFailed, err)
	}

	if !ctr.Set(count, epoch) {
		c.logger.DebugContext(ctx, "stale resync discarded",
			logger.UserID(userID), logger.Count(count))
		return nil
	}
	c.logger.DebugContext(ctx, "counter resynced",
		logger.UserID(userID), logger.Count(count))
	return nil
}

// resyncAsync snapshots the resync epoch synchronously, before any event of
// the new connection is delivered, then fetches off the delivery goroutine.
func (c *Client) resyncAsync(ctx context.Context) {
	c.mu.Lock()
	ctr, userID := c.counter, c.userID
	c.mu.Unlock()
	if ctr == nil {
		return
	}

	epoch := ctr.BeginResync()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		count, err := c.backend.UnreadCount(ctx, userID)
		if err != nil {
			c.logger.WarnContext(ctx, "resync failed, keeping local count",
				logger.UserID(userID), logger.Error(err))
			return
		}
		if !ctr.Set(count, epoch) {
			c.logger.DebugContext(ctx, "stale resync discarded",
				logger.UserID(userID), logger.Count(count))
			return
		}
		c.logger.DebugContext(ctx, "counter resynced",
			logger.UserID(userID), logger.Count(count))
	}()
}

// UnreadCount returns the current local unread count, or zero before Start.
func (c *Client) UnreadCount() int {
	c.mu.Lock()
	ctr := c.counter
	c.mu.Unlock()
	if ctr == nil {
		return 0
	}
	return ctr.Value()
}

// ConnectionState reports the push connection state. Polling channels and
// stopped clients report StateDisconnected.
func (c *Client) ConnectionState() reconnect.State {
	c.mu.Lock()
	sup := c.sup
	c.mu.Unlock()
	if sup == nil {
		return reconnect.StateDisconnected
	}
	return sup.State()
}

// Stop shuts the client down and waits for in-flight work to finish. It is
// idempotent and safe to call on a never-started client.
func (c *Client) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	cancel, sup := c.cancel, c.sup
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sup != nil {
		sup.Stop()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.teardownLocked()
	c.mu.Unlock()

	c.logger.Info("client stopped", logger.UserID(c.userID))
}

// teardownLocked detaches the counter subscription and the supervisor. The
// counter and gate stay referenced so a late MarkRead completes harmlessly.
func (c *Client) teardownLocked() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	c.sup = nil
	c.cancel = nil
}
