package channel

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notisync/pkg/logger"
)

// PendingFetcher retrieves notifications that were created since the previous
// fetch. The server marks returned items as delivered, so successive calls
// never re-deliver the same notification. A session rejection must be
// reported as ErrUnauthorized (wrapped or bare).
type PendingFetcher interface {
	Pending(ctx context.Context, userID int64) ([]Event, error)
}

// PollConfig describes the polling channel. Fields are populated from
// environment variables via github.com/caarlos0/env.
type PollConfig struct {
	Interval   time.Duration `env:"NOTISYNC_POLL_INTERVAL" envDefault:"10s"` // Delay between pending-notification requests.
	BufferSize int           `env:"NOTISYNC_POLL_BUFFER" envDefault:"16"`    // Event buffer size of streams opened by the channel.
}

// PollChannel delivers notifications by periodically asking the server for
// pending items. Each tick is independent, so the channel heals itself after
// transient failures and needs no reconnect supervision. An unauthorized
// response is terminal: polling stops permanently for the identity.
type PollChannel struct {
	fetcher    PendingFetcher
	interval   time.Duration
	bufferSize int
	logger     *slog.Logger
}

// PollOption configures a PollChannel.
type PollOption func(*PollChannel)

// WithPollLogger sets the logger for the PollChannel.
func WithPollLogger(log *slog.Logger) PollOption {
	return func(c *PollChannel) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithPollInterval overrides the default 10s polling interval.
func WithPollInterval(interval time.Duration) PollOption {
	return func(c *PollChannel) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithPollBuffer sets the event buffer size of streams opened by this channel.
func WithPollBuffer(size int) PollOption {
	return func(c *PollChannel) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// NewPollChannel creates a polling channel on top of a pending-notifications
// fetcher, typically an api.Client.
func NewPollChannel(fetcher PendingFetcher, opts ...PollOption) *PollChannel {
	c := &PollChannel{
		fetcher:    fetcher,
		interval:   10 * time.Second,
		bufferSize: 16,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewPollChannelFromConfig creates a polling channel from an env-loaded
// configuration.
func NewPollChannelFromConfig(fetcher PendingFetcher, cfg PollConfig, opts ...PollOption) *PollChannel {
	return NewPollChannel(fetcher, append([]PollOption{
		WithPollInterval(cfg.Interval),
		WithPollBuffer(cfg.BufferSize),
	}, opts...)...)
}

// Kind returns KindPoll.
func (c *PollChannel) Kind() Kind {
	return KindPoll
}

// Open starts the polling loop and returns its stream. The first request is
// issued immediately; subsequent requests follow the configured interval.
func (c *PollChannel) Open(ctx context.Context, userID int64) (*Stream, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}

	stream := NewStream(c.bufferSize)
	go c.run(ctx, userID, stream)

	return stream, nil
}

func (c *PollChannel) run(ctx context.Context, userID int64, stream *Stream) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if done, err := c.poll(ctx, userID, stream); done {
			stream.Close(err)
			return
		}

		select {
		case <-ctx.Done():
			stream.Close(ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

// poll performs one fetch. It reports done=true when the stream must
// terminate, with the terminal cause.
func (c *PollChannel) poll(ctx context.Context, userID int64, stream *Stream) (bool, error) {
	events, err := c.fetcher.Pending(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.logger.LogAttrs(ctx, slog.LevelInfo, "Session ended, stopping notification polling",
				logger.UserID(userID),
				logger.ChannelKind(string(KindPoll)),
			)
			return true, ErrUnauthorized
		}
		if ctx.Err() != nil {
			return true, ctx.Err()
		}

		// Transient server or network failure: skip this tick, keep polling.
		c.logger.LogAttrs(ctx, slog.LevelWarn, "Polling tick failed",
			logger.UserID(userID),
			logger.ChannelKind(string(KindPoll)),
			logger.Error(err),
		)
		return false, nil
	}

	for _, ev := range events {
		if err := stream.Emit(ctx, ev); err != nil {
			return true, ctx.Err()
		}
	}

	return false, nil
}
