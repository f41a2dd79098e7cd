package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notisync/pkg/logger"
)

const defaultTopicPrefix = "notifications:user:"

// PushConfig describes the push channel. Fields are populated from
// environment variables via github.com/caarlos0/env.
type PushConfig struct {
	TopicPrefix string `env:"NOTISYNC_PUSH_TOPIC_PREFIX" envDefault:"notifications:user:"` // Per-user topic prefix; the user id is appended to form the full topic.
	BufferSize  int    `env:"NOTISYNC_PUSH_BUFFER" envDefault:"16"`                        // Event buffer size of streams opened by the channel.
}

// PushChannel delivers notifications over a persistent Redis pub/sub
// subscription to a per-user topic. Each inbound payload decodes to exactly
// one Event; payloads that fail the decode are logged and dropped without
// terminating the subscription.
type PushChannel struct {
	rdb         redis.UniversalClient
	topicPrefix string
	bufferSize  int
	logger      *slog.Logger
}

// PushOption configures a PushChannel.
type PushOption func(*PushChannel)

// WithPushLogger sets the logger for the PushChannel.
func WithPushLogger(log *slog.Logger) PushOption {
	return func(c *PushChannel) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithTopicPrefix overrides the per-user topic prefix. The user id is
// appended to form the full topic name.
func WithTopicPrefix(prefix string) PushOption {
	return func(c *PushChannel) {
		if prefix != "" {
			c.topicPrefix = prefix
		}
	}
}

// WithPushBuffer sets the event buffer size of streams opened by this channel.
func WithPushBuffer(size int) PushOption {
	return func(c *PushChannel) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// NewPushChannel creates a push channel on top of an established Redis client.
func NewPushChannel(rdb redis.UniversalClient, opts ...PushOption) *PushChannel {
	c := &PushChannel{
		rdb:         rdb,
		topicPrefix: defaultTopicPrefix,
		bufferSize:  16,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewPushChannelFromConfig creates a push channel from an env-loaded
// configuration.
func NewPushChannelFromConfig(rdb redis.UniversalClient, cfg PushConfig, opts ...PushOption) *PushChannel {
	return NewPushChannel(rdb, append([]PushOption{
		WithTopicPrefix(cfg.TopicPrefix),
		WithPushBuffer(cfg.BufferSize),
	}, opts...)...)
}

// Kind returns KindPush.
func (c *PushChannel) Kind() Kind {
	return KindPush
}

// Topic returns the pub/sub topic for the given user.
func (c *PushChannel) Topic(userID int64) string {
	return fmt.Sprintf("%s%d", c.topicPrefix, userID)
}

// Open subscribes to the user's topic and returns a live stream. The
// subscription is only considered established once the server acknowledged
// it; a failure before that point is reported as ErrConnectionLost so the
// supervisor can retry. Cancelling ctx tears the subscription down and
// terminates the stream with the context error.
func (c *PushChannel) Open(ctx context.Context, userID int64) (*Stream, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}

	topic := c.Topic(userID)
	pubsub := c.rdb.Subscribe(ctx, topic)

	// Receive blocks until the subscription is acknowledged, so a returned
	// stream is known to be live.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Join(ErrConnectionLost, err)
	}

	stream := NewStream(c.bufferSize)
	done := make(chan struct{})

	// Closing the pub/sub is the only reliable way to unblock a pending
	// receive on cancellation. The watchdog exits with the consume loop, so
	// reconnect cycles do not accumulate goroutines.
	go func() {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(done)
		defer pubsub.Close()
		c.consume(ctx, userID, pubsub, stream)
	}()

	return stream, nil
}

// consume receives messages one at a time so that transport failures surface
// here instead of being retried inside the redis client. A receive error is
// terminal for the stream; reconnecting is the supervisor's job, which must
// observe the drop to resynchronize the unread counter afterwards.
func (c *PushChannel) consume(ctx context.Context, userID int64, pubsub *redis.PubSub, stream *Stream) {
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				stream.Close(ctx.Err())
				return
			}
			stream.Close(errors.Join(ErrConnectionLost, err))
			return
		}

		ev, err := DecodeEvent([]byte(msg.Payload))
		if err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping malformed push payload",
				logger.UserID(userID),
				logger.ChannelKind(string(KindPush)),
				logger.Error(err),
			)
			continue
		}

		if err := stream.Emit(ctx, ev); err != nil {
			stream.Close(ctx.Err())
			return
		}
	}
}
