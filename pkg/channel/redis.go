package channel

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the connection used by the push channel. Fields are
// populated from environment variables via github.com/caarlos0/env.
type RedisConfig struct {
	ConnectionURL  string        `env:"NOTISYNC_REDIS_URL" envDefault:"redis://localhost:6379/0"` // Format "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"NOTISYNC_REDIS_RETRY_ATTEMPTS" envDefault:"3"`                      // Number of connection attempts before giving up.
	RetryInterval  time.Duration `env:"NOTISYNC_REDIS_RETRY_INTERVAL" envDefault:"5s"`                     // Delay between connection attempts.
	ConnectTimeout time.Duration `env:"NOTISYNC_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                   // Overall deadline for establishing the connection.
}

var (
	// ErrInvalidRedisURL is returned when the connection URL cannot be parsed.
	ErrInvalidRedisURL = errors.New("channel: invalid redis connection url")

	// ErrRedisNotReady is returned when the server did not become reachable
	// within the configured attempts.
	ErrRedisNotReady = errors.New("channel: redis did not become ready")
)

// ConnectRedis establishes the Redis connection backing a PushChannel,
// retrying per the configuration before giving up.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisURL, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	for i := 0; i < attempts; i++ {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}
