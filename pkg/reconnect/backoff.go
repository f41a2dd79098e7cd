package reconnect

import (
	"math"
	"math/rand"
	"time"
)

// Config describes the reconnect backoff. Fields are populated from
// environment variables via github.com/caarlos0/env.
type Config struct {
	InitialInterval time.Duration `env:"NOTISYNC_BACKOFF_INITIAL_INTERVAL" envDefault:"1s"` // Delay before the first retry.
	MaxInterval     time.Duration `env:"NOTISYNC_BACKOFF_MAX_INTERVAL" envDefault:"30s"`    // Upper bound for the delay.
	Multiplier      float64       `env:"NOTISYNC_BACKOFF_MULTIPLIER" envDefault:"2"`        // Growth factor per attempt.
	JitterFactor    float64       `env:"NOTISYNC_BACKOFF_JITTER" envDefault:"0.1"`          // Random spread applied to each delay, 0..1.
}

// Strategy builds the exponential backoff described by the configuration.
func (c Config) Strategy() BackoffStrategy {
	return ExponentialBackoff{
		InitialInterval: c.InitialInterval,
		MaxInterval:     c.MaxInterval,
		Multiplier:      c.Multiplier,
		JitterFactor:    c.JitterFactor,
	}
}

// BackoffStrategy defines the interface for calculating reconnect delays.
// Implementations should be safe for concurrent use.
type BackoffStrategy interface {
	// NextInterval returns the next backoff duration based on the attempt
	// number. Attempt starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter. Jitter
// prevents thundering herd when many clients reconnect simultaneously after
// a server restart.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval calculates exponential backoff with jitter.
// Formula: min(InitialInterval * (Multiplier ^ (attempt-1)) * (1 ± JitterFactor), MaxInterval)
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}

	max := e.MaxInterval
	if max == 0 {
		max = 30 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	// Zero jitter is intentionally allowed for deterministic behavior.
	jitter := e.JitterFactor

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	if jitter > 0 {
		randomJitter := (rand.Float64()*2 - 1) * jitter
		interval = interval * (1 + randomJitter)
	}

	if interval > float64(max) {
		interval = float64(max)
	}

	return time.Duration(interval)
}

// FixedBackoff implements a constant delay between reconnect attempts. It is
// kept as an explicit strategy but is not the default because coordinated
// clients retry in lockstep with it.
type FixedBackoff struct {
	// Interval is the fixed delay between retries.
	Interval time.Duration
}

// NextInterval always returns the same interval regardless of attempt number.
func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// DefaultBackoffStrategy returns capped exponential backoff with jitter,
// tuned for reconnecting a per-user push subscription.
func DefaultBackoffStrategy() BackoffStrategy {
	return ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.1,
	}
}
