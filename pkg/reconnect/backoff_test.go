package reconnect_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notisync/pkg/reconnect"
)

func TestExponentialBackoff_NextInterval(t *testing.T) {
	t.Parallel()

	b := reconnect.ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2,
	}

	assert.Equal(t, time.Duration(0), b.NextInterval(0))
	assert.Equal(t, time.Second, b.NextInterval(1))
	assert.Equal(t, 2*time.Second, b.NextInterval(2))
	assert.Equal(t, 4*time.Second, b.NextInterval(3))
	assert.Equal(t, 10*time.Second, b.NextInterval(10), "capped at MaxInterval")
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	t.Parallel()

	b := reconnect.ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
		Multiplier:      2,
		JitterFactor:    0.2,
	}

	for i := 0; i < 100; i++ {
		d := b.NextInterval(3)
		assert.GreaterOrEqual(t, d, time.Duration(float64(4*time.Second)*0.8))
		assert.LessOrEqual(t, d, time.Duration(float64(4*time.Second)*1.2))
	}
}

func TestExponentialBackoff_Defaults(t *testing.T) {
	t.Parallel()

	var b reconnect.ExponentialBackoff
	assert.Equal(t, time.Second, b.NextInterval(1))
	assert.Equal(t, 30*time.Second, b.NextInterval(20), "default cap")
}

func TestConfig_Strategy(t *testing.T) {
	t.Parallel()

	b := reconnect.Config{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     4 * time.Second,
		Multiplier:      2,
	}.Strategy()

	assert.Equal(t, 500*time.Millisecond, b.NextInterval(1))
	assert.Equal(t, time.Second, b.NextInterval(2))
	assert.Equal(t, 4*time.Second, b.NextInterval(8), "capped at the configured maximum")
}

func TestFixedBackoff_NextInterval(t *testing.T) {
	t.Parallel()

	b := reconnect.FixedBackoff{Interval: 5 * time.Second}

	assert.Equal(t, time.Duration(0), b.NextInterval(0))
	assert.Equal(t, 5*time.Second, b.NextInterval(1))
	assert.Equal(t, 5*time.Second, b.NextInterval(9))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "disconnected", reconnect.StateDisconnected.String())
	assert.Equal(t, "connecting", reconnect.StateConnecting.String())
	assert.Equal(t, "connected", reconnect.StateConnected.String())
	assert.Equal(t, "backoff", reconnect.StateBackoff.String())
}
