package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notisync/pkg/config"
)

type pollTestConfig struct {
	Interval time.Duration `env:"TEST_POLL_INTERVAL" envDefault:"10s"`
	Buffer   int           `env:"TEST_POLL_BUFFER" envDefault:"16"`
}

type apiTestConfig struct {
	BaseURL string        `env:"TEST_API_URL" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"TEST_API_TIMEOUT" envDefault:"15s"`
}

type cachedTestConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"initial"`
}

type requiredTestConfig struct {
	Required string `env:"TEST_REQUIRED_VALUE,required"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("TEST_POLL_INTERVAL", "3s")
	t.Setenv("TEST_POLL_BUFFER", "32")

	var cfg pollTestConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.Equal(t, 32, cfg.Buffer)
}

func TestLoad_Defaults(t *testing.T) {
	var cfg apiTestConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *pollTestConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoad_RequiredMissing(t *testing.T) {
	var cfg requiredTestConfig
	assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("TEST_CACHED_VALUE", "first")

	var first cachedTestConfig
	require.NoError(t, config.Load(&first))
	require.Equal(t, "first", first.Value)

	// A later environment change is invisible until the cache is reset.
	t.Setenv("TEST_CACHED_VALUE", "second")

	var second cachedTestConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.ResetCache()

	var third cachedTestConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestMustLoad_PanicsOnFailure(t *testing.T) {
	config.ResetCache()
	assert.Panics(t, func() {
		var cfg requiredTestConfig
		config.MustLoad(&cfg)
	})
}
