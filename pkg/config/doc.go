// Package config provides a type-safe, generic and cached way to load
// configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
//
//   - Loads values from one or multiple `.env` files (falling back to the
//     default `.env` in the current working directory).
//   - Parses the environment into any Go struct using field tags.
//   - Caches each successfully loaded configuration type so it is only
//     parsed once for the lifetime of the process.
//   - Exposes MustLoad for configurations the process cannot start without.
//
// # Usage
//
//	type RedisConfig struct {
//	    ConnectionURL string `env:"NOTISYNC_REDIS_URL,required"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Subsequent calls to `config.Load(&cfg)` are served from the in-memory
// cache without re-parsing. Tests that mutate the environment can call
// ResetCache between loads.
package config
