// Package config loads the server configuration from the environment, the
// same surface the original deployment exposed (stage, store endpoint,
// listen port).
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the serve command needs to wire the store and
// the HTTP listener.
type Config struct {
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// KeyPrefix namespaces every record and index key, so several stages
	// can share one Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"setledger:"`

	Port     string `env:"PORT" envDefault:"8080"`
	Stage    string `env:"STAGE" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
