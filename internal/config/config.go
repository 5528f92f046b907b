// Package config loads runtime settings from BRANCHTALE_* environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Transcript store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds the settings shared by the CLI, the HTTP server and the MCP server.
// Command-line flags take precedence over these values.
type Config struct {
	Story     string `env:"BRANCHTALE_STORY"`
	LogLevel  string `env:"BRANCHTALE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BRANCHTALE_LOG_FORMAT" envDefault:"text"`

	Addr        string        `env:"BRANCHTALE_ADDR" envDefault:":8080"`
	TurnTimeout time.Duration `env:"BRANCHTALE_TURN_TIMEOUT"`

	Store         string        `env:"BRANCHTALE_STORE" envDefault:"memory"`
	FileDir       string        `env:"BRANCHTALE_FILE_DIR" envDefault:".branchtale/transcripts"`
	RedisAddr     string        `env:"BRANCHTALE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"BRANCHTALE_REDIS_PASSWORD"`
	RedisDB       int           `env:"BRANCHTALE_REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"BRANCHTALE_REDIS_TTL"`
	SQLitePath    string        `env:"BRANCHTALE_SQLITE_PATH" envDefault:".branchtale/transcripts.db"`

	// EncryptionKey is a base64 AES-256 key. When set, transcripts are sealed at rest.
	EncryptionKey          string   `env:"BRANCHTALE_ENCRYPTION_KEY"`
	EncryptionFallbackKeys []string `env:"BRANCHTALE_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`
	// RedactPatterns mask matching player inputs before they are archived.
	RedactPatterns []string `env:"BRANCHTALE_REDACT_PATTERNS" envSeparator:","`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis or sqlite)", c.Store)
	}
	if c.TurnTimeout < 0 {
		return fmt.Errorf("turn timeout must not be negative")
	}
	if c.EncryptionKey == "" && len(c.EncryptionFallbackKeys) > 0 {
		return fmt.Errorf("fallback encryption keys need an active key")
	}
	if _, _, err := c.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the active and fallback encryption keys.
// active is nil when encryption is disabled.
func (c Config) Keys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key: %w", err)
	}
	for i, k := range c.EncryptionFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback encryption key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}
