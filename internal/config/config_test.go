package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ".branchtale/transcripts", cfg.FileDir)
	assert.Zero(t, cfg.TurnTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BRANCHTALE_STORE", " Redis ")
	t.Setenv("BRANCHTALE_REDIS_ADDR", "cache:6380")
	t.Setenv("BRANCHTALE_REDIS_DB", "2")
	t.Setenv("BRANCHTALE_REDIS_TTL", "24h")
	t.Setenv("BRANCHTALE_TURN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("BRANCHTALE_STORE", "postgres")
		_, err := Load()
		assert.ErrorContains(t, err, "unknown store")
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("BRANCHTALE_TURN_TIMEOUT", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "parse env")
	})
}

func TestLoad_Encryption(t *testing.T) {
	active := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("a", 32)))
	old := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("b", 32)))
	t.Setenv("BRANCHTALE_ENCRYPTION_KEY", active)
	t.Setenv("BRANCHTALE_ENCRYPTION_FALLBACK_KEYS", old)
	t.Setenv("BRANCHTALE_REDACT_PATTERNS", "@,^[0-9]+$")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"@", "^[0-9]+$"}, cfg.RedactPatterns)

	key, fallback, err := cfg.Keys()
	require.NoError(t, err)
	assert.Len(t, key, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte('b'), fallback[0][0])

	t.Run("short key", func(t *testing.T) {
		t.Setenv("BRANCHTALE_ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
		_, err := Load()
		assert.ErrorContains(t, err, "want 32 bytes")
	})

	t.Run("fallback without active", func(t *testing.T) {
		t.Setenv("BRANCHTALE_ENCRYPTION_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "need an active key")
	})
}
