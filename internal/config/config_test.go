// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "TOKEN_EXPIRE_TIME", "TOKEN_KEY_PRIVATE", "TOKEN_KEY_PUBLIC",
		"REDIS_ADDR", "REDIS_DB", "HISTORIAN_QUEUE_NAME", "DATABASE_URL",
		"HISTORIAN_BATCH_SIZE", "HISTORIAN_FLUSH_MS", "GAME_INACTIVITY_TIMEOUT_SEC",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Zero(t, cfg.TokenExpire)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "beergame_rounds", cfg.QueueName)
	assert.Equal(t, 20, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.FlushDelay)
	assert.Equal(t, 10*time.Minute, cfg.InactivityTimeout)

	issuer, err := cfg.Issuer()
	require.NoError(t, err)
	assert.NotNil(t, issuer)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOKEN_EXPIRE_TIME", "2h")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("HISTORIAN_BATCH_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpire)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 20, cfg.BatchSize, "unparsable ints fall back to the default")
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("TOKEN_EXPIRE_TIME", "forever")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("TOKEN_KEY_PRIVATE", "/tmp/key")
	_, err = Load()
	assert.Error(t, err)
}
