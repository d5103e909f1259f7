// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/beergame/internal/auth"
	"github.com/jason-s-yu/beergame/internal/cache"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port     string
	LogLevel logrus.Level

	TokenExpire     time.Duration
	TokenKeyPrivate string
	TokenKeyPublic  string

	// RedisAddr empty disables the round feed.
	RedisAddr string
	RedisDB   int
	QueueName string

	DatabaseURL       string
	BatchSize         int
	FlushDelay        time.Duration
	InactivityTimeout time.Duration
}

// Load reads every setting, applying defaults for unset variables.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		TokenKeyPrivate:   os.Getenv("TOKEN_KEY_PRIVATE"),
		TokenKeyPublic:    os.Getenv("TOKEN_KEY_PUBLIC"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		QueueName:         getEnv("HISTORIAN_QUEUE_NAME", cache.DefaultQueueName),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		BatchSize:         getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay:        time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		InactivityTimeout: time.Duration(getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.TokenExpire, err = auth.ParseExpireTime(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return cfg, fmt.Errorf("TOKEN_EXPIRE_TIME: %w", err)
	}

	if (cfg.TokenKeyPrivate == "") != (cfg.TokenKeyPublic == "") {
		return cfg, fmt.Errorf("TOKEN_KEY_PRIVATE and TOKEN_KEY_PUBLIC must be set together")
	}
	return cfg, nil
}

// Issuer builds the token issuer from the key files, or a fresh key pair when none are set.
func (c Config) Issuer() (*auth.Issuer, error) {
	if c.TokenKeyPrivate != "" {
		return auth.NewIssuerFromPath(c.TokenKeyPrivate, c.TokenKeyPublic, c.TokenExpire)
	}
	return auth.NewIssuer(c.TokenExpire)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
