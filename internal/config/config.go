// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime settings for the server. Values come from the
// environment (optionally loaded from a .env file) with sensible defaults.
type Config struct {
	ListenAddr  string // HTTP listen address, e.g. ":8080".
	DatabaseURL string // Postgres connection string; empty selects the in-memory store.
	RedisURL    string // Redis connection string; empty disables the audit trail.
	JWTSecret   string // HMAC secret for optional websocket identity tokens.
	LogLevel    string // logrus level name.

	RoomTTL          time.Duration // Age after which idle rooms are swept.
	SweepInterval    time.Duration // How often the registry sweep runs.
	ReconnectGrace   time.Duration // How long a disconnected session survives.
	MatchDuration    time.Duration // Fixed global match timer duration.
	DefaultTimeLimit int           // Per-item time limit in seconds when settings omit one.
	MaxPlayers       int           // Default room capacity.
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present but its absence is not an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded, using process environment")
	}

	return &Config{
		ListenAddr:  getEnv("WORDCLASH_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("WORDCLASH_JWT_SECRET", ""),
		LogLevel:    getEnv("WORDCLASH_LOG_LEVEL", "info"),

		RoomTTL:          getDuration("WORDCLASH_ROOM_TTL", time.Hour),
		SweepInterval:    getDuration("WORDCLASH_SWEEP_INTERVAL", 5*time.Minute),
		ReconnectGrace:   getDuration("WORDCLASH_RECONNECT_GRACE", 2*time.Minute),
		MatchDuration:    getDuration("WORDCLASH_MATCH_DURATION", 180*time.Second),
		DefaultTimeLimit: getInt("WORDCLASH_TIME_LIMIT", 45),
		MaxPlayers:       getInt("WORDCLASH_MAX_PLAYERS", 8),
	}
}

// ParseLogLevel converts the configured level name to a logrus level,
// defaulting to Info on unknown values.
func (c *Config) ParseLogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("invalid integer for %s: %q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.Warnf("invalid duration for %s: %q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
