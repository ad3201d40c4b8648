// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, time.Hour, cfg.RoomTTL)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 2*time.Minute, cfg.ReconnectGrace)
	assert.Equal(t, 180*time.Second, cfg.MatchDuration)
	assert.Equal(t, 45, cfg.DefaultTimeLimit)
	assert.Equal(t, 8, cfg.MaxPlayers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORDCLASH_ADDR", ":9090")
	t.Setenv("WORDCLASH_ROOM_TTL", "30m")
	t.Setenv("WORDCLASH_TIME_LIMIT", "60")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 30*time.Minute, cfg.RoomTTL)
	assert.Equal(t, 60, cfg.DefaultTimeLimit)
}

func TestLoadIgnoresBadValues(t *testing.T) {
	t.Setenv("WORDCLASH_ROOM_TTL", "soon")
	t.Setenv("WORDCLASH_MAX_PLAYERS", "many")

	cfg := Load()
	assert.Equal(t, time.Hour, cfg.RoomTTL)
	assert.Equal(t, 8, cfg.MaxPlayers)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, (&Config{LogLevel: "debug"}).ParseLogLevel())
	assert.Equal(t, logrus.InfoLevel, (&Config{LogLevel: "nonsense"}).ParseLogLevel())
}
