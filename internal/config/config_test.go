package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)
	assert.EqualValues(t, 8192, cfg.WebSocket.MaxMessageSize)
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, 3*time.Second, cfg.Events.Redis.ReadTimeout)
	assert.Equal(t, "every", cfg.Presence.BroadcastMode)
	assert.Equal(t, 50, cfg.History.DefaultLimit)
	assert.Equal(t, 100, cfg.History.MaxLimit)
	assert.Equal(t, 5*time.Minute, cfg.Redis.UserCacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("PORT", "9100")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	v := viper.New()
	v.Set("websocket.pong_wait", "soon")

	cfg, err := load(v)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)
}

func TestDatabaseConfig_Gorm(t *testing.T) {
	d := DatabaseConfig{Driver: "sqlite", FilePath: "x.db", LogLevel: "silent"}
	g := d.Gorm()
	assert.Equal(t, "sqlite", g.Driver)
	assert.Equal(t, "x.db", g.FilePath)
	assert.Equal(t, "silent", g.LogLevel)
}
