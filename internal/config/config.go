package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/Prag-18/Reviva/pkg/config"
	"github.com/Prag-18/Reviva/pkg/database"
	"github.com/Prag-18/Reviva/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Events    pubsub.Config
	Presence  PresenceConfig
	History   HistoryConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	Algorithm     string        `mapstructure:"algorithm"`
	Issuer        string        `mapstructure:"issuer"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	LogLevel        string `mapstructure:"log_level"`
}

// Gorm converts the section into the shared database factory config.
func (d DatabaseConfig) Gorm() *database.Config {
	return &database.Config{
		Driver:          d.Driver,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		DBName:          d.DBName,
		SSLMode:         d.SSLMode,
		FilePath:        d.FilePath,
		MaxIdleConns:    d.MaxIdleConns,
		MaxOpenConns:    d.MaxOpenConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		LogLevel:        d.LogLevel,
	}
}

type RedisConfig struct {
	Enabled         bool
	Address         string
	Password        string
	DB              int
	UserCachePrefix string        `mapstructure:"user_cache_prefix"`
	UserCacheTTL    time.Duration `mapstructure:"user_cache_ttl"`
}

type PresenceConfig struct {
	// BroadcastMode is "every" (announce each connect/disconnect) or
	// "transition" (first connect / last disconnect only).
	BroadcastMode string `mapstructure:"broadcast_mode"`
}

type HistoryConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("auth.jwt_secret", "SECRET_KEY")
	v.BindEnv("auth.algorithm", "ALGORITHM")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("events.driver", "EVENTS_DRIVER")
	v.BindEnv("events.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Server.ShutdownTimeout = parseDuration(v, "server.shutdown_timeout", 30*time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Auth.TokenDuration = parseDuration(v, "auth.token_duration", 60*time.Minute)
	cfg.Redis.UserCacheTTL = parseDuration(v, "redis.user_cache_ttl", 5*time.Minute)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.token_duration", "60m")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "reviva")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.user_cache_prefix", "chat:user")
	v.SetDefault("redis.user_cache_ttl", "5m")

	ev := pubsub.DefaultConfig()
	v.SetDefault("events.driver", ev.Driver)
	v.SetDefault("events.redis.address", ev.Redis.Address)
	v.SetDefault("events.redis.pool_size", ev.Redis.PoolSize)
	v.SetDefault("events.redis.read_timeout", ev.Redis.ReadTimeout)
	v.SetDefault("events.redis.write_timeout", ev.Redis.WriteTimeout)
	v.SetDefault("events.kafka.brokers", ev.Kafka.Brokers)
	v.SetDefault("events.kafka.partitions", ev.Kafka.Partitions)

	v.SetDefault("presence.broadcast_mode", "every")
	v.SetDefault("history.default_limit", 50)
	v.SetDefault("history.max_limit", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
