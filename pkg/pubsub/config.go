package pubsub

import (
	"fmt"
	"time"
)

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	Partitions int    `mapstructure:"partitions"`
}

// Config holds the configuration for the event bus.
type Config struct {
	Driver string      `mapstructure:"driver"` // "none", "redis", "kafka"
	Redis  RedisConfig `mapstructure:"redis"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Driver: "none",
		Redis: RedisConfig{
			Address:      "localhost:6379",
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    "localhost:9092",
			Partitions: 4,
		},
	}
}

// NewPublisher creates a Publisher based on the configuration.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return NopPublisher{}, nil
	case "redis":
		return NewRedisPublisher(cfg.Redis)
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka)
	default:
		return nil, fmt.Errorf("unsupported event bus driver: %s", cfg.Driver)
	}
}
