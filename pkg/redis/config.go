package redis

import "time"

// Config holds the connection settings for the redis storage driver
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`    // "redis://:password@localhost:6379/0"
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"danmaku:webclient:"` // prepended to every storage key
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the defaults used when no environment is loaded
func DefaultConfig() Config {
	return Config{
		ConnectionURL:  "redis://localhost:6379/0",
		KeyPrefix:      "danmaku:webclient:",
		RetryAttempts:  3,
		RetryInterval:  2 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}
