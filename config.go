package webclient

import (
	"os"
	"path/filepath"
	"time"

	"github.com/danmaku-system/webclient/pkg/logger"
	"github.com/danmaku-system/webclient/pkg/redis"
	"github.com/danmaku-system/webclient/pkg/session"
)

// Storage drivers for the remembered session and cookies
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Config is the client configuration, read from the environment by LoadConfig
type Config struct {
	BaseURL          string        `env:"DANMAKU_BASE_URL" envDefault:"http://localhost:8000"`
	AccountsPath     string        `env:"DANMAKU_ACCOUNTS_PATH" envDefault:"/api/accounts/"`
	RequestTimeout   time.Duration `env:"DANMAKU_REQUEST_TIMEOUT" envDefault:"30s"`
	HandshakeTimeout time.Duration `env:"DANMAKU_HANDSHAKE_TIMEOUT" envDefault:"5s"`
	FetchTimeout     time.Duration `env:"DANMAKU_FETCH_TIMEOUT" envDefault:"5s"`
	UserAgent        string        `env:"DANMAKU_USER_AGENT" envDefault:"danmaku-webclient/1.0"`

	StorageDriver string `env:"DANMAKU_STORAGE" envDefault:"file"`
	StorageDir    string `env:"DANMAKU_STORAGE_DIR"` // defaults to <user config dir>/danmaku
	// sweep interval of the memory driver; zero disables the sweeper
	MemoryCleanup time.Duration `env:"DANMAKU_MEMORY_CLEANUP" envDefault:"1m"`

	// hex encoded, 32 bytes each; both set enables sealing of the stored user
	SealKey   string `env:"DANMAKU_SEAL_KEY"`
	DeviceKey string `env:"DANMAKU_DEVICE_KEY"`

	Session session.Config
	Redis   redis.Config
	Log     logger.Config
}

// DefaultConfig mirrors the envDefault tags
func DefaultConfig() Config {
	return Config{
		BaseURL:          "http://localhost:8000",
		AccountsPath:     "/api/accounts/",
		RequestTimeout:   30 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		FetchTimeout:     5 * time.Second,
		UserAgent:        "danmaku-webclient/1.0",
		StorageDriver:    StorageFile,
		MemoryCleanup:    time.Minute,
		Session:          session.DefaultConfig(),
		Redis:            redis.DefaultConfig(),
		Log: logger.Config{
			Level:  "info",
			Format: string(logger.FormatText),
			Env:    string(logger.Development),
		},
	}
}

func (c Config) storageDir() (string, error) {
	if c.StorageDir != "" {
		return c.StorageDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "danmaku"), nil
}
