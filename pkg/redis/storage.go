package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage keeps session entries in redis under a common key prefix.
// It satisfies session.Storage and lets redis expire entries natively.
type Storage struct {
	db     redis.UniversalClient
	prefix string
}

// NewStorage wraps a connected client using the default key prefix
func NewStorage(client redis.UniversalClient) *Storage {
	return NewStorageWithConfig(client, DefaultConfig())
}

// NewStorageWithConfig wraps a connected client using cfg.KeyPrefix
func NewStorageWithConfig(client redis.UniversalClient, cfg Config) *Storage {
	return &Storage{
		db:     client,
		prefix: cfg.KeyPrefix,
	}
}

// Get returns nil for missing keys
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.db.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores the value. Zero ttl means no expiration.
func (s *Storage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.db.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Delete removes the keys in a single DEL
func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.db.Del(ctx, full...).Err()
}

// Ping reports whether the server answers, wrapping ErrHealthcheckFailed
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// Close terminates the redis connection
func (s *Storage) Close() error {
	return s.db.Close()
}

