package session

import (
	"context"
	"time"
)

// Storage defines the durable key/value storage behind the persisted snapshot
type Storage interface {
	// Get returns the stored value, or nil without error when the key is missing
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value; a positive ttl lets the back-end expire it natively
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the keys; missing keys are not an error
	Delete(ctx context.Context, keys ...string) error
}

// Sealer protects the user entry at rest
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}
