package session

import (
	"encoding/json"
	"time"
)

// Snapshot is a validated persisted session
type Snapshot struct {
	User       json.RawMessage `json:"user"`
	Username   string          `json:"username"`
	ExpiresAt  time.Time       `json:"expires_at"`
	RememberMe bool            `json:"remember_me"`
}

// Decode unmarshals the persisted user into v
func (s *Snapshot) Decode(v any) error {
	if s == nil || len(s.User) == 0 {
		return ErrSnapshotNotFound
	}
	return json.Unmarshal(s.User, v)
}

// IsExpired reports whether the snapshot has expired at the given time
func (s *Snapshot) IsExpired(now time.Time) bool {
	return s == nil || !s.ExpiresAt.After(now)
}
