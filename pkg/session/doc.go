// Package session persists the client's "remembered session": a snapshot of
// the authenticated user plus an expiry timestamp, kept in durable key/value
// storage so that it survives process restarts.
//
// Two fixed, versionless entries are written: UserKey holds the user as JSON
// and ExpiryKey holds an ISO-8601 UTC timestamp. Validation happens when the
// snapshot is loaded, never when it is saved: an expired, truncated or
// tampered snapshot is deleted and reported as absent instead of being
// repaired.
//
// # Architecture
//
//	┌─────────────┐  Save / Load / Clear  ┌─────────┐
//	│ auth.Store  │ ────────────────────► │ Persist │
//	└─────────────┘                       └─────────┘
//	                                           │ Get / Set / Delete
//	                                           ▼
//	                         ┌────────────────────────────────┐
//	                         │ Storage (memory, file, redis)  │
//	                         └────────────────────────────────┘
//
// An optional Sealer encrypts the user entry at rest (see pkg/secrets).
//
// # Usage
//
//	store, _ := session.NewFileStorage(dir)
//	p := session.New(store)
//
//	_ = p.Save(ctx, user, rememberMe)
//
//	snap, err := p.Load(ctx)
//	if err != nil {
//	    // absent: not found, expired, invalid or storage unavailable
//	}
//
//	p.Clear(ctx)
//
// # Error Handling
//
//   - ErrSnapshotNotFound    – no expiry entry
//   - ErrSnapshotExpired     – expiry in the past (entries deleted)
//   - ErrSnapshotInvalid     – user entry missing, malformed or without username (entries deleted)
//   - ErrStorageUnavailable  – the storage back-end failed; nothing was deleted
package session
