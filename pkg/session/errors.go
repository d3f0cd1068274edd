package session

import "errors"

var (
	// ErrSnapshotNotFound indicates that no snapshot has been persisted
	ErrSnapshotNotFound = errors.New("session.snapshot_not_found")

	// ErrSnapshotExpired indicates that the persisted snapshot passed its expiry
	ErrSnapshotExpired = errors.New("session.snapshot_expired")

	// ErrSnapshotInvalid indicates a missing, malformed or anonymous user entry
	ErrSnapshotInvalid = errors.New("session.snapshot_invalid")

	// ErrStorageUnavailable indicates that the storage back-end failed
	ErrStorageUnavailable = errors.New("session.storage_unavailable")

	// ErrEncodeUser indicates that the user could not be serialized
	ErrEncodeUser = errors.New("session.encode_user_failed")

	// ErrInvalidKey indicates a storage key that cannot be used as a file name
	ErrInvalidKey = errors.New("session.invalid_key")
)
