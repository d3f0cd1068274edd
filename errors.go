package webclient

import "errors"

var (
	// ErrInvalidConfig indicates a configuration that cannot produce a client
	ErrInvalidConfig = errors.New("webclient.invalid_config")

	// ErrUnknownStorageDriver indicates a StorageDriver other than memory, file or redis
	ErrUnknownStorageDriver = errors.New("webclient.unknown_storage_driver")

	// ErrStorageInit indicates that the configured storage could not be opened
	ErrStorageInit = errors.New("webclient.storage_init_failed")
)
