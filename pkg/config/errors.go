package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct
	ErrParsingConfig = errors.New("config.parse_failed")

	// ErrLoadingEnvFile is returned when an explicitly requested .env file cannot be read
	ErrLoadingEnvFile = errors.New("config.env_file_failed")

	// ErrConfigNotLoaded is returned when a config value is missing from the cache after loading
	ErrConfigNotLoaded = errors.New("config.not_loaded")

	// ErrNilPointer is returned when a nil pointer is provided to Load
	ErrNilPointer = errors.New("config.nil_pointer")
)
