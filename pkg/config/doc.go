// Package config loads configuration structs from environment variables.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for struct parsing via `env` and `envDefault`
// field tags.
//
// Load parses each configuration type once per process and serves later calls
// from a cache; ResetCache clears it in tests. Parse skips the cache and
// accepts a variable prefix, which the CLI uses after LoadEnv has applied an
// optional --env-file:
//
//	if err := config.LoadEnv(envFile); err != nil {
//	    return err
//	}
//	cfg, err := config.Parse[webclient.Config]("")
//
// All errors wrap one of the sentinels in errors.go and can be checked with
// errors.Is.
package config
