// Package config loads typed configuration from environment variables.
//
// It combines github.com/joho/godotenv for .env files with
// github.com/caarlos0/env/v11 for struct parsing. Each configuration type is
// parsed once per process and cached by type, so packages can call Load for
// the same struct without repeating the work:
//
//	type Config struct {
//		Delivery delivery.Config
//		Queue    queue.Config
//		Email    email.Config
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Nested structs are parsed with their own env tags, so the package configs
// compose without prefixes.
//
// LoadEnv reads explicit .env files (later files win) before the first Load.
// ResetCache and ForceReload exist for tests that change the environment.
//
// Errors are sentinels usable with errors.Is: ErrParsingConfig,
// ErrLoadingEnvFile and ErrNilPointer.
package config
