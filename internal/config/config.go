// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, command-line flags, and the environment, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// jwtSecretEnv is the environment variable holding the token signing
// secret. Secrets never come from config files or flags.
const jwtSecretEnv = "DEBTWISE_JWT_SECRET"

// Server holds HTTP listener settings.
type Server struct {
	Addr            string        `koanf:"addr"`
	MetricsAddr     string        `koanf:"metrics_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	URL string `koanf:"url"`
}

// Auth holds token issuance settings. JWTSecret is populated from the
// environment, never from the file or flags.
type Auth struct {
	JWTSecret       string        `koanf:"-"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`
}

// Log holds logging settings.
type Log struct {
	Format string `koanf:"format"`
}

// Config is the full service configuration.
type Config struct {
	Server   Server   `koanf:"server"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	Log      Log      `koanf:"log"`
}

// Default returns the baseline configuration before any file, flag, or
// environment overrides.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			MetricsAddr:     "127.0.0.1:9100",
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: Auth{
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		Log: Log{
			Format: "json",
		},
	}
}

// Flags returns a flag set covering the overridable settings. The set is
// merged into the loaded configuration with the highest precedence.
func Flags() *pflag.FlagSet {
	defaults := Default()
	fs := pflag.NewFlagSet("debtwise", pflag.ContinueOnError)
	fs.String("server.addr", defaults.Server.Addr, "HTTP listen address")
	fs.String("server.metrics_addr", defaults.Server.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.Duration("server.shutdown_timeout", defaults.Server.ShutdownTimeout, "graceful shutdown timeout")
	fs.String("database.url", "", "PostgreSQL connection URL")
	fs.Duration("auth.refresh_token_ttl", defaults.Auth.RefreshTokenTTL, "refresh token lifetime")
	fs.String("log.format", defaults.Log.Format, "log format (json or text)")
	return fs
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then any flags changed on fs, then the signing secret
// from the environment.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defaults := Default()
	for key, value := range map[string]any{
		"server.addr":             defaults.Server.Addr,
		"server.metrics_addr":     defaults.Server.MetricsAddr,
		"server.shutdown_timeout": defaults.Server.ShutdownTimeout,
		"auth.refresh_token_ttl":  defaults.Auth.RefreshTokenTTL,
		"log.format":              defaults.Log.Format,
	} {
		if err := k.Set(key, value); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	cfg.Auth.JWTSecret = os.Getenv(jwtSecretEnv)

	return cfg, nil
}

// Validate checks that the configuration can run the service.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%s environment variable is required", jwtSecretEnv)
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth.refresh_token_ttl must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}
