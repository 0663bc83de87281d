// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (REST client, shell) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This keeps the client Twelve-Factor compliant even though it is a terminal
application rather than a server.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Twinlook client.
type Config struct {

	// BackendURL is the base URL of the look-alike backend service.
	// Every API path and every relative image path is resolved against it.
	BackendURL string `env:"BACKEND_URL,required"`

	// TokenPath is where the single persisted bearer token lives.
	// It is the durable-storage analog of the browser's one localStorage key.
	TokenPath string `env:"TOKEN_PATH"`

	// Google OAuth settings for the authorization-code login flow.
	// The client only builds the consent URL; the backend exchanges the code.
	GoogleClientID    string `env:"GOOGLE_CLIENT_ID"`
	GoogleRedirectURI string `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:5173/auth/callback"`

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`
}

// StubConfig holds runtime configuration for the backend stub daemon.
type StubConfig struct {
	Port        string `env:"STUB_PORT"   envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.TokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: failed to resolve home directory: %w", err)
		}
		cfg.TokenPath = filepath.Join(home, ".twinlook", "token")
	}

	return cfg, nil
}

// LoadStub parses environment variables into a [StubConfig] struct.
func LoadStub() (*StubConfig, error) {
	cfg := &StubConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return cfg, nil
}

// IsDevelopment reports whether the client is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsDevelopment reports whether the stub is running in development mode.
func (c *StubConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
