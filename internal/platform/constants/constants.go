// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package constants provides centralized, immutable values for the entire client.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between the feature modules, the shell, and the backend stub.

Categories:

  - Shell Timing: cosmetic durations for the terminal UI.
  - Stub Timing: Read/Write/Idle timeouts for the stub HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs (stub side).
  - Security: JWT issuer and password policy.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "twinlook"
	AppVersion = "0.1.0-dev"
)

// # Shell Timing

const (
	// SpinnerFloor is the minimum time the "searching" notice stays visible
	// after an upload completes. Purely cosmetic; matches the original
	// client's fixed two-second overlay.
	SpinnerFloor = 2 * time.Second
)

// # Security

const (
	// AuthIssuer is the standard 'iss' claim in stub-issued JWTs.
	AuthIssuer = "twinlook.app"

	// SessionTokenTTL is how long a stub-issued session token stays valid.
	SessionTokenTTL = 24 * time.Hour

	// PasswordMinLength is the minimum accepted password length at registration.
	PasswordMinLength = 8
)

// # Stub Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting (stub)

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)
