// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

// Command twinlook is the interactive terminal client.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Build the REST client against the backend URL.
//  4. Wire the session store, feature services, and the shell.
//  5. Run the shell until quit or EOF.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/parkjiho/twinlook/internal/contests"
	"github.com/parkjiho/twinlook/internal/friends"
	"github.com/parkjiho/twinlook/internal/lookalike"
	"github.com/parkjiho/twinlook/internal/notifications"
	"github.com/parkjiho/twinlook/internal/platform/config"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/profile"
	"github.com/parkjiho/twinlook/internal/session"
	"github.com/parkjiho/twinlook/internal/shell"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Log to stderr so the shell's own output stays clean on stdout.
	rawLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", "twinlook"))
	slog.SetDefault(log)

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "twinlook"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("backend_url", cfg.BackendURL),
	)

	// ── 3. Session & REST Client ──────────────────────────────────────────
	sessions := session.NewStore(cfg.TokenPath)

	client, err := rest.New(cfg.BackendURL, sessions, log)
	must(log, err, "build rest client")

	// ── 4. Domain Wiring ──────────────────────────────────────────────────
	authService := session.NewService(client, session.GoogleSettings{
		ClientID:    cfg.GoogleClientID,
		RedirectURI: cfg.GoogleRedirectURI,
	})
	friendsService := friends.NewService(client, sessions, log)

	terminal := shell.New(shell.Deps{
		Sessions:      sessions,
		Auth:          authService,
		Profiles:      profile.NewLoader(client),
		Pipeline:      lookalike.NewPipeline(client, log),
		Friends:       friendsService,
		Contests:      contests.NewService(client, log),
		Notifications: notifications.NewService(client, friendsService, log),
		Log:           log,
	}, os.Stdin, os.Stdout)

	// ── 5. Run ────────────────────────────────────────────────────────────
	must(log, terminal.Run(context.Background()), "run shell")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
