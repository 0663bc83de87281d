// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package session implements the client's session lifecycle.

It handles the single piece of durable client-side state — the opaque
bearer token — and the login flows that obtain one (email/password,
registration, Google authorization code).

Architecture:

  - Store: owns the token in memory and in one file on disk. A present
    token means the client considers the user authenticated; validity is
    delegated to the backend on every call.
  - Service: the authentication API surface (login, register, Google).

The store never inspects the token. Expiry and revocation are only
discovered when a later API call fails, and that failure is surfaced as a
generic notice, never a forced logout.
*/
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists the bearer token under a fixed path and serves it to the
// REST client. It implements [rest.TokenSource].
//
// # Concurrency
//
// The file is touched at most once per login, logout, or startup, so a
// single mutex is plenty.
type Store struct {
	path string

	mu    sync.Mutex
	token string
}

// NewStore constructs a [Store] rooted at the given token file path.
// No disk access happens until [Store.Restore] or [Store.Login].
func NewStore(path string) *Store {
	return &Store{path: path}
}

/*
Restore reads the persisted token at startup.

Description: A missing or unreadable file simply means no session — it is
not an error, mirroring an empty localStorage on first visit.

Returns:
  - string: The restored token, or "".
  - bool: Whether a token was found.
*/
func (store *Store) Restore() (string, bool) {
	payload, err := os.ReadFile(store.path)
	if err != nil {
		return "", false
	}

	token := strings.TrimSpace(string(payload))
	if token == "" {
		return "", false
	}

	store.mu.Lock()
	store.token = token
	store.mu.Unlock()
	return token, true
}

/*
Login persists the token and marks the session authenticated.

Parameters:
  - token: The opaque bearer credential issued by the backend.

Returns:
  - err: Filesystem failures only; the session is still usable in memory
    if persistence fails, but the next start will not restore it.
*/
func (store *Store) Login(token string) error {
	store.mu.Lock()
	store.token = token
	store.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return fmt.Errorf("session_store_mkdir_failed: %w", err)
	}
	// 0600: the token is a credential.
	if err := os.WriteFile(store.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("session_store_persist_failed: %w", err)
	}
	return nil
}

/*
Logout clears the persisted token and marks the session unauthenticated.

Description: Purely local — no network call is made and the backend token
stays valid server-side (server-side invalidation is out of scope).

Returns:
  - err: Filesystem failures; a missing file counts as success (idempotent).
*/
func (store *Store) Logout() error {
	store.mu.Lock()
	store.token = ""
	store.mu.Unlock()

	if err := os.Remove(store.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session_store_clear_failed: %w", err)
	}
	return nil
}

// Token returns the current bearer token, or "" when unauthenticated.
func (store *Store) Token() string {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.token
}

// Authenticated reports whether a token is present. Presence is the whole
// test: the client never validates signature or expiry itself.
func (store *Store) Authenticated() bool {
	return store.Token() != ""
}
