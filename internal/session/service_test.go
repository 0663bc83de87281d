// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package session_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/session"
	"github.com/parkjiho/twinlook/internal/stubserver"
)

func newAuthEnv(t *testing.T) (*stubserver.Server, *session.Service) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	stub := stubserver.New(log)
	server := httptest.NewServer(stub.Router())
	t.Cleanup(func() {
		server.Close()
		stub.Close()
	})

	client, err := rest.New(server.URL, nil, log)
	require.NoError(t, err)

	return stub, session.NewService(client, session.GoogleSettings{
		ClientID:    "client-id-1",
		RedirectURI: "http://localhost:5173/auth/callback",
	})
}

/*
TestService_RegisterThenLogin runs the full email credential cycle.
*/
func TestService_RegisterThenLogin(t *testing.T) {
	_, auth := newAuthEnv(t)
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, "jiho@twinlook.app", "jiho", "hunter2hunter2"))

	token, user, err := auth.EmailLogin(ctx, "jiho@twinlook.app", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, user)
	assert.Equal(t, "jiho", user.Nickname)
}

/*
TestService_RegisterConflict surfaces the backend's duplicate message.
*/
func TestService_RegisterConflict(t *testing.T) {
	_, auth := newAuthEnv(t)
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, "jiho@twinlook.app", "jiho", "hunter2hunter2"))

	err := auth.Register(ctx, "jiho@twinlook.app", "other", "hunter2hunter2")
	require.Error(t, err)
	assert.Equal(t, "Email is already registered", apperr.UserMessage(err))
}

/*
TestService_LoginWrongPassword never reveals which credential was wrong.
*/
func TestService_LoginWrongPassword(t *testing.T) {
	stub, auth := newAuthEnv(t)
	ctx := context.Background()
	stub.SeedUser("jiho@twinlook.app", "jiho", "hunter2hunter2")

	_, _, err := auth.EmailLogin(ctx, "jiho@twinlook.app", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", apperr.UserMessage(err))
}

/*
TestService_LoginValidation rejects bad input before any network call.
*/
func TestService_LoginValidation(t *testing.T) {
	stub, auth := newAuthEnv(t)

	_, _, err := auth.EmailLogin(context.Background(), "not-an-email", "")
	require.Error(t, err)
	assert.Zero(t, stub.TotalCalls())
}

/*
TestService_GoogleAuthURL builds the consent URL with the login page's
parameters.
*/
func TestService_GoogleAuthURL(t *testing.T) {
	_, auth := newAuthEnv(t)

	assert.True(t, auth.GoogleConfigured())
	consentURL := auth.GoogleAuthURL()

	assert.True(t, strings.HasPrefix(consentURL, "https://accounts.google.com/o/oauth2/v2/auth"))
	assert.Contains(t, consentURL, "client_id=client-id-1")
	assert.Contains(t, consentURL, "access_type=offline")
	assert.Contains(t, consentURL, "prompt=select_account")
}

/*
TestService_GoogleLogin exchanges any non-empty code for a session at the
stub, landing on a stable pseudo-account.
*/
func TestService_GoogleLogin(t *testing.T) {
	_, auth := newAuthEnv(t)
	ctx := context.Background()

	token, user, err := auth.GoogleLogin(ctx, "consent-code-xyz")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, user)

	// The same code lands on the same account.
	_, again, err := auth.GoogleLogin(ctx, "consent-code-xyz")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}
