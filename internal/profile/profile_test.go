// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package profile_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/profile"
	"github.com/parkjiho/twinlook/internal/stubserver"
)

type tokenBox struct{ token string }

func (box *tokenBox) Token() string { return box.token }

/*
TestLoader_Load fetches the session user's profile through the stub.
*/
func TestLoader_Load(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	stub := stubserver.New(log)
	server := httptest.NewServer(stub.Router())
	t.Cleanup(func() {
		server.Close()
		stub.Close()
	})

	userID := stub.SeedUser("jiho@twinlook.app", "jiho", "hunter2hunter2")
	box := &tokenBox{token: stub.TokenFor(userID)}

	client, err := rest.New(server.URL, box, log)
	require.NoError(t, err)

	loaded, err := profile.NewLoader(client).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, userID, loaded.ID)
	assert.Equal(t, "jiho", loaded.Nickname)
	assert.Equal(t, "jiho@twinlook.app", loaded.Email)
}

/*
TestLoader_Unauthenticated surfaces the backend's 401 as an AppError.
*/
func TestLoader_Unauthenticated(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	stub := stubserver.New(log)
	server := httptest.NewServer(stub.Router())
	t.Cleanup(func() {
		server.Close()
		stub.Close()
	})

	client, err := rest.New(server.URL, nil, log)
	require.NoError(t, err)

	_, err = profile.NewLoader(client).Load(context.Background())
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}
