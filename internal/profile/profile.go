// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package profile loads the authenticated user's profile.

The profile is never persisted client-side: it is refetched once per token
change (login or restore) and replaced wholesale on every successful fetch.
A failed fetch leaves the previous profile untouched; the shell only logs
the failure, which is a known presentation gap carried over deliberately.
*/
package profile

import (
	"context"

	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/platform/validate"
)

// Profile is the client's view of the current account.
type Profile struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Nickname  string  `json:"nickname"`
	AvatarURL *string `json:"profile_image_url"`
}

// profileEnvelope is the wire shape of GET /api/profile.
type profileEnvelope struct {
	User *Profile `json:"user"`
}

// Loader fetches profiles over the authenticated REST client.
type Loader struct {
	client *rest.Client
}

// NewLoader constructs a [Loader].
func NewLoader(client *rest.Client) *Loader {
	return &Loader{client: client}
}

/*
Load fetches the current user's profile.

Description: One authenticated GET per token change — the loader is never
polled. The returned profile replaces the caller's state atomically; on
error the caller must keep its previous state.

Parameters:
  - ctx: context.Context

Returns:
  - *Profile: The fetched profile with the avatar URL resolved to absolute
  - err: Transport, server-reported, or response-schema failures
*/
func (loader *Loader) Load(ctx context.Context) (*Profile, error) {
	var envelope profileEnvelope
	if err := loader.client.Get(ctx, "/api/profile", nil, &envelope); err != nil {
		return nil, err
	}

	v := &validate.Validator{}
	v.Custom("user", envelope.User == nil, "Missing user object")
	if envelope.User != nil {
		v.Positive("user.id", envelope.User.ID)
		v.Required("user.nickname", envelope.User.Nickname)
	}
	if err := v.Response("profile"); err != nil {
		return nil, err
	}

	if envelope.User.AvatarURL != nil && *envelope.User.AvatarURL != "" {
		resolved := loader.client.Resolve(*envelope.User.AvatarURL)
		envelope.User.AvatarURL = &resolved
	}
	return envelope.User, nil
}
