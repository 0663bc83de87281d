// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package session

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/parkjiho/twinlook/internal/platform/constants"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/platform/validate"
)

// googleEndpoint is Google's OAuth 2.0 authorization endpoint pair. Only
// AuthURL is ever used: the code exchange happens on the backend.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// User is the account payload returned alongside a fresh token.
type User struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Nickname  string  `json:"nickname"`
	AvatarURL *string `json:"profile_image_url"`
	IsOnline  bool    `json:"is_online"`
}

// loginResponse is the wire shape of every login endpoint.
type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Service implements the authentication flows against the backend.
type Service struct {
	client *rest.Client
	google oauth2.Config
}

// GoogleSettings carries the OAuth client configuration for the consent URL.
type GoogleSettings struct {
	ClientID    string
	RedirectURI string
}

// NewService constructs an authentication [Service].
func NewService(client *rest.Client, google GoogleSettings) *Service {
	return &Service{
		client: client,
		google: oauth2.Config{
			ClientID:    google.ClientID,
			RedirectURL: google.RedirectURI,
			Scopes:      []string{"openid", "email", "profile"},
			Endpoint:    googleEndpoint,
		},
	}
}

// # Email Flow

/*
EmailLogin exchanges email/password credentials for a bearer token.

Description: POST /auth/email/login. A 2xx response that carries no token
is treated as a malformed response, matching the original client's "no
token received" branch.

Parameters:
  - ctx: context.Context
  - email: string
  - password: string

Returns:
  - string: The issued bearer token
  - *User: The authenticated account
  - err: Validation, transport, or server-reported failures
*/
func (service *Service) EmailLogin(ctx context.Context, email, password string) (string, *User, error) {
	v := &validate.Validator{}
	v.Required("email", email).Email("email", email).Required("password", password)
	if err := v.Err(); err != nil {
		return "", nil, err
	}

	var response loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := service.client.Post(ctx, "/auth/email/login", body, &response); err != nil {
		return "", nil, err
	}

	rv := &validate.Validator{}
	rv.Required("token", response.Token)
	if err := rv.Response("login"); err != nil {
		return "", nil, err
	}

	return response.Token, response.User, nil
}

/*
Register enrolls a new account.

Description: POST /auth/register. Success does not log the user in; the
original client returns to the login form afterwards.

Parameters:
  - ctx: context.Context
  - email: string
  - nickname: string
  - password: string

Returns:
  - err: Validation, transport, or server-reported failures (e.g. Conflict)
*/
func (service *Service) Register(ctx context.Context, email, nickname, password string) error {
	v := &validate.Validator{}
	v.Required("email", email).Email("email", email).
		Required("nickname", nickname).MaxLen("nickname", nickname, 30).
		Required("password", password).MinLen("password", password, constants.PasswordMinLength)
	if err := v.Err(); err != nil {
		return err
	}

	body := map[string]string{"email": email, "nickname": nickname, "password": password}
	return service.client.Post(ctx, "/auth/register", body, nil)
}

// # Google Flow

// GoogleConfigured reports whether a Google client ID is present.
func (service *Service) GoogleConfigured() bool {
	return service.google.ClientID != ""
}

// GoogleAuthURL builds the Google consent URL the user must visit to obtain
// an authorization code. access_type=offline and prompt=select_account
// match the original login page.
func (service *Service) GoogleAuthURL() string {
	return service.google.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

/*
GoogleLogin forwards a Google authorization code to the backend, which
performs the token exchange and issues an app token.

Parameters:
  - ctx: context.Context
  - code: The authorization code from the consent redirect.

Returns:
  - string: The issued bearer token
  - *User: The authenticated account
  - err: Validation, transport, or server-reported failures
*/
func (service *Service) GoogleLogin(ctx context.Context, code string) (string, *User, error) {
	v := &validate.Validator{}
	v.Required("code", code)
	if err := v.Err(); err != nil {
		return "", nil, err
	}

	var response loginResponse
	if err := service.client.Post(ctx, "/auth/google/login", map[string]string{"code": code}, &response); err != nil {
		return "", nil, err
	}

	rv := &validate.Validator{}
	rv.Required("token", response.Token)
	if err := rv.Response("login"); err != nil {
		return "", nil, err
	}

	return response.Token, response.User, nil
}
