// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package stubserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/constants"
	"github.com/parkjiho/twinlook/internal/platform/validate"
	"github.com/parkjiho/twinlook/pkg/pointer"
)

// # Wire Shapes

// userPayload is the user object embedded in auth and profile responses.
type userPayload struct {
	ID              int64   `json:"id"`
	Email           string  `json:"email"`
	Nickname        string  `json:"nickname"`
	ProfileImageURL *string `json:"profile_image_url"`
	IsOnline        bool    `json:"is_online"`
}

func toUserPayload(user *userRecord) userPayload {
	payload := userPayload{
		ID:       user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
		IsOnline: user.IsOnline,
	}
	if user.AvatarURL != "" {
		payload.ProfileImageURL = pointer.To(user.AvatarURL)
	}
	return payload
}

// # Handlers

// handleRegister creates a new account. The caller returns to the login
// form afterwards; no token is issued here.
func (server *Server) handleRegister(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Nickname string `json:"nickname"`
		Password string `json:"password"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("email", payload.Email).Email("email", payload.Email).
		Required("nickname", payload.Nickname).
		Required("password", payload.Password).
		MinLen("password", payload.Password, constants.PasswordMinLength)
	if err := v.Err(); err != nil {
		writeError(writer, request, err)
		return
	}

	hash, err := hashPassword(payload.Password)
	if err != nil {
		writeError(writer, request, apperr.Internal(err))
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	for _, existing := range server.users {
		if strings.EqualFold(existing.Email, payload.Email) {
			writeError(writer, request, apperr.Conflict("Email is already registered"))
			return
		}
		if strings.EqualFold(existing.Nickname, payload.Nickname) {
			writeError(writer, request, apperr.Conflict("Nickname is already taken"))
			return
		}
	}

	user := &userRecord{
		ID:           server.allocID(),
		Email:        payload.Email,
		Nickname:     payload.Nickname,
		PasswordHash: hash,
	}
	server.users[user.ID] = user

	writeJSON(writer, http.StatusCreated, map[string]any{"user": toUserPayload(user)})
}

// handleEmailLogin authenticates credentials and issues a session token.
func (server *Server) handleEmailLogin(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	var user *userRecord
	for _, candidate := range server.users {
		if strings.EqualFold(candidate.Email, payload.Email) {
			user = candidate
			break
		}
	}
	server.mu.Unlock()

	if user == nil || !checkPasswordHash(payload.Password, user.PasswordHash) {
		writeError(writer, request, apperr.Unauthorized("Invalid email or password"))
		return
	}

	server.issueSession(writer, request, user)
}

// handleGoogleLogin exchanges a consent code for a session. The stub
// accepts any non-empty code and provisions an account on first sight.
func (server *Server) handleGoogleLogin(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}
	if strings.TrimSpace(payload.Code) == "" {
		writeError(writer, request, apperr.Unauthorized("Missing consent code"))
		return
	}

	// Derive a stable pseudo-identity from the code so retrying the same
	// code lands on the same account.
	alias := uuid.NewSHA1(uuid.NameSpaceOID, []byte(payload.Code)).String()[:8]
	email := "google-" + alias + "@twinlook.app"

	server.mu.Lock()
	var user *userRecord
	for _, candidate := range server.users {
		if candidate.Email == email {
			user = candidate
			break
		}
	}
	if user == nil {
		user = &userRecord{
			ID:       server.allocID(),
			Email:    email,
			Nickname: "google-" + alias,
			IsOnline: true,
		}
		server.users[user.ID] = user
	}
	server.mu.Unlock()

	server.issueSession(writer, request, user)
}

// handleProfile returns the session user's account.
func (server *Server) handleProfile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requiredUser(request)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	user, found := server.users[claims.UserID]
	server.mu.Unlock()
	if !found {
		writeError(writer, request, apperr.NotFound("User"))
		return
	}

	writeJSON(writer, http.StatusOK, map[string]any{"user": toUserPayload(user)})
}

// issueSession writes the {token, user} login envelope.
func (server *Server) issueSession(writer http.ResponseWriter, request *http.Request, user *userRecord) {
	token, err := server.tokens.Issue(user.ID, user.Nickname)
	if err != nil {
		writeError(writer, request, apperr.Internal(err))
		return
	}

	server.mu.Lock()
	user.IsOnline = true
	server.mu.Unlock()

	writeJSON(writer, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserPayload(user),
	})
}
