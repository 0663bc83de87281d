// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package stubserver

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/validate"
	"github.com/parkjiho/twinlook/pkg/textfold"
)

// friendshipStatuses the stub accepts on create and patch.
var friendshipStatuses = []string{"pending", "accepted", "rejected"}

// # Handlers

// handleFriendshipAdd creates a friendship record and returns its id.
// Duplicate pending/accepted pairs are rejected.
func (server *Server) handleFriendshipAdd(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	var payload struct {
		RequesterUserID int64  `json:"requester_user_id"`
		ReceiverUserID  int64  `json:"receiver_user_id"`
		Status          string `json:"status"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Positive("requester_user_id", payload.RequesterUserID).
		Positive("receiver_user_id", payload.ReceiverUserID).
		OneOf("status", payload.Status, friendshipStatuses...).
		Custom("receiver_user_id", payload.RequesterUserID == payload.ReceiverUserID,
			"Cannot befriend yourself")
	if err := v.Err(); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	if _, found := server.users[payload.ReceiverUserID]; !found {
		writeError(writer, request, apperr.NotFound("User"))
		return
	}
	for _, existing := range server.friendships {
		samePair := (existing.RequesterID == payload.RequesterUserID && existing.ReceiverID == payload.ReceiverUserID) ||
			(existing.RequesterID == payload.ReceiverUserID && existing.ReceiverID == payload.RequesterUserID)
		if samePair && existing.Status != "rejected" {
			writeError(writer, request, apperr.Conflict("Friendship already exists"))
			return
		}
	}

	friendship := &friendshipRecord{
		ID:          server.allocID(),
		RequesterID: payload.RequesterUserID,
		ReceiverID:  payload.ReceiverUserID,
		Status:      payload.Status,
	}
	server.friendships[friendship.ID] = friendship

	writeJSON(writer, http.StatusCreated, map[string]any{"friendships_id": friendship.ID})
}

// handleFriendshipPatch updates a friendship's status.
func (server *Server) handleFriendshipPatch(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	friendshipID, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil {
		writeError(writer, request, validate.RequiredError("id", "Must be a numeric friendship id"))
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.OneOf("status", payload.Status, friendshipStatuses...)
	if err := v.Err(); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	friendship, found := server.friendships[friendshipID]
	if found {
		friendship.Status = payload.Status
	}
	server.mu.Unlock()

	if !found {
		writeError(writer, request, apperr.NotFound("Friendship"))
		return
	}
	noContent(writer)
}

// handleFriendsList returns every friendship involving the session user,
// regardless of status. Filtering to accepted happens in the client.
func (server *Server) handleFriendsList(writer http.ResponseWriter, request *http.Request) {
	claims, err := requiredUser(request)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	results := make([]map[string]any, 0)
	for _, friendship := range server.friendships {
		var direction string
		var counterpartID int64

		switch claims.UserID {
		case friendship.RequesterID:
			direction = "outgoing"
			counterpartID = friendship.ReceiverID
		case friendship.ReceiverID:
			direction = "incoming"
			counterpartID = friendship.RequesterID
		default:
			continue
		}

		counterpart, found := server.users[counterpartID]
		if !found {
			continue
		}
		results = append(results, map[string]any{
			"friendship_id": friendship.ID,
			"status":        friendship.Status,
			"direction":     direction,
			"user":          toUserPayload(counterpart),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i]["friendship_id"].(int64) < results[j]["friendship_id"].(int64)
	})
	writeJSON(writer, http.StatusOK, results)
}

// handleSearchNickname finds users by accent-insensitive nickname fragment,
// excluding the session user.
func (server *Server) handleSearchNickname(writer http.ResponseWriter, request *http.Request) {
	claims, err := requiredUser(request)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	query := request.URL.Query().Get("nickname")
	if query == "" {
		writeJSON(writer, http.StatusOK, []userPayload{})
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	results := make([]userPayload, 0)
	for _, user := range server.users {
		if user.ID == claims.UserID {
			continue
		}
		if textfold.Contains(user.Nickname, query) {
			results = append(results, toUserPayload(user))
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	writeJSON(writer, http.StatusOK, results)
}
