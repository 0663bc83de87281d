// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package stubserver

import (
	"net/http"
	"sort"
	"time"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/validate"
	"github.com/parkjiho/twinlook/pkg/pointer"
)

// notificationPayload is the wire shape of one inbox entry.
type notificationPayload struct {
	NotificationID int64  `json:"notification_id"`
	Type           string `json:"type"`
	Message        string `json:"message"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      string `json:"created_at"`
	FriendshipID   *int64 `json:"friendship_id,omitempty"`
}

// # Handlers

// handleNotificationsList returns the session user's inbox, newest first.
func (server *Server) handleNotificationsList(writer http.ResponseWriter, request *http.Request) {
	claims, err := requiredUser(request)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	results := make([]notificationPayload, 0)
	for _, notification := range server.notifications {
		if notification.UserID != claims.UserID {
			continue
		}
		results = append(results, notificationPayload{
			NotificationID: notification.ID,
			Type:           notification.Type,
			Message:        notification.Message,
			IsRead:         notification.IsRead,
			CreatedAt:      notification.CreatedAt.Format(time.RFC3339),
			FriendshipID:   notification.FriendshipID,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].NotificationID > results[j].NotificationID
	})
	writeJSON(writer, http.StatusOK, results)
}

// handleNotificationAdd creates a friend-request notification for a user.
func (server *Server) handleNotificationAdd(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	var payload struct {
		UserID        int64  `json:"user_id"`
		Message       string `json:"message"`
		FriendshipsID int64  `json:"friendships_id"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Positive("user_id", payload.UserID).
		Required("message", payload.Message).
		Positive("friendships_id", payload.FriendshipsID)
	if err := v.Err(); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	if _, found := server.users[payload.UserID]; !found {
		writeError(writer, request, apperr.NotFound("User"))
		return
	}
	if _, found := server.friendships[payload.FriendshipsID]; !found {
		writeError(writer, request, apperr.NotFound("Friendship"))
		return
	}

	notification := &notificationRecord{
		ID:           server.allocID(),
		UserID:       payload.UserID,
		Type:         "friend_request",
		Message:      payload.Message,
		CreatedAt:    time.Now().UTC(),
		FriendshipID: pointer.To(payload.FriendshipsID),
	}
	server.notifications[notification.ID] = notification

	writeJSON(writer, http.StatusCreated, map[string]any{"notification_id": notification.ID})
}

// handleNotificationDelete removes one notification owned by the caller.
func (server *Server) handleNotificationDelete(writer http.ResponseWriter, request *http.Request) {
	claims, err := requiredUser(request)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	var payload struct {
		UserID         int64 `json:"user_id"`
		NotificationID int64 `json:"notification_id"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	notification, found := server.notifications[payload.NotificationID]
	if !found {
		writeError(writer, request, apperr.NotFound("Notification"))
		return
	}
	if notification.UserID != claims.UserID || payload.UserID != claims.UserID {
		writeError(writer, request, apperr.Unauthorized("Not your notification"))
		return
	}

	delete(server.notifications, notification.ID)
	noContent(writer)
}
