// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package notifications implements the inbox: listing, explicit deletion, and
resolving friend-request notifications into accepted or rejected friendships.

Notifications are never auto-dismissed and carry no read-state mutation from
the client; they disappear only through an explicit, confirmed delete or as
the trailing step of accepting a friend request.
*/
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parkjiho/twinlook/internal/friends"
	"github.com/parkjiho/twinlook/internal/platform/flow"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/platform/validate"
)

// TypeFriendRequest marks notifications that can be accepted or rejected.
const TypeFriendRequest = "friend_request"

// Notification is one inbox entry. FriendshipID is set only for
// friend-request notifications.
type Notification struct {
	ID           int64  `json:"notification_id"`
	Type         string `json:"type"`
	Message      string `json:"message"`
	IsRead       bool   `json:"is_read"`
	CreatedAt    string `json:"created_at"`
	FriendshipID *int64 `json:"friendship_id,omitempty"`
}

// Interactable reports whether the notification offers accept/reject
// actions in addition to delete.
func (n Notification) Interactable() bool {
	return n.Type == TypeFriendRequest && n.FriendshipID != nil
}

// Service implements the inbox feature against the backend.
type Service struct {
	client *rest.Client
	social *friends.Service
	log    *slog.Logger
}

// NewService constructs a notifications [Service]. The friends service is
// used to patch friendships when a request is accepted or rejected.
func NewService(client *rest.Client, social *friends.Service, log *slog.Logger) *Service {
	return &Service{client: client, social: social, log: log}
}

// List fetches the session user's notifications, newest first.
func (service *Service) List(ctx context.Context) ([]Notification, error) {
	var items []Notification
	if err := service.client.Get(ctx, "/notifications", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

/*
Delete removes a notification after the shell's confirmation prompt.

Description: POST /notification_delete. On failure the notification stays
in the inbox and the caller surfaces the error as a blocking notice.

Parameters:
  - ctx: context.Context
  - userID: The session user's id.
  - notificationID: The notification to remove.

Returns:
  - err: Transport or server-reported failures
*/
func (service *Service) Delete(ctx context.Context, userID, notificationID int64) error {
	body := map[string]any{
		"user_id":         userID,
		"notification_id": notificationID,
	}
	return service.client.Post(ctx, "/notification_delete", body, nil)
}

/*
Accept resolves a friend-request notification into an accepted friendship.

Description: A recorded two-step sequence: patch the friendship to
accepted, then delete the notification. If the delete fails after the
patch succeeded, the friendship is accepted but the notification stays
visible; the gap is reported through *flow.PartialFailure and logged, not
repaired.

Parameters:
  - ctx: context.Context
  - userID: The session user's id.
  - item: The friend-request notification being accepted.

Returns:
  - err: Validation, transport, server-reported, or *flow.PartialFailure
*/
func (service *Service) Accept(ctx context.Context, userID int64, item Notification) error {
	if err := requireFriendRequest(item); err != nil {
		return err
	}

	sequence := &flow.Sequence{
		Name: "accept_friend_request",
		Steps: []flow.Step{
			{
				Name: "friendship_accept",
				Run: func(ctx context.Context) error {
					return service.social.Respond(ctx, *item.FriendshipID, friends.StatusAccepted)
				},
			},
			{
				Name: "notification_delete",
				Run: func(ctx context.Context) error {
					return service.Delete(ctx, userID, item.ID)
				},
			},
		},
	}

	if err := sequence.Run(ctx); err != nil {
		service.log.Warn("accept_friend_request_failed",
			slog.Int64("notification_id", item.ID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Reject declines a friend-request notification: the friendship is patched
// to rejected and the notification removed, with the same recorded-step
// semantics as Accept.
func (service *Service) Reject(ctx context.Context, userID int64, item Notification) error {
	if err := requireFriendRequest(item); err != nil {
		return err
	}

	sequence := &flow.Sequence{
		Name: "reject_friend_request",
		Steps: []flow.Step{
			{
				Name: "friendship_reject",
				Run: func(ctx context.Context) error {
					return service.social.Respond(ctx, *item.FriendshipID, friends.StatusRejected)
				},
			},
			{
				Name: "notification_delete",
				Run: func(ctx context.Context) error {
					return service.Delete(ctx, userID, item.ID)
				},
			},
		},
	}

	if err := sequence.Run(ctx); err != nil {
		service.log.Warn("reject_friend_request_failed",
			slog.Int64("notification_id", item.ID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// requireFriendRequest guards Accept/Reject against notifications that do
// not reference a friendship.
func requireFriendRequest(item Notification) error {
	v := &validate.Validator{}
	v.Custom("type", !item.Interactable(),
		fmt.Sprintf("Notification %d is not an open friend request", item.ID))
	return v.Err()
}
