// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package friends implements nickname search, the friend request flow, the
accepted-friends list, and on-demand pairwise photo similarity.

Architecture:

  - Search: one GET per query; an empty query short-circuits locally.
  - SendRequest: a recorded two-step sequence (friendship record, then
    notification to the target). The two calls are not transactional: a
    notification failure leaves a friendship without a notification, which
    is surfaced, not repaired.
  - List: fetches every friendship for the session user and filters to
    status "accepted" client-side — pending and rejected records are never
    rendered as friends.
*/
package friends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/flow"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/platform/validate"
	"github.com/parkjiho/twinlook/pkg/slice"
)

// # Entities

// Friendship statuses as stored by the backend.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Friendship directions relative to the session user.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// UserSummary is the lightweight user shape used in search results and
// friendship counterparts.
type UserSummary struct {
	ID        int64   `json:"id"`
	Nickname  string  `json:"nickname"`
	AvatarURL *string `json:"profile_image_url"`
}

// Friendship is one request/accept record. Only accepted entries render
// as friends; the others are filtered client-side, not server-side.
type Friendship struct {
	ID        int64       `json:"friendship_id"`
	Status    string      `json:"status"`
	Direction string      `json:"direction"`
	User      UserSummary `json:"user"`
}

// PairSimilarity is an on-demand comparison of two users' latest photos.
type PairSimilarity struct {
	// Cosine is the raw backend score in [-1, 1].
	Cosine float64
	// Percent maps Cosine onto [0, 100] for display.
	Percent int
	// Absolute image URLs of both compared photos.
	MyImageURL     string
	FriendImageURL string
}

// Authenticator reports whether a session token is present. Satisfied by
// the session store.
type Authenticator interface {
	Authenticated() bool
}

// Service implements the friends feature against the backend.
type Service struct {
	client   *rest.Client
	sessions Authenticator
	log      *slog.Logger
}

// NewService constructs a friends [Service].
func NewService(client *rest.Client, sessions Authenticator, log *slog.Logger) *Service {
	return &Service{client: client, sessions: sessions, log: log}
}

// # Search

/*
Search finds users by nickname.

Description: GET /searchnickname. An empty or whitespace-only query makes
zero network calls and yields an empty result.

Parameters:
  - ctx: context.Context
  - query: The nickname fragment.

Returns:
  - []UserSummary: Matching users with avatar URLs resolved to absolute
  - err: Transport or server-reported failures
*/
func (service *Service) Search(ctx context.Context, query string) ([]UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var results []UserSummary
	params := url.Values{"nickname": {query}}
	if err := service.client.Get(ctx, "/searchnickname", params, &results); err != nil {
		return nil, err
	}

	for i := range results {
		results[i].AvatarURL = service.resolveAvatar(results[i].AvatarURL)
	}
	return results, nil
}

// # Friend Requests

/*
SendRequest creates a pending friendship and notifies the target.

Description: Guarded locally — a self-request or an unauthenticated caller
produces a validation message and zero network calls. Otherwise a recorded
two-step sequence runs: POST /friendship_add creates the pending record and
returns its identifier, then POST /notification_add notifies the target
referencing that identifier. If the second step fails the friendship exists
without a notification; the returned error names the committed step.

Parameters:
  - ctx: context.Context
  - selfID: The session user's id.
  - target: The receiving user.

Returns:
  - err: Validation, transport, server-reported, or *flow.PartialFailure
*/
func (service *Service) SendRequest(ctx context.Context, selfID int64, target UserSummary) error {
	if !service.sessions.Authenticated() {
		return apperr.Unauthorized("Sign in to send friend requests")
	}
	if selfID == target.ID {
		return validate.RequiredError("receiver_user_id",
			"You cannot send a friend request to yourself")
	}

	var friendshipID int64

	sequence := &flow.Sequence{
		Name: "friend_request",
		Steps: []flow.Step{
			{
				Name: "friendship_add",
				Run: func(ctx context.Context) error {
					var created struct {
						FriendshipsID int64 `json:"friendships_id"`
					}
					body := map[string]any{
						"requester_user_id": selfID,
						"receiver_user_id":  target.ID,
						"status":            StatusPending,
					}
					if err := service.client.Post(ctx, "/friendship_add", body, &created); err != nil {
						return err
					}

					v := &validate.Validator{}
					v.Positive("friendships_id", created.FriendshipsID)
					if err := v.Response("friendship_add"); err != nil {
						return err
					}
					friendshipID = created.FriendshipsID
					return nil
				},
			},
			{
				Name: "notification_add",
				Run: func(ctx context.Context) error {
					body := map[string]any{
						"user_id":        target.ID,
						"message":        "You have a new friend request",
						"friendships_id": friendshipID,
					}
					return service.client.Post(ctx, "/notification_add", body, nil)
				},
			},
		},
	}

	if err := sequence.Run(ctx); err != nil {
		var partial *flow.PartialFailure
		if errors.As(err, &partial) && partial.Dirty() {
			service.log.Warn("friend_request_partial",
				slog.Int64("friendship_id", friendshipID),
				slog.Any("error", partial.Err),
			)
		}
		return err
	}
	return nil
}

/*
Respond sets a friendship's status to accepted or rejected.

Parameters:
  - ctx: context.Context
  - friendshipID: The friendship record id.
  - status: StatusAccepted or StatusRejected.

Returns:
  - err: Validation, transport, or server-reported failures
*/
func (service *Service) Respond(ctx context.Context, friendshipID int64, status string) error {
	v := &validate.Validator{}
	v.OneOf("status", status, StatusAccepted, StatusRejected)
	if err := v.Err(); err != nil {
		return err
	}

	path := fmt.Sprintf("/friendship/%d", friendshipID)
	return service.client.Patch(ctx, path, map[string]string{"status": status}, nil)
}

// # Friends List

/*
List fetches all friendship records for the session user and keeps only the
accepted ones.

Returns:
  - []Friendship: Accepted friendships with avatar URLs resolved
  - err: Transport or server-reported failures
*/
func (service *Service) List(ctx context.Context) ([]Friendship, error) {
	var all []Friendship
	if err := service.client.Get(ctx, "/friends", nil, &all); err != nil {
		return nil, err
	}

	accepted := slice.Filter(all, func(f Friendship) bool {
		return f.Status == StatusAccepted
	})
	for i := range accepted {
		accepted[i].User.AvatarURL = service.resolveAvatar(accepted[i].User.AvatarURL)
	}
	return accepted, nil
}

// # Pairwise Similarity

/*
PairSimilarity compares the latest uploaded photos of two users.

Description: POST /latest-photo-similarity. The backend's cosine score in
[-1, 1] is mapped onto a display percentage; relative image paths are
resolved against the base URL.

Parameters:
  - ctx: context.Context
  - selfID: The session user's id.
  - otherID: The friend's id.

Returns:
  - *PairSimilarity: Score and both photo URLs
  - err: Transport, server-reported, or response-schema failures
*/
func (service *Service) PairSimilarity(ctx context.Context, selfID, otherID int64) (*PairSimilarity, error) {
	var response struct {
		CosineSimilarity *float64 `json:"cosine_similarity"`
		User1ImageURL    string   `json:"user1_image_url"`
		User2ImageURL    string   `json:"user2_image_url"`
	}
	body := map[string]any{"user_id1": selfID, "user_id2": otherID}
	if err := service.client.Post(ctx, "/latest-photo-similarity", body, &response); err != nil {
		return nil, err
	}

	v := &validate.Validator{}
	v.Custom("cosine_similarity", response.CosineSimilarity == nil, "Missing similarity score")
	if response.CosineSimilarity != nil {
		v.Custom("cosine_similarity",
			*response.CosineSimilarity < -1 || *response.CosineSimilarity > 1,
			"Must be a cosine value in [-1, 1]")
	}
	if err := v.Response("latest-photo-similarity"); err != nil {
		return nil, err
	}

	cosine := *response.CosineSimilarity
	return &PairSimilarity{
		Cosine:         cosine,
		Percent:        Percent(cosine),
		MyImageURL:     service.client.Resolve(response.User1ImageURL),
		FriendImageURL: service.client.Resolve(response.User2ImageURL),
	}, nil
}

// Percent maps a cosine similarity in [-1, 1] onto a display percentage:
// round(((s+1)/2)*100), so -1 → 0, 0 → 50, 1 → 100.
func Percent(cosine float64) int {
	return int(math.Round(((cosine + 1) / 2) * 100))
}

// resolveAvatar absolutizes a nullable avatar path.
func (service *Service) resolveAvatar(avatar *string) *string {
	if avatar == nil || *avatar == "" {
		return avatar
	}
	resolved := service.client.Resolve(*avatar)
	return &resolved
}
