// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package contests implements the photo contest feature: listing, creation,
deletion, rank display, and the "challenge" entry flow.

Architecture:

  - List/Create/Delete: plain fetch and mutate operations; the list is
    refetched after each mutation rather than patched.
  - Open: two independent fetches triggered together — the contest's
    participants and its top-3 ranking.
  - Challenge: a recorded four-step sequence with two guard steps that
    short-circuit before anything is created (no uploaded photo, already
    entered). Steps already committed are never compensated.
*/
package contests

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/flow"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/platform/validate"
)

// # Entities

// Participant is a contest entrant summary.
type Participant struct {
	UserID    int64   `json:"user_id"`
	Nickname  string  `json:"nickname"`
	AvatarURL *string `json:"profile_image_url"`
}

// Contest is one look-alike contest against a target image.
type Contest struct {
	ID           int64         `json:"contest_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	TargetName   string        `json:"target_name"`
	ImageURL     string        `json:"image_url"`
	Status       string        `json:"status"`
	Participants []Participant `json:"participants"`
}

// RankEntry is one of the top-3 ranked contest entries. Similarity is nil
// when the backend has not scored the entry yet.
type RankEntry struct {
	UserID      int64    `json:"user_id"`
	Similarity  *float64 `json:"similarity"`
	UserPhotoID int64    `json:"user_photo_id"`
	ImageURL    string   `json:"image_url"`
}

// TopThree is the backend-computed ranking, limited to three positions.
type TopThree struct {
	First  *RankEntry `json:"first"`
	Second *RankEntry `json:"second"`
	Third  *RankEntry `json:"third"`
}

// CreateInput carries the multipart fields for a new contest.
type CreateInput struct {
	Title       string
	Description string
	TargetName  string
	// ImageName and Image form the target image file part.
	ImageName string
	Image     io.Reader
}

// Service implements the contests feature against the backend.
type Service struct {
	client *rest.Client
	log    *slog.Logger
}

// NewService constructs a contests [Service].
func NewService(client *rest.Client, log *slog.Logger) *Service {
	return &Service{client: client, log: log}
}

// # Catalogue Operations

// List fetches all contests with their participant sets.
func (service *Service) List(ctx context.Context) ([]Contest, error) {
	var contests []Contest
	if err := service.client.Get(ctx, "/contests", nil, &contests); err != nil {
		return nil, err
	}
	for i := range contests {
		contests[i].ImageURL = service.client.Resolve(contests[i].ImageURL)
	}
	return contests, nil
}

/*
Create opens a new contest.

Description: POST /contestsadd as multipart/form-data carrying the target
image file plus title, description, target name, and status "open".

Parameters:
  - ctx: context.Context
  - input: CreateInput

Returns:
  - err: Validation, transport, or server-reported failures
*/
func (service *Service) Create(ctx context.Context, input CreateInput) error {
	v := &validate.Validator{}
	v.Required("title", input.Title).MaxLen("title", input.Title, 100).
		Required("target_name", input.TargetName).
		Custom("file", input.Image == nil, "A target image is required")
	if err := v.Err(); err != nil {
		return err
	}

	fields := map[string]string{
		"title":       input.Title,
		"description": input.Description,
		"target_name": input.TargetName,
		"status":      "open",
	}
	return service.client.PostMultipart(ctx, "/contestsadd", fields, "file", input.ImageName, input.Image, nil)
}

// Delete removes a contest. The confirmation prompt is the shell's
// responsibility; this method assumes the user already confirmed.
func (service *Service) Delete(ctx context.Context, contestID int64) error {
	return service.client.Delete(ctx, fmt.Sprintf("/contests/%d", contestID))
}

// TopThreeRanks fetches a contest's top-3 ranking, resolving every entry's
// image URL. Open a contest with List + TopThreeRanks together.
func (service *Service) TopThreeRanks(ctx context.Context, contestID int64) (*TopThree, error) {
	var ranking TopThree
	params := url.Values{"contestId": {strconv.FormatInt(contestID, 10)}}
	if err := service.client.Get(ctx, "/contest-top3", params, &ranking); err != nil {
		return nil, err
	}

	for _, entry := range []*RankEntry{ranking.First, ranking.Second, ranking.Third} {
		if entry != nil {
			entry.ImageURL = service.client.Resolve(entry.ImageURL)
		}
	}
	return &ranking, nil
}

// # Challenge Flow

/*
Challenge enters the session user's latest photo into a contest.

Description: A recorded four-step sequence:

 1. Fetch the caller's most recent photo id; abort with a message if no
    photo was ever uploaded.
 2. Check for an existing entry in this contest; abort with a message if
    one exists — the entry-creation call is never made.
 3. Create the entry.
 4. Trigger the server-side top-3 recomputation.

A failure after step 3 leaves the entry in place without a fresh ranking;
the returned *flow.PartialFailure names the committed steps. The caller
refreshes both the ranking and the contest list afterwards.

Parameters:
  - ctx: context.Context
  - contestID: The contest to enter.
  - userID: The session user's id.

Returns:
  - err: Validation, transport, server-reported, or *flow.PartialFailure
*/
func (service *Service) Challenge(ctx context.Context, contestID, userID int64) error {
	var photoID int64

	sequence := &flow.Sequence{
		Name: "contest_challenge",
		Steps: []flow.Step{
			{
				Name: "latest_photo",
				Run: func(ctx context.Context) error {
					var latest struct {
						UserPhotoID int64 `json:"user_photo_id"`
					}
					path := fmt.Sprintf("/latest-user-photo-id/%d", userID)
					if err := service.client.Get(ctx, path, nil, &latest); err != nil {
						return err
					}
					if latest.UserPhotoID <= 0 {
						return apperr.ValidationError("Upload a photo before entering a contest")
					}
					photoID = latest.UserPhotoID
					return nil
				},
			},
			{
				Name: "entry_check",
				Run: func(ctx context.Context) error {
					var check struct {
						Exists bool `json:"exists"`
					}
					params := url.Values{
						"contestId": {strconv.FormatInt(contestID, 10)},
						"userId":    {strconv.FormatInt(userID, 10)},
					}
					if err := service.client.Get(ctx, "/contest-entry-check", params, &check); err != nil {
						return err
					}
					if check.Exists {
						return apperr.Conflict("You have already entered this contest")
					}
					return nil
				},
			},
			{
				Name: "entry_add",
				Run: func(ctx context.Context) error {
					body := map[string]any{
						"contest_id":    contestID,
						"user_id":       userID,
						"user_photo_id": photoID,
					}
					return service.client.Post(ctx, "/contest_entry_add", body, nil)
				},
			},
			{
				Name: "recompute_top3",
				Run: func(ctx context.Context) error {
					body := map[string]any{"contest_id": contestID}
					return service.client.Patch(ctx, "/update_contest_top3", body, nil)
				},
			},
		},
	}

	if err := sequence.Run(ctx); err != nil {
		service.log.Warn("contest_challenge_failed",
			slog.Int64("contest_id", contestID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
