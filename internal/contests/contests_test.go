// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package contests_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkjiho/twinlook/internal/contests"
	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/flow"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/stubserver"
)

type tokenBox struct{ token string }

func (box *tokenBox) Token() string { return box.token }

type env struct {
	stub    *stubserver.Server
	service *contests.Service
	selfID  int64
	baseURL string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	stub := stubserver.New(log)
	server := httptest.NewServer(stub.Router())
	t.Cleanup(func() {
		server.Close()
		stub.Close()
	})

	selfID := stub.SeedUser("jiho@twinlook.app", "jiho", "hunter2hunter2")
	client, err := rest.New(server.URL, &tokenBox{token: stub.TokenFor(selfID)}, log)
	require.NoError(t, err)

	return &env{
		stub:    stub,
		service: contests.NewService(client, log),
		selfID:  selfID,
		baseURL: server.URL,
	}
}

/*
TestService_CreateAndList creates a contest and sees it in the catalogue
with its image URL absolutized.
*/
func TestService_CreateAndList(t *testing.T) {
	testEnv := newEnv(t)
	ctx := context.Background()

	err := testEnv.service.Create(ctx, contests.CreateInput{
		Title:      "Best Fox",
		TargetName: "Hana Sato",
		ImageName:  "target.png",
		Image:      bytes.NewReader([]byte("target image bytes")),
	})
	require.NoError(t, err)

	list, err := testEnv.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Best Fox", list[0].Title)
	assert.Equal(t, "open", list[0].Status)
	assert.Contains(t, list[0].ImageURL, testEnv.baseURL)
	assert.Empty(t, list[0].Participants)
}

/*
TestService_CreateValidation rejects incomplete input before any network
call.
*/
func TestService_CreateValidation(t *testing.T) {
	testEnv := newEnv(t)

	err := testEnv.service.Create(context.Background(), contests.CreateInput{
		Title: "No image or target",
	})
	require.Error(t, err)
	assert.Zero(t, testEnv.stub.TotalCalls())
}

/*
TestService_Delete removes the contest from the catalogue.
*/
func TestService_Delete(t *testing.T) {
	testEnv := newEnv(t)
	ctx := context.Background()
	contestID := testEnv.stub.SeedContest("Best Fox", "Hana Sato")

	require.NoError(t, testEnv.service.Delete(ctx, contestID))

	list, err := testEnv.service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Deleting again reports not-found.
	err = testEnv.service.Delete(ctx, contestID)
	require.Error(t, err)
	assert.Equal(t, "Contest not found", apperr.UserMessage(err))
}

/*
TestService_Challenge runs all four steps and lands the entrant in the
recomputed ranking.
*/
func TestService_Challenge(t *testing.T) {
	testEnv := newEnv(t)
	ctx := context.Background()
	contestID := testEnv.stub.SeedContest("Best Fox", "Hana Sato")
	testEnv.stub.SeedPhoto(testEnv.selfID, []byte("my photo bytes"))

	require.NoError(t, testEnv.service.Challenge(ctx, contestID, testEnv.selfID))

	assert.Equal(t, 1, testEnv.stub.Calls("/contest-entry-check"))
	assert.Equal(t, 1, testEnv.stub.Calls("/contest_entry_add"))
	assert.Equal(t, 1, testEnv.stub.Calls("/update_contest_top3"))

	ranking, err := testEnv.service.TopThreeRanks(ctx, contestID)
	require.NoError(t, err)
	require.NotNil(t, ranking.First)
	assert.Equal(t, testEnv.selfID, ranking.First.UserID)
	require.NotNil(t, ranking.First.Similarity)
	assert.Contains(t, ranking.First.ImageURL, testEnv.baseURL)
	assert.Nil(t, ranking.Second)
	assert.Nil(t, ranking.Third)

	// The entrant now appears in the contest's participant list.
	list, err := testEnv.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Participants, 1)
	assert.Equal(t, testEnv.selfID, list[0].Participants[0].UserID)
}

/*
TestService_ChallengeWithoutPhoto aborts at the first step with a message
and never creates anything.
*/
func TestService_ChallengeWithoutPhoto(t *testing.T) {
	testEnv := newEnv(t)
	contestID := testEnv.stub.SeedContest("Best Fox", "Hana Sato")

	err := testEnv.service.Challenge(context.Background(), contestID, testEnv.selfID)
	require.Error(t, err)
	assert.Equal(t, "Upload a photo before entering a contest", apperr.UserMessage(err))

	assert.Zero(t, testEnv.stub.Calls("/contest_entry_add"))
	assert.Zero(t, testEnv.stub.Calls("/update_contest_top3"))
}

/*
TestService_ChallengeAlreadyEntered short-circuits at the entry check:
the entry-creation call is never made the second time.
*/
func TestService_ChallengeAlreadyEntered(t *testing.T) {
	testEnv := newEnv(t)
	ctx := context.Background()
	contestID := testEnv.stub.SeedContest("Best Fox", "Hana Sato")
	testEnv.stub.SeedPhoto(testEnv.selfID, []byte("my photo bytes"))

	require.NoError(t, testEnv.service.Challenge(ctx, contestID, testEnv.selfID))

	err := testEnv.service.Challenge(ctx, contestID, testEnv.selfID)
	require.Error(t, err)
	assert.Equal(t, "You have already entered this contest", apperr.UserMessage(err))

	// Exactly one entry was ever created.
	assert.Equal(t, 1, testEnv.stub.Calls("/contest_entry_add"))
}

/*
TestService_ChallengePartialFailure leaves the entry in place with a stale
ranking when the recompute step fails.
*/
func TestService_ChallengePartialFailure(t *testing.T) {
	testEnv := newEnv(t)
	ctx := context.Background()
	contestID := testEnv.stub.SeedContest("Best Fox", "Hana Sato")
	testEnv.stub.SeedPhoto(testEnv.selfID, []byte("my photo bytes"))
	testEnv.stub.FailNext("/update_contest_top3")

	err := testEnv.service.Challenge(ctx, contestID, testEnv.selfID)
	require.Error(t, err)

	var partial *flow.PartialFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "recompute_top3", partial.Failed)
	assert.Contains(t, partial.Completed, "entry_add")

	// The entry committed; the ranking was never computed.
	ranking, rankErr := testEnv.service.TopThreeRanks(ctx, contestID)
	require.NoError(t, rankErr)
	assert.Nil(t, ranking.First)
}

/*
TestService_TopThreeOrdering ranks multiple entrants by similarity to the
target, best first.
*/
func TestService_TopThreeOrdering(t *testing.T) {
	testEnv := newEnv(t)
	ctx := context.Background()
	contestID := testEnv.stub.SeedContest("Best Fox", "Hana Sato")

	entrants := []int64{testEnv.selfID}
	entrants = append(entrants,
		testEnv.stub.SeedUser("a@twinlook.app", "anna", "hunter2hunter2"),
		testEnv.stub.SeedUser("b@twinlook.app", "boram", "hunter2hunter2"),
		testEnv.stub.SeedUser("c@twinlook.app", "chul", "hunter2hunter2"),
	)
	for i, userID := range entrants {
		testEnv.stub.SeedPhoto(userID, []byte{byte(i), 1, 2, 3})
		require.NoError(t, testEnv.service.Challenge(ctx, contestID, userID))
	}

	ranking, err := testEnv.service.TopThreeRanks(ctx, contestID)
	require.NoError(t, err)
	require.NotNil(t, ranking.First)
	require.NotNil(t, ranking.Second)
	require.NotNil(t, ranking.Third)

	// Of four entrants only three rank, in non-increasing score order.
	assert.GreaterOrEqual(t, *ranking.First.Similarity, *ranking.Second.Similarity)
	assert.GreaterOrEqual(t, *ranking.Second.Similarity, *ranking.Third.Similarity)
}
