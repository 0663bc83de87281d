// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package friends_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkjiho/twinlook/internal/friends"
	"github.com/parkjiho/twinlook/internal/platform/flow"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/stubserver"
)

type tokenBox struct{ token string }

func (box *tokenBox) Token() string { return box.token }

func (box *tokenBox) Authenticated() bool { return box.token != "" }

type env struct {
	stub    *stubserver.Server
	service *friends.Service
	selfID  int64
	baseURL string
	box     *tokenBox
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
	box := &tokenBox{token: stub.TokenFor(selfID)}

	client, err := rest.New(server.URL, box, log)
	require.NoError(t, err)

	return &env{
		stub:    stub,
		service: friends.NewService(client, box, log),
		selfID:  selfID,
		baseURL: server.URL,
		box:     box,
	}
}

/*
TestPercent maps cosine scores onto the display percentage.
*/
func TestPercent(t *testing.T) {
	tests := []struct {
		name   string
		cosine float64
		want   int
	}{
		{"identical", 1, 100},
		{"opposite", -1, 0},
		{"orthogonal", 0, 50},
		{"close_match", 0.8, 90},
		{"rounding", 0.111, 56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, friends.Percent(tt.cosine))
		})
	}
}

/*
TestService_SearchEmptyQuery short-circuits locally with zero network calls.
*/
func TestService_SearchEmptyQuery(t *testing.T) {
	testEnv := newEnv(t)

	results, err := testEnv.service.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, testEnv.stub.TotalCalls())
}

/*
TestService_Search matches nicknames accent- and case-insensitively and
never returns the caller.
*/
func TestService_Search(t *testing.T) {
	testEnv := newEnv(t)
	testEnv.stub.SeedUser("zoe@twinlook.app", "Zoë", "hunter2hunter2")
	testEnv.stub.SeedUser("min@twinlook.app", "minho", "hunter2hunter2")

	results, err := testEnv.service.Search(context.Background(), "zoe")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Zoë", results[0].Nickname)

	// The session user is excluded even on an exact match.
	self, err := testEnv.service.Search(context.Background(), "jiho")
	require.NoError(t, err)
	assert.Empty(t, self)
}

/*
TestService_SendRequestToSelf fails locally with a message and zero
network calls.
*/
func TestService_SendRequestToSelf(t *testing.T) {
	testEnv := newEnv(t)

	err := testEnv.service.SendRequest(context.Background(), testEnv.selfID,
		friends.UserSummary{ID: testEnv.selfID, Nickname: "jiho"})
	require.Error(t, err)
	assert.Zero(t, testEnv.stub.TotalCalls())
}

/*
TestService_SendRequestUnauthenticated is blocked before any network call.
*/
func TestService_SendRequestUnauthenticated(t *testing.T) {
	testEnv := newEnv(t)
	testEnv.box.token = ""

	err := testEnv.service.SendRequest(context.Background(), testEnv.selfID,
		friends.UserSummary{ID: 99, Nickname: "other"})
	require.Error(t, err)
	assert.Zero(t, testEnv.stub.TotalCalls())
}

/*
TestService_SendRequest creates the friendship and the notification.
*/
func TestService_SendRequest(t *testing.T) {
	testEnv := newEnv(t)
	otherID := testEnv.stub.SeedUser("zoe@twinlook.app", "Zoë", "hunter2hunter2")

	err := testEnv.service.SendRequest(context.Background(), testEnv.selfID,
		friends.UserSummary{ID: otherID, Nickname: "Zoë"})
	require.NoError(t, err)

	assert.Equal(t, 1, testEnv.stub.Calls("/friendship_add"))
	assert.Equal(t, 1, testEnv.stub.Calls("/notification_add"))
}

/*
TestService_SendRequestPartialFailure leaves the friendship standing when
the notification step fails, and names the committed step.
*/
func TestService_SendRequestPartialFailure(t *testing.T) {
	testEnv := newEnv(t)
	otherID := testEnv.stub.SeedUser("zoe@twinlook.app", "Zoë", "hunter2hunter2")
	testEnv.stub.FailNext("/notification_add")

	err := testEnv.service.SendRequest(context.Background(), testEnv.selfID,
		friends.UserSummary{ID: otherID, Nickname: "Zoë"})
	require.Error(t, err)

	var partial *flow.PartialFailure
	require.ErrorAs(t, err, &partial)
	assert.True(t, partial.Dirty())
	assert.Equal(t, []string{"friendship_add"}, partial.Completed)

	// No rollback: the pending friendship stays, so retrying conflicts.
	err = testEnv.service.SendRequest(context.Background(), testEnv.selfID,
		friends.UserSummary{ID: otherID, Nickname: "Zoë"})
	require.Error(t, err)
}

/*
TestService_ListFiltersAccepted renders only accepted friendships;
pending and rejected records never appear.
*/
func TestService_ListFiltersAccepted(t *testing.T) {
	testEnv := newEnv(t)
	accepted := testEnv.stub.SeedUser("a@twinlook.app", "anna", "hunter2hunter2")
	pending := testEnv.stub.SeedUser("b@twinlook.app", "boram", "hunter2hunter2")
	rejected := testEnv.stub.SeedUser("c@twinlook.app", "chul", "hunter2hunter2")

	acceptedID := testEnv.stub.SeedFriendship(testEnv.selfID, accepted, friends.StatusAccepted)
	testEnv.stub.SeedFriendship(pending, testEnv.selfID, friends.StatusPending)
	testEnv.stub.SeedFriendship(testEnv.selfID, rejected, friends.StatusRejected)

	list, err := testEnv.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, acceptedID, list[0].ID)
	assert.Equal(t, "anna", list[0].User.Nickname)
}

/*
TestService_Respond patches a friendship to accepted.
*/
func TestService_Respond(t *testing.T) {
	testEnv := newEnv(t)
	other := testEnv.stub.SeedUser("a@twinlook.app", "anna", "hunter2hunter2")
	friendshipID := testEnv.stub.SeedFriendship(other, testEnv.selfID, friends.StatusPending)

	require.NoError(t, testEnv.service.Respond(context.Background(), friendshipID, friends.StatusAccepted))

	list, err := testEnv.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, friends.DirectionIncoming, list[0].Direction)
}

/*
TestService_RespondInvalidStatus rejects statuses outside the allowed set
with zero network calls.
*/
func TestService_RespondInvalidStatus(t *testing.T) {
	testEnv := newEnv(t)

	err := testEnv.service.Respond(context.Background(), 1, "pending")
	require.Error(t, err)
	assert.Zero(t, testEnv.stub.TotalCalls())
}

/*
TestService_PairSimilarity compares the two latest photos and resolves
relative image paths against the backend base URL.
*/
func TestService_PairSimilarity(t *testing.T) {
	testEnv := newEnv(t)
	other := testEnv.stub.SeedUser("a@twinlook.app", "anna", "hunter2hunter2")
	testEnv.stub.SeedPhoto(testEnv.selfID, []byte("my photo bytes"))
	testEnv.stub.SeedPhoto(other, []byte("their photo bytes"))

	pair, err := testEnv.service.PairSimilarity(context.Background(), testEnv.selfID, other)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, pair.Cosine, -1.0)
	assert.LessOrEqual(t, pair.Cosine, 1.0)
	assert.Equal(t, friends.Percent(pair.Cosine), pair.Percent)
	assert.Contains(t, pair.MyImageURL, testEnv.baseURL)
	assert.Contains(t, pair.FriendImageURL, testEnv.baseURL)
}

/*
TestService_PairSimilarityNoPhoto surfaces the backend's not-found message.
*/
func TestService_PairSimilarityNoPhoto(t *testing.T) {
	testEnv := newEnv(t)
	other := testEnv.stub.SeedUser("a@twinlook.app", "anna", "hunter2hunter2")

	_, err := testEnv.service.PairSimilarity(context.Background(), testEnv.selfID, other)
	require.Error(t, err)
}
