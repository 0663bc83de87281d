// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package shell_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkjiho/twinlook/internal/contests"
	"github.com/parkjiho/twinlook/internal/friends"
	"github.com/parkjiho/twinlook/internal/lookalike"
	"github.com/parkjiho/twinlook/internal/notifications"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/profile"
	"github.com/parkjiho/twinlook/internal/session"
	"github.com/parkjiho/twinlook/internal/shell"
	"github.com/parkjiho/twinlook/internal/stubserver"
)

type shellEnv struct {
	stub   *stubserver.Server
	deps   shell.Deps
	store  *session.Store
	selfID int64
}

func newShellEnv(t *testing.T) *shellEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	stub := stubserver.New(log)
	server := httptest.NewServer(stub.Router())
	t.Cleanup(func() {
		server.Close()
		stub.Close()
	})

	selfID := stub.SeedUser("jiho@twinlook.app", "jiho", "hunter2hunter2")

	store := session.NewStore(filepath.Join(t.TempDir(), "token"))
	client, err := rest.New(server.URL, store, log)
	require.NoError(t, err)

	friendsService := friends.NewService(client, store, log)
	return &shellEnv{
		stub:   stub,
		store:  store,
		selfID: selfID,
		deps: shell.Deps{
			Sessions:      store,
			Auth:          session.NewService(client, session.GoogleSettings{}),
			Profiles:      profile.NewLoader(client),
			Pipeline:      lookalike.NewPipeline(client, log),
			Friends:       friendsService,
			Contests:      contests.NewService(client, log),
			Notifications: notifications.NewService(client, friendsService, log),
			Log:           log,
			Sleep:         func(time.Duration) {},
		},
	}
}

// run drives one scripted shell session to EOF and returns its output.
func (testEnv *shellEnv) run(t *testing.T, script string) string {
	t.Helper()

	var out bytes.Buffer
	terminal := shell.New(testEnv.deps, strings.NewReader(script), &out)
	require.NoError(t, terminal.Run(context.Background()))
	return out.String()
}

/*
TestShell_LoginAndWhoami signs in and loads the profile exactly once.
*/
func TestShell_LoginAndWhoami(t *testing.T) {
	testEnv := newShellEnv(t)

	out := testEnv.run(t, strings.Join([]string{
		"login jiho@twinlook.app hunter2hunter2",
		"whoami",
		"whoami",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "Signed in.")
	assert.Contains(t, out, "jiho <jiho@twinlook.app>")

	// Once per token change, never per command.
	assert.Equal(t, 1, testEnv.stub.Calls("/api/profile"))
}

/*
TestShell_BadLoginNotice renders the single blocking failure line.
*/
func TestShell_BadLoginNotice(t *testing.T) {
	testEnv := newShellEnv(t)

	out := testEnv.run(t, "login jiho@twinlook.app wrong-password\nquit\n")

	assert.Contains(t, out, "[!] Invalid email or password")
	assert.Contains(t, out, "login> ")
}

/*
TestShell_RestoredSession skips the login screen entirely.
*/
func TestShell_RestoredSession(t *testing.T) {
	testEnv := newShellEnv(t)
	require.NoError(t, testEnv.store.Login(testEnv.stub.TokenFor(testEnv.selfID)))

	out := testEnv.run(t, "whoami\nquit\n")

	assert.Contains(t, out, "jiho <jiho@twinlook.app>")
	assert.NotContains(t, out, "login> ")
	assert.Equal(t, 1, testEnv.stub.Calls("/api/profile"))
}

/*
TestShell_Logout returns to the login screen and clears the profile.
*/
func TestShell_Logout(t *testing.T) {
	testEnv := newShellEnv(t)

	out := testEnv.run(t, strings.Join([]string{
		"login jiho@twinlook.app hunter2hunter2",
		"logout",
		"whoami",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "Signed out.")
	// After logout "whoami" hits the login dispatcher's usage line.
	assert.Contains(t, out, "commands: login, register, google, code, quit")
}

/*
TestShell_TabSwitchMounts fetches the target tab's list on mount.
*/
func TestShell_TabSwitchMounts(t *testing.T) {
	testEnv := newShellEnv(t)

	testEnv.run(t, strings.Join([]string{
		"login jiho@twinlook.app hunter2hunter2",
		"tab friends",
		"tab contests",
		"tab inbox",
		"quit",
	}, "\n"))

	assert.Equal(t, 1, testEnv.stub.Calls("/friends"))
	assert.Equal(t, 1, testEnv.stub.Calls("/contests"))
	assert.Equal(t, 1, testEnv.stub.Calls("/notifications"))
}

/*
TestShell_FriendSearchAndAdd sends a request to a search result by number.
*/
func TestShell_FriendSearchAndAdd(t *testing.T) {
	testEnv := newShellEnv(t)
	testEnv.stub.SeedUser("zoe@twinlook.app", "Zoë", "hunter2hunter2")

	out := testEnv.run(t, strings.Join([]string{
		"login jiho@twinlook.app hunter2hunter2",
		"tab friends",
		"search zoe",
		"add 1",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "1) Zoë")
	assert.Contains(t, out, "Friend request sent to Zoë.")
	assert.Equal(t, 1, testEnv.stub.Calls("/friendship_add"))
	assert.Equal(t, 1, testEnv.stub.Calls("/notification_add"))
}

/*
TestShell_ContestDeleteNeedsConfirm does nothing when the user answers no.
*/
func TestShell_ContestDeleteNeedsConfirm(t *testing.T) {
	testEnv := newShellEnv(t)
	contestID := testEnv.stub.SeedContest("Best Fox", "Hana Sato")

	out := testEnv.run(t, strings.Join([]string{
		"login jiho@twinlook.app hunter2hunter2",
		"tab contests",
		fmt.Sprintf("delete %d", contestID),
		"n",
		"list",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "Delete this contest? [y/N]: ")
	assert.NotContains(t, out, "Contest deleted.")
	assert.Contains(t, out, "Best Fox")
	// Declined confirmations never reach the backend.
	assert.Equal(t, 0, testEnv.stub.Calls(fmt.Sprintf("/contests/%d", contestID)))
}

/*
TestShell_ContestDeleteConfirmed removes the contest and refetches.
*/
func TestShell_ContestDeleteConfirmed(t *testing.T) {
	testEnv := newShellEnv(t)
	contestID := testEnv.stub.SeedContest("Best Fox", "Hana Sato")

	out := testEnv.run(t, strings.Join([]string{
		"login jiho@twinlook.app hunter2hunter2",
		"tab contests",
		fmt.Sprintf("delete %d", contestID),
		"y",
		"list",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "Contest deleted.")
	assert.NotContains(t, out, "Best Fox (target")
	assert.Equal(t, 1, testEnv.stub.Calls(fmt.Sprintf("/contests/%d", contestID)))
	// Mutate refetches the list after the delete succeeds.
	assert.Equal(t, 2, testEnv.stub.Calls("/contests"))
}

/*
TestShell_InboxAccept resolves a friend request end to end.
*/
func TestShell_InboxAccept(t *testing.T) {
	testEnv := newShellEnv(t)
	requester := testEnv.stub.SeedUser("zoe@twinlook.app", "Zoë", "hunter2hunter2")
	friendshipID := testEnv.stub.SeedFriendship(requester, testEnv.selfID, friends.StatusPending)
	notificationID := testEnv.stub.SeedFriendRequestNotification(testEnv.selfID, friendshipID)

	out := testEnv.run(t, strings.Join([]string{
		"login jiho@twinlook.app hunter2hunter2",
		"tab inbox",
		"list",
		fmt.Sprintf("accept %d", notificationID),
		"list",
		"tab friends",
		"list",
		"quit",
	}, "\n"))

	assert.Contains(t, out, fmt.Sprintf("* #%d  You have a new friend request", notificationID))
	assert.Contains(t, out, "Friend request accepted.")
	// The accepted requester shows up in the friends list afterwards.
	assert.Contains(t, out, fmt.Sprintf("#%d  Zoë", friendshipID))
	assert.Equal(t, 1, testEnv.stub.Calls(fmt.Sprintf("/friendship/%d", friendshipID)))
	assert.Equal(t, 1, testEnv.stub.Calls("/notification_delete"))
}

/*
TestShell_UnknownTab stays unmounted.
*/
func TestShell_UnknownTab(t *testing.T) {
	testEnv := newShellEnv(t)

	out := testEnv.run(t, strings.Join([]string{
		"login jiho@twinlook.app hunter2hunter2",
		"tab settings",
		"quit",
	}, "\n"))

	assert.Contains(t, out, "unknown tab: settings")
	assert.Contains(t, out, "home> ")
}
