// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package shell implements the interactive terminal frontend.

The shell owns the three pieces of cross-feature state — the session store,
the loaded profile, and the active tab — and mounts exactly one feature tab
at a time. Feature modules never talk to each other; everything they share
arrives through the shell.

Architecture:

  - Login screen: email/password, registration, and the Google consent-URL
    flow. Until a token exists no tab is reachable.
  - Tabs: lookalike, friends, contests, inbox. Switching tabs remounts the
    target tab's collection and triggers its fetch.
  - Notices: every surfaced failure renders as one blocking "[!]" line
    with the apperr message; details stay in the log.

Input and output are injected as plain reader/writer pairs, so the whole
shell runs under tests without a terminal.
*/
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/parkjiho/twinlook/internal/contests"
	"github.com/parkjiho/twinlook/internal/friends"
	"github.com/parkjiho/twinlook/internal/lookalike"
	"github.com/parkjiho/twinlook/internal/notifications"
	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/constants"
	"github.com/parkjiho/twinlook/internal/profile"
	"github.com/parkjiho/twinlook/internal/session"
)

// Tab names as typed by the user.
const (
	TabLookalike = "lookalike"
	TabFriends   = "friends"
	TabContests  = "contests"
	TabInbox     = "inbox"
)

// Deps bundles everything the shell needs. All fields are required except
// Sleep, which defaults to time.Sleep.
type Deps struct {
	Sessions      *session.Store
	Auth          *session.Service
	Profiles      *profile.Loader
	Pipeline      *lookalike.Pipeline
	Friends       *friends.Service
	Contests      *contests.Service
	Notifications *notifications.Service
	Log           *slog.Logger

	// Sleep is the cosmetic delay hook; tests inject a no-op.
	Sleep func(time.Duration)
}

// Shell is the terminal frontend. Construct with [New], drive with
// [Shell.Run].
type Shell struct {
	deps Deps

	in  *bufio.Scanner
	out io.Writer

	// Cross-feature state, owned here and nowhere else.
	profile      *profile.Profile
	profileToken string
	activeTab    string

	// Per-tab mounted state; nil unless the matching tab is active.
	friendsTab  *friendsTab
	contestsTab *contestsTab
	inboxTab    *inboxTab
}

// New constructs a [Shell] reading commands from in and rendering to out.
func New(deps Deps, in io.Reader, out io.Writer) *Shell {
	if deps.Sleep == nil {
		deps.Sleep = time.Sleep
	}
	return &Shell{
		deps: deps,
		in:   bufio.NewScanner(in),
		out:  out,
	}
}

// # Event Loop

/*
Run drives the shell until the input closes or the user quits.

Description: Restores a persisted session first; a restored token skips
the login screen entirely. The profile is fetched once per token change —
on restore and after each successful login — never per command.

Parameters:
  - ctx: context.Context

Returns:
  - err: nil on a clean quit; scanner failures otherwise
*/
func (shell *Shell) Run(ctx context.Context) error {
	if _, found := shell.deps.Sessions.Restore(); found {
		shell.refreshProfile(ctx)
	}

	for {
		shell.prompt()
		if !shell.in.Scan() {
			return shell.in.Err()
		}

		line := strings.TrimSpace(shell.in.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			return nil
		}

		if shell.deps.Sessions.Authenticated() {
			shell.dispatch(ctx, line)
		} else {
			shell.dispatchLogin(ctx, line)
		}
	}
}

func (shell *Shell) prompt() {
	if !shell.deps.Sessions.Authenticated() {
		fmt.Fprint(shell.out, "login> ")
		return
	}
	tab := shell.activeTab
	if tab == "" {
		tab = "home"
	}
	fmt.Fprintf(shell.out, "%s> ", tab)
}

// Profile returns the currently loaded profile, nil before the first
// successful fetch.
func (shell *Shell) Profile() *profile.Profile {
	return shell.profile
}

// ActiveTab returns the mounted tab name, "" when none is mounted.
func (shell *Shell) ActiveTab() string {
	return shell.activeTab
}

// # Login Screen

func (shell *Shell) dispatchLogin(ctx context.Context, line string) {
	fields := strings.Fields(line)
	switch fields[0] {

	case "login":
		if len(fields) != 3 {
			shell.say("usage: login <email> <password>")
			return
		}
		token, _, err := shell.deps.Auth.EmailLogin(ctx, fields[1], fields[2])
		if err != nil {
			shell.notice(err)
			return
		}
		shell.completeLogin(ctx, token)

	case "register":
		if len(fields) != 4 {
			shell.say("usage: register <email> <nickname> <password>")
			return
		}
		if err := shell.deps.Auth.Register(ctx, fields[1], fields[2], fields[3]); err != nil {
			shell.notice(err)
			return
		}
		// Registration does not log in; back to the login form.
		shell.say("Account created. Sign in to continue.")

	case "google":
		if !shell.deps.Auth.GoogleConfigured() {
			shell.say("Google sign-in is not configured.")
			return
		}
		shell.say("Open this URL, approve access, then run: code <authorization-code>")
		shell.say(shell.deps.Auth.GoogleAuthURL())

	case "code":
		if len(fields) != 2 {
			shell.say("usage: code <authorization-code>")
			return
		}
		token, _, err := shell.deps.Auth.GoogleLogin(ctx, fields[1])
		if err != nil {
			shell.notice(err)
			return
		}
		shell.completeLogin(ctx, token)

	default:
		shell.say("commands: login, register, google, code, quit")
	}
}

// completeLogin persists the token and performs the once-per-token profile
// fetch.
func (shell *Shell) completeLogin(ctx context.Context, token string) {
	if err := shell.deps.Sessions.Login(token); err != nil {
		// The in-memory session still works; only persistence failed.
		shell.deps.Log.Warn("session_persist_failed", slog.Any("error", err))
	}
	shell.refreshProfile(ctx)
	shell.say("Signed in.")
}

// refreshProfile loads the profile if the token changed since the last
// load. A failed fetch keeps the previous profile and only logs.
func (shell *Shell) refreshProfile(ctx context.Context) {
	token := shell.deps.Sessions.Token()
	if token == "" || token == shell.profileToken {
		return
	}

	loaded, err := shell.deps.Profiles.Load(ctx)
	if err != nil {
		shell.deps.Log.Warn("profile_load_failed", slog.Any("error", err))
		return
	}
	shell.profile = loaded
	shell.profileToken = token
}

// # Authenticated Dispatch

func (shell *Shell) dispatch(ctx context.Context, line string) {
	fields := strings.Fields(line)
	switch fields[0] {

	case "tab":
		if len(fields) != 2 {
			shell.say("usage: tab <lookalike|friends|contests|inbox>")
			return
		}
		shell.mountTab(ctx, fields[1])

	case "logout":
		if err := shell.deps.Sessions.Logout(); err != nil {
			shell.notice(err)
			return
		}
		shell.profile = nil
		shell.profileToken = ""
		shell.unmountTab()
		shell.say("Signed out.")

	case "whoami":
		if shell.profile == nil {
			shell.say("(profile not loaded)")
			return
		}
		shell.say(fmt.Sprintf("%s <%s>", shell.profile.Nickname, shell.profile.Email))

	default:
		if shell.activeTab == "" {
			shell.say("commands: tab, whoami, logout, quit")
			return
		}
		shell.dispatchTab(ctx, fields)
	}
}

// mountTab switches the active tab, dropping the previous tab's state and
// triggering the new tab's initial fetch.
func (shell *Shell) mountTab(ctx context.Context, tab string) {
	switch tab {
	case TabLookalike, TabFriends, TabContests, TabInbox:
	default:
		shell.say("unknown tab: " + tab)
		return
	}

	shell.unmountTab()
	shell.activeTab = tab

	switch tab {
	case TabFriends:
		shell.friendsTab = newFriendsTab(shell)
		shell.friendsTab.mount(ctx)
	case TabContests:
		shell.contestsTab = newContestsTab(shell)
		shell.contestsTab.mount(ctx)
	case TabInbox:
		shell.inboxTab = newInboxTab(shell)
		shell.inboxTab.mount(ctx)
	}
}

func (shell *Shell) unmountTab() {
	shell.activeTab = ""
	shell.friendsTab = nil
	shell.contestsTab = nil
	shell.inboxTab = nil
}

func (shell *Shell) dispatchTab(ctx context.Context, fields []string) {
	switch shell.activeTab {
	case TabLookalike:
		shell.dispatchLookalike(ctx, fields)
	case TabFriends:
		shell.friendsTab.dispatch(ctx, fields)
	case TabContests:
		shell.contestsTab.dispatch(ctx, fields)
	case TabInbox:
		shell.inboxTab.dispatch(ctx, fields)
	}
}

// # Lookalike Tab

// dispatchLookalike handles the upload command. The tab holds no remote
// collection; each upload is a one-shot pipeline run.
func (shell *Shell) dispatchLookalike(ctx context.Context, fields []string) {
	switch fields[0] {

	case "upload":
		if len(fields) != 2 {
			shell.say("usage: upload <image-path>")
			return
		}

		startTime := time.Now()
		shell.say("Searching for your look-alike...")

		result, err := shell.deps.Pipeline.FromFile(ctx, fields[1])

		// The overlay stays up for a minimum duration even when the
		// backend answers instantly.
		if remaining := constants.SpinnerFloor - time.Since(startTime); remaining > 0 {
			shell.deps.Sleep(remaining)
		}

		if err != nil {
			shell.notice(err)
			return
		}
		shell.say(fmt.Sprintf("Animal match: %s (%.0f%%)", result.Animal, result.AnimalConfidence*100))
		shell.say(fmt.Sprintf("Celebrity match: %s (%d%%)", result.Celebrity, friends.Percent(result.Similarity)))

	default:
		shell.say("commands: upload <image-path>")
	}
}

// # Rendering Helpers

func (shell *Shell) say(message string) {
	fmt.Fprintln(shell.out, message)
}

// notice renders any error as the single blocking failure line.
func (shell *Shell) notice(err error) {
	fmt.Fprintf(shell.out, "[!] %s\n", apperr.UserMessage(err))
}

// confirm asks a yes/no question and reads one answer line.
func (shell *Shell) confirm(question string) bool {
	fmt.Fprintf(shell.out, "%s [y/N]: ", question)
	if !shell.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(shell.in.Text()))
	return answer == "y" || answer == "yes"
}

// parseID parses a numeric command argument.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}
