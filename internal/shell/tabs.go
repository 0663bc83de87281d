// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parkjiho/twinlook/internal/contests"
	"github.com/parkjiho/twinlook/internal/friends"
	"github.com/parkjiho/twinlook/internal/notifications"
	"github.com/parkjiho/twinlook/internal/platform/remote"
)

// # Friends Tab

type friendsTab struct {
	shell      *Shell
	collection *remote.Collection[friends.Friendship]
	// lastSearch caches the most recent search results so "add <n>"
	// can reference them by position.
	lastSearch []friends.UserSummary
}

func newFriendsTab(shell *Shell) *friendsTab {
	return &friendsTab{
		shell: shell,
		collection: remote.NewCollection("friends",
			shell.deps.Friends.List),
	}
}

func (tab *friendsTab) mount(ctx context.Context) {
	if err := tab.collection.Load(ctx); err != nil {
		tab.shell.notice(err)
	}
}

func (tab *friendsTab) dispatch(ctx context.Context, fields []string) {
	shell := tab.shell
	switch fields[0] {

	case "list":
		for _, friendship := range tab.collection.Items() {
			shell.say(fmt.Sprintf("#%d  %s", friendship.ID, friendship.User.Nickname))
		}

	case "search":
		if len(fields) < 2 {
			shell.say("usage: search <nickname>")
			return
		}
		results, err := shell.deps.Friends.Search(ctx, fields[1])
		if err != nil {
			shell.notice(err)
			return
		}
		tab.lastSearch = results
		for i, user := range results {
			shell.say(fmt.Sprintf("%d) %s (id %d)", i+1, user.Nickname, user.ID))
		}
		if len(results) == 0 {
			shell.say("No users found.")
		}

	case "add":
		if len(fields) != 2 {
			shell.say("usage: add <result-number>")
			return
		}
		index, ok := parseID(fields[1])
		if !ok || int(index) > len(tab.lastSearch) {
			shell.say("Run search first, then add by result number.")
			return
		}
		if shell.profile == nil {
			shell.say("(profile not loaded)")
			return
		}
		target := tab.lastSearch[index-1]
		if err := shell.deps.Friends.SendRequest(ctx, shell.profile.ID, target); err != nil {
			shell.notice(err)
			return
		}
		shell.say("Friend request sent to " + target.Nickname + ".")

	case "similar":
		if len(fields) != 2 {
			shell.say("usage: similar <user-id>")
			return
		}
		otherID, ok := parseID(fields[1])
		if !ok {
			shell.say("usage: similar <user-id>")
			return
		}
		if shell.profile == nil {
			shell.say("(profile not loaded)")
			return
		}
		pair, err := shell.deps.Friends.PairSimilarity(ctx, shell.profile.ID, otherID)
		if err != nil {
			shell.notice(err)
			return
		}
		shell.say(fmt.Sprintf("You look %d%% alike.", pair.Percent))

	default:
		shell.say("commands: list, search, add, similar")
	}
}

// # Contests Tab

type contestsTab struct {
	shell      *Shell
	collection *remote.Collection[contests.Contest]
}

func newContestsTab(shell *Shell) *contestsTab {
	return &contestsTab{
		shell: shell,
		collection: remote.NewCollection("contests",
			shell.deps.Contests.List),
	}
}

func (tab *contestsTab) mount(ctx context.Context) {
	if err := tab.collection.Load(ctx); err != nil {
		tab.shell.notice(err)
	}
}

func (tab *contestsTab) dispatch(ctx context.Context, fields []string) {
	shell := tab.shell
	switch fields[0] {

	case "list":
		for _, contest := range tab.collection.Items() {
			shell.say(fmt.Sprintf("#%d  %s (target: %s, %d entrants)",
				contest.ID, contest.Title, contest.TargetName, len(contest.Participants)))
		}

	case "create":
		if len(fields) != 4 {
			shell.say("usage: create <title> <target-name> <image-path>")
			return
		}
		file, err := os.Open(fields[3])
		if err != nil {
			shell.say("Cannot open the target image.")
			return
		}
		defer func() { _ = file.Close() }()

		input := contests.CreateInput{
			Title:      fields[1],
			TargetName: fields[2],
			ImageName:  filepath.Base(fields[3]),
			Image:      file,
		}
		err = tab.collection.Mutate(ctx, func(ctx context.Context) error {
			return shell.deps.Contests.Create(ctx, input)
		})
		if err != nil {
			shell.notice(err)
			return
		}
		shell.say("Contest created.")

	case "delete":
		if len(fields) != 2 {
			shell.say("usage: delete <contest-id>")
			return
		}
		contestID, ok := parseID(fields[1])
		if !ok {
			shell.say("usage: delete <contest-id>")
			return
		}
		if !shell.confirm("Delete this contest?") {
			return
		}
		err := tab.collection.Mutate(ctx, func(ctx context.Context) error {
			return shell.deps.Contests.Delete(ctx, contestID)
		})
		if err != nil {
			shell.notice(err)
			return
		}
		shell.say("Contest deleted.")

	case "open":
		if len(fields) != 2 {
			shell.say("usage: open <contest-id>")
			return
		}
		contestID, ok := parseID(fields[1])
		if !ok {
			shell.say("usage: open <contest-id>")
			return
		}
		ranking, err := shell.deps.Contests.TopThreeRanks(ctx, contestID)
		if err != nil {
			shell.notice(err)
			return
		}
		positions := []struct {
			label string
			entry *contests.RankEntry
		}{
			{"1st", ranking.First}, {"2nd", ranking.Second}, {"3rd", ranking.Third},
		}
		for _, position := range positions {
			if position.entry == nil {
				shell.say(position.label + ": (open)")
				continue
			}
			score := "unscored"
			if position.entry.Similarity != nil {
				score = fmt.Sprintf("%d%%", friends.Percent(*position.entry.Similarity))
			}
			shell.say(fmt.Sprintf("%s: user %d (%s)", position.label, position.entry.UserID, score))
		}
		for _, contest := range tab.collection.Items() {
			if contest.ID != contestID {
				continue
			}
			for _, participant := range contest.Participants {
				shell.say("entrant: " + participant.Nickname)
			}
		}

	case "challenge":
		if len(fields) != 2 {
			shell.say("usage: challenge <contest-id>")
			return
		}
		contestID, ok := parseID(fields[1])
		if !ok {
			shell.say("usage: challenge <contest-id>")
			return
		}
		if shell.profile == nil {
			shell.say("(profile not loaded)")
			return
		}
		err := tab.collection.Mutate(ctx, func(ctx context.Context) error {
			return shell.deps.Contests.Challenge(ctx, contestID, shell.profile.ID)
		})
		if err != nil {
			shell.notice(err)
			return
		}
		shell.say("Entered the contest.")

	default:
		shell.say("commands: list, create, delete, open, challenge")
	}
}

// # Inbox Tab

type inboxTab struct {
	shell      *Shell
	collection *remote.Collection[notifications.Notification]
}

func newInboxTab(shell *Shell) *inboxTab {
	return &inboxTab{
		shell: shell,
		collection: remote.NewCollection("notifications",
			shell.deps.Notifications.List),
	}
}

func (tab *inboxTab) mount(ctx context.Context) {
	if err := tab.collection.Load(ctx); err != nil {
		tab.shell.notice(err)
	}
}

func (tab *inboxTab) dispatch(ctx context.Context, fields []string) {
	shell := tab.shell
	switch fields[0] {

	case "list":
		for _, notification := range tab.collection.Items() {
			marker := " "
			if notification.Interactable() {
				marker = "*"
			}
			shell.say(fmt.Sprintf("%s #%d  %s", marker, notification.ID, notification.Message))
		}

	case "delete":
		notification, ok := tab.pick(fields)
		if !ok {
			return
		}
		if !shell.confirm("Delete this notification?") {
			return
		}
		if shell.profile == nil {
			shell.say("(profile not loaded)")
			return
		}
		if err := shell.deps.Notifications.Delete(ctx, shell.profile.ID, notification.ID); err != nil {
			// The notification stays in the inbox on failure.
			shell.notice(err)
			return
		}
		tab.collection.RemoveWhere(func(item notifications.Notification) bool {
			return item.ID == notification.ID
		})
		shell.say("Notification deleted.")

	case "accept":
		notification, ok := tab.pick(fields)
		if !ok {
			return
		}
		if shell.profile == nil {
			shell.say("(profile not loaded)")
			return
		}
		err := tab.collection.Mutate(ctx, func(ctx context.Context) error {
			return shell.deps.Notifications.Accept(ctx, shell.profile.ID, notification)
		})
		if err != nil {
			shell.notice(err)
			return
		}
		shell.say("Friend request accepted.")

	case "reject":
		notification, ok := tab.pick(fields)
		if !ok {
			return
		}
		if shell.profile == nil {
			shell.say("(profile not loaded)")
			return
		}
		err := tab.collection.Mutate(ctx, func(ctx context.Context) error {
			return shell.deps.Notifications.Reject(ctx, shell.profile.ID, notification)
		})
		if err != nil {
			shell.notice(err)
			return
		}
		shell.say("Friend request rejected.")

	default:
		shell.say("commands: list, delete, accept, reject")
	}
}

// pick resolves a command's notification-id argument against the local view.
func (tab *inboxTab) pick(fields []string) (notifications.Notification, bool) {
	if len(fields) != 2 {
		tab.shell.say("usage: " + fields[0] + " <notification-id>")
		return notifications.Notification{}, false
	}
	notificationID, ok := parseID(fields[1])
	if !ok {
		tab.shell.say("usage: " + fields[0] + " <notification-id>")
		return notifications.Notification{}, false
	}
	for _, notification := range tab.collection.Items() {
		if notification.ID == notificationID {
			return notification, true
		}
	}
	tab.shell.say("No such notification.")
	return notifications.Notification{}, false
}
