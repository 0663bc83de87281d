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
	"github.com/parkjiho/twinlook/pkg/pointer"
)

// # Catalogue

// handleContestsList returns every contest with its current participants.
func (server *Server) handleContestsList(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	results := make([]map[string]any, 0)
	for _, contest := range server.contests {
		results = append(results, map[string]any{
			"contest_id":   contest.ID,
			"title":        contest.Title,
			"description":  contest.Description,
			"target_name":  contest.TargetName,
			"image_url":    contest.ImageURL,
			"status":       contest.Status,
			"participants": server.participantsOf(contest.ID),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i]["contest_id"].(int64) < results[j]["contest_id"].(int64)
	})
	writeJSON(writer, http.StatusOK, results)
}

// participantsOf collects entrant summaries for a contest.
// Caller must hold server.mu.
func (server *Server) participantsOf(contestID int64) []map[string]any {
	participants := make([]map[string]any, 0)
	for _, entry := range server.entries {
		if entry.ContestID != contestID {
			continue
		}
		user, found := server.users[entry.UserID]
		if !found {
			continue
		}
		payload := map[string]any{
			"user_id":           user.ID,
			"nickname":          user.Nickname,
			"profile_image_url": nil,
		}
		if user.AvatarURL != "" {
			payload["profile_image_url"] = user.AvatarURL
		}
		participants = append(participants, payload)
	}

	sort.Slice(participants, func(i, j int) bool {
		return participants[i]["user_id"].(int64) < participants[j]["user_id"].(int64)
	})
	return participants
}

// handleContestAdd creates a contest from a multipart form carrying the
// target image.
func (server *Server) handleContestAdd(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	if err := request.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(writer, request, validate.RequiredError("form", "Malformed multipart form"))
		return
	}

	title := request.FormValue("title")
	targetName := request.FormValue("target_name")
	status := request.FormValue("status")

	v := &validate.Validator{}
	v.Required("title", title).
		Required("target_name", targetName).
		OneOf("status", status, "open", "closed")
	if err := v.Err(); err != nil {
		writeError(writer, request, err)
		return
	}

	file, _, err := request.FormFile("file")
	if err != nil {
		writeError(writer, request, validate.RequiredError("file", "Missing file part"))
		return
	}
	_ = file.Close()

	server.mu.Lock()
	contestID := server.allocID()
	contest := &contestRecord{
		ID:              contestID,
		Title:           title,
		Description:     request.FormValue("description"),
		TargetName:      targetName,
		ImageURL:        "uploads/contest-" + strconv.FormatInt(contestID, 10) + ".png",
		Status:          status,
		TargetEmbedding: nameEmbedding(targetName),
	}
	server.contests[contest.ID] = contest
	server.mu.Unlock()

	writeJSON(writer, http.StatusCreated, map[string]any{"contest_id": contest.ID})
}

// handleContestDelete removes a contest together with its entries and
// stored ranking.
func (server *Server) handleContestDelete(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	contestID, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil {
		writeError(writer, request, validate.RequiredError("id", "Must be a numeric contest id"))
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	if _, found := server.contests[contestID]; !found {
		writeError(writer, request, apperr.NotFound("Contest"))
		return
	}

	delete(server.contests, contestID)
	delete(server.top3, contestID)
	for id, entry := range server.entries {
		if entry.ContestID == contestID {
			delete(server.entries, id)
		}
	}
	noContent(writer)
}

// # Ranking & Entries

// handleContestTop3 returns the stored ranking, padding absent positions
// with null.
func (server *Server) handleContestTop3(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	contestID, err := queryID(request, "contestId")
	if err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	ranking := server.top3[contestID]
	server.mu.Unlock()

	payload := map[string]any{"first": nil, "second": nil, "third": nil}
	positions := []string{"first", "second", "third"}
	for i, entry := range ranking {
		if i >= len(positions) {
			break
		}
		payload[positions[i]] = entry
	}
	writeJSON(writer, http.StatusOK, payload)
}

// handleEntryCheck reports whether a user already entered a contest.
func (server *Server) handleEntryCheck(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	contestID, err := queryID(request, "contestId")
	if err != nil {
		writeError(writer, request, err)
		return
	}
	userID, err := queryID(request, "userId")
	if err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	exists := false
	for _, entry := range server.entries {
		if entry.ContestID == contestID && entry.UserID == userID {
			exists = true
			break
		}
	}
	server.mu.Unlock()

	writeJSON(writer, http.StatusOK, map[string]any{"exists": exists})
}

// handleEntryAdd records a contest entry. It does not deduplicate: the
// entry-check endpoint is the caller's guard, and skipping it creates a
// duplicate entry just like the real backend.
func (server *Server) handleEntryAdd(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	var payload struct {
		ContestID   int64 `json:"contest_id"`
		UserID      int64 `json:"user_id"`
		UserPhotoID int64 `json:"user_photo_id"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Positive("contest_id", payload.ContestID).
		Positive("user_id", payload.UserID).
		Positive("user_photo_id", payload.UserPhotoID)
	if err := v.Err(); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	if _, found := server.contests[payload.ContestID]; !found {
		writeError(writer, request, apperr.NotFound("Contest"))
		return
	}
	if _, found := server.photos[payload.UserPhotoID]; !found {
		writeError(writer, request, apperr.NotFound("Photo"))
		return
	}

	entry := &entryRecord{
		ID:          server.allocID(),
		ContestID:   payload.ContestID,
		UserID:      payload.UserID,
		UserPhotoID: payload.UserPhotoID,
	}
	server.entries[entry.ID] = entry

	writeJSON(writer, http.StatusCreated, map[string]any{"contest_entry_id": entry.ID})
}

// handleTop3Recompute rescores every entry of a contest against the target
// embedding and stores the top three.
func (server *Server) handleTop3Recompute(writer http.ResponseWriter, request *http.Request) {
	if _, err := requiredUser(request); err != nil {
		writeError(writer, request, err)
		return
	}

	var payload struct {
		ContestID int64 `json:"contest_id"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	contest, found := server.contests[payload.ContestID]
	if !found {
		writeError(writer, request, apperr.NotFound("Contest"))
		return
	}

	ranking := make([]rankedEntry, 0)
	for _, entry := range server.entries {
		if entry.ContestID != contest.ID {
			continue
		}
		photo, ok := server.photos[entry.UserPhotoID]
		if !ok {
			continue
		}
		ranking = append(ranking, rankedEntry{
			UserID:      entry.UserID,
			Similarity:  pointer.To(cosine(photo.Embedding, contest.TargetEmbedding)),
			UserPhotoID: photo.ID,
			ImageURL:    photo.ImageURL,
		})
	}

	sort.Slice(ranking, func(i, j int) bool {
		return *ranking[i].Similarity > *ranking[j].Similarity
	})
	if len(ranking) > 3 {
		ranking = ranking[:3]
	}
	server.top3[contest.ID] = ranking

	noContent(writer)
}

// queryID parses a required numeric query parameter.
func queryID(request *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(request.URL.Query().Get(name), 10, 64)
	if err != nil || value <= 0 {
		return 0, validate.RequiredError(name, "Must be a positive numeric id")
	}
	return value, nil
}
