// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package stubserver

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/validate"
)

// maxUploadBytes caps how much of an upload the stub reads.
const maxUploadBytes = 16 << 20

// rankedEntry is one position in a contest's stored top-3 ranking.
type rankedEntry struct {
	UserID      int64    `json:"user_id"`
	Similarity  *float64 `json:"similarity"`
	UserPhotoID int64    `json:"user_photo_id"`
	ImageURL    string   `json:"image_url"`
}

// # Upload

// handleUpload accepts a multipart photo, stores it, and returns the
// processed metadata: hosted URL, facial box, and serialized embedding.
func (server *Server) handleUpload(writer http.ResponseWriter, request *http.Request) {
	claims, err := requiredUser(request)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	file, _, err := request.FormFile("file")
	if err != nil {
		writeError(writer, request, validate.RequiredError("file", "Missing file part"))
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(writer, request, apperr.Internal(err))
		return
	}
	if len(content) == 0 {
		writeError(writer, request, validate.RequiredError("file", "Empty file part"))
		return
	}

	server.mu.Lock()
	photo := server.storePhoto(claims.UserID, content)
	serialized := photo.Serialized
	if server.breakEmbeddings {
		serialized = "{not-json}"
		photo.Serialized = serialized
	}
	server.mu.Unlock()

	writeJSON(writer, http.StatusCreated, map[string]any{
		"photo": map[string]any{
			"user_photo_id":     photo.ID,
			"image_url":         photo.ImageURL,
			"uploaded_at":       photo.UploadedAt.Format(time.RFC3339),
			"facial_area":       photo.Area,
			"facial_confidence": photo.Confidence,
			"embedding":         serialized,
		},
	})
}

// storePhoto creates a photo record with a derived embedding and a fixed
// centered facial box. Caller must hold server.mu.
func (server *Server) storePhoto(userID int64, content []byte) *photoRecord {
	vector := pseudoEmbedding(content)
	photo := &photoRecord{
		ID:         server.allocID(),
		UserID:     userID,
		ImageURL:   "uploads/" + uuid.New().String() + ".png",
		UploadedAt: time.Now().UTC(),
		Embedding:  vector,
		Serialized: serializeEmbedding(vector),
		Area:       facialArea{X: 120, Y: 80, W: 200, H: 200},
		Confidence: 0.97,
	}
	server.photos[photo.ID] = photo
	return photo
}

// latestPhotoOf returns the newest photo of a user, or nil.
// Caller must hold server.mu.
func (server *Server) latestPhotoOf(userID int64) *photoRecord {
	var latest *photoRecord
	for _, photo := range server.photos {
		if photo.UserID != userID {
			continue
		}
		if latest == nil || photo.ID > latest.ID {
			latest = photo
		}
	}
	return latest
}

// # Similarity Lookups

// handleSimilarAnimal scores the cropped face region against the animal
// pool. The crop parameters are accepted but only the hosted image
// identity feeds the deterministic pick.
func (server *Server) handleSimilarAnimal(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		ImageURL string `json:"image_url"`
		X        int    `json:"x"`
		Y        int    `json:"y"`
		W        int    `json:"w"`
		H        int    `json:"h"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("image_url", payload.ImageURL)
	if err := v.Err(); err != nil {
		writeError(writer, request, err)
		return
	}

	animal, confidence := pickAnimal(pseudoEmbedding([]byte(payload.ImageURL)))
	writeJSON(writer, http.StatusOK, map[string]any{
		"animal":            animal,
		"animal_confidence": confidence,
	})
}

// handleMostSimilar finds the celebrity whose derived embedding is closest
// to the submitted vector.
func (server *Server) handleMostSimilar(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		EmbeddingVector []float64 `json:"embedding_vector"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}
	if len(payload.EmbeddingVector) == 0 {
		writeError(writer, request, validate.RequiredError("embedding_vector", "Missing embedding vector"))
		return
	}

	name, index, score := nearestCelebrity(payload.EmbeddingVector)
	writeJSON(writer, http.StatusOK, map[string]any{
		"target_photo_id": int64(index + 1),
		"image_url":       "celebrities/" + strconv.Itoa(index+1) + ".png",
		"name":            name,
		"similarity":      score,
		"type":            "celebrity",
		"created_at":      time.Now().UTC().Format(time.RFC3339),
	})
}

// handleLatestPhotoID returns a user's most recent photo id, or zero when
// the user never uploaded.
func (server *Server) handleLatestPhotoID(writer http.ResponseWriter, request *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(request, "userId"), 10, 64)
	if err != nil {
		writeError(writer, request, validate.RequiredError("userId", "Must be a numeric user id"))
		return
	}

	server.mu.Lock()
	latest := server.latestPhotoOf(userID)
	server.mu.Unlock()

	var photoID int64
	if latest != nil {
		photoID = latest.ID
	}
	writeJSON(writer, http.StatusOK, map[string]any{"user_photo_id": photoID})
}

// handlePairSimilarity compares the latest photos of two users.
func (server *Server) handlePairSimilarity(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		UserID1 int64 `json:"user_id1"`
		UserID2 int64 `json:"user_id2"`
	}
	if err := decodeJSON(request, &payload); err != nil {
		writeError(writer, request, err)
		return
	}

	server.mu.Lock()
	first := server.latestPhotoOf(payload.UserID1)
	second := server.latestPhotoOf(payload.UserID2)
	server.mu.Unlock()

	if first == nil || second == nil {
		writeError(writer, request, apperr.NotFound("Photo"))
		return
	}

	writeJSON(writer, http.StatusOK, map[string]any{
		"cosine_similarity": cosine(first.Embedding, second.Embedding),
		"user1_image_url":   first.ImageURL,
		"user2_image_url":   second.ImageURL,
	})
}
