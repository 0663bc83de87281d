// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package lookalike implements the photo upload pipeline and the two
similarity lookups derived from it.

Architecture:

  - Pipeline: a small state machine, Idle → Uploading → AnimalLookup →
    CelebrityLookup → Idle. Steps run strictly in sequence because each
    consumes the previous step's output (the upload yields the facial
    bounding box and the serialized embedding the lookups need).
  - Entry points: a file on disk, or a camera frame that is cropped to a
    centered square and encoded before entering the common path.

Failure at any step aborts the rest: no partial results are rendered and
no retry is attempted. The caller surfaces one generic notice.
*/
package lookalike

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/platform/validate"
)

// # States

// State is the pipeline's current phase.
type State int

const (
	StateIdle State = iota
	StateUploading
	StateAnimalLookup
	StateCelebrityLookup
)

// String renders the state for logs and the shell's spinner line.
func (s State) String() string {
	switch s {
	case StateUploading:
		return "uploading"
	case StateAnimalLookup:
		return "animal_lookup"
	case StateCelebrityLookup:
		return "celebrity_lookup"
	default:
		return "idle"
	}
}

// # Wire Types

// FacialArea is the face bounding box the backend detected in the upload.
type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Photo is the processed upload metadata returned by POST /uploaduser.
// Embedding arrives as a JSON array serialized into a string.
type Photo struct {
	UserPhotoID      int64      `json:"user_photo_id"`
	ImageURL         string     `json:"image_url"`
	UploadedAt       string     `json:"uploaded_at"`
	FacialArea       FacialArea `json:"facial_area"`
	FacialConfidence float64    `json:"facial_confidence"`
	Embedding        string     `json:"embedding"`
}

// uploadEnvelope is the wire shape of POST /uploaduser.
type uploadEnvelope struct {
	Photo *Photo `json:"photo"`
}

// animalResponse is the wire shape of POST /getsimilaranimal.
type animalResponse struct {
	Animal           string  `json:"animal"`
	AnimalConfidence float64 `json:"animal_confidence"`
}

// celebrityResponse is the wire shape of POST /find_most_similar.
type celebrityResponse struct {
	TargetPhotoID int64   `json:"target_photo_id"`
	ImageURL      string  `json:"image_url"`
	Name          string  `json:"name"`
	Similarity    float64 `json:"similarity"`
	Type          string  `json:"type"`
	CreatedAt     string  `json:"created_at"`
}

// Result carries both match names for rendering.
type Result struct {
	Animal            string
	AnimalConfidence  float64
	Celebrity         string
	CelebrityImageURL string
	Similarity        float64
	// ImageURL is the server-hosted copy of the uploaded photo, absolute.
	ImageURL string
}

// # Pipeline

// PreviewFunc receives the current display image: first the local source
// (optimistic, pre-network), then the server-hosted URL after the upload.
type PreviewFunc func(image string)

// Pipeline runs the upload-then-lookup sequence.
type Pipeline struct {
	client  *rest.Client
	log     *slog.Logger
	preview PreviewFunc

	mu    sync.Mutex
	state State
}

// NewPipeline constructs an idle [Pipeline].
func NewPipeline(client *rest.Client, log *slog.Logger) *Pipeline {
	return &Pipeline{
		client:  client,
		log:     log,
		preview: func(string) {},
		state:   StateIdle,
	}
}

// SetPreviewFunc registers the sink for preview updates.
func (pipeline *Pipeline) SetPreviewFunc(preview PreviewFunc) {
	if preview != nil {
		pipeline.preview = preview
	}
}

// State returns the pipeline's current phase.
func (pipeline *Pipeline) State() State {
	pipeline.mu.Lock()
	defer pipeline.mu.Unlock()
	return pipeline.state
}

func (pipeline *Pipeline) setState(state State) {
	pipeline.mu.Lock()
	pipeline.state = state
	pipeline.mu.Unlock()
}

/*
FromFile runs the pipeline on an image file picked from disk.

Description: The local path is rendered as an optimistic preview before any
network traffic, mirroring the blob-URL preview of the original client.

Parameters:
  - ctx: context.Context
  - path: Filesystem path of the image.

Returns:
  - *Result: Both match names, nil on any failure
  - err: The first failing step's error; later steps never ran
*/
func (pipeline *Pipeline) FromFile(ctx context.Context, path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, validate.RequiredError("file", "Cannot open the selected image")
	}
	defer func() { _ = file.Close() }()

	// Optimistic local preview, pre-network.
	pipeline.preview(path)

	return pipeline.run(ctx, filepath.Base(path), file)
}

// run executes steps 2..7 of the pipeline in strict sequence.
func (pipeline *Pipeline) run(ctx context.Context, filename string, file io.Reader) (result *Result, err error) {
	defer pipeline.setState(StateIdle)

	// ── Upload ────────────────────────────────────────────────────────────
	pipeline.setState(StateUploading)

	var envelope uploadEnvelope
	if err := pipeline.client.PostMultipart(ctx, "/uploaduser", nil, "file", filename, file, &envelope); err != nil {
		pipeline.log.Error("upload_failed", slog.Any("error", err))
		return nil, err
	}

	v := &validate.Validator{}
	v.Custom("photo", envelope.Photo == nil, "Missing photo object")
	if envelope.Photo != nil {
		v.Required("photo.image_url", envelope.Photo.ImageURL)
		v.Required("photo.embedding", envelope.Photo.Embedding)
	}
	if err := v.Response("upload"); err != nil {
		pipeline.log.Error("upload_response_invalid", slog.Any("error", err))
		return nil, err
	}
	photo := envelope.Photo

	// ── Embedding Parse ───────────────────────────────────────────────────
	// Fail fast before any similarity call: a payload that does not decode
	// into a numeric array must never reach the celebrity lookup.
	embedding, err := ParseEmbedding(photo.Embedding)
	if err != nil {
		pipeline.log.Error("embedding_parse_failed", slog.Any("error", err))
		return nil, err
	}

	// Replace the optimistic preview with the server-hosted copy.
	imageURL := pipeline.client.Resolve(photo.ImageURL)
	pipeline.preview(imageURL)

	// ── Animal Similarity ─────────────────────────────────────────────────
	pipeline.setState(StateAnimalLookup)

	var animal animalResponse
	animalRequest := map[string]any{
		"image_url": imageURL,
		"x":         photo.FacialArea.X,
		"y":         photo.FacialArea.Y,
		"w":         photo.FacialArea.W,
		"h":         photo.FacialArea.H,
	}
	if err := pipeline.client.Post(ctx, "/getsimilaranimal", animalRequest, &animal); err != nil {
		pipeline.log.Error("animal_lookup_failed", slog.Any("error", err))
		return nil, err
	}

	// ── Celebrity Similarity ──────────────────────────────────────────────
	pipeline.setState(StateCelebrityLookup)

	var celebrity celebrityResponse
	celebrityRequest := map[string]any{"embedding_vector": embedding}
	if err := pipeline.client.Post(ctx, "/find_most_similar", celebrityRequest, &celebrity); err != nil {
		pipeline.log.Error("celebrity_lookup_failed", slog.Any("error", err))
		return nil, err
	}

	pipeline.log.Info("lookalike_found",
		slog.String("animal", animal.Animal),
		slog.String("celebrity", celebrity.Name),
	)

	return &Result{
		Animal:            animal.Animal,
		AnimalConfidence:  animal.AnimalConfidence,
		Celebrity:         celebrity.Name,
		CelebrityImageURL: pipeline.client.Resolve(celebrity.ImageURL),
		Similarity:        celebrity.Similarity,
		ImageURL:          imageURL,
	}, nil
}

// ParseEmbedding decodes the serialized embedding string into a numeric
// vector. Anything that is not a non-empty JSON number array is rejected.
func ParseEmbedding(raw string) ([]float64, error) {
	var vector []float64
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		malformed := apperr.ValidationError("Malformed embedding payload")
		malformed.Cause = err
		return nil, malformed
	}
	if len(vector) == 0 {
		return nil, apperr.ValidationError("Malformed embedding payload")
	}
	return vector, nil
}
