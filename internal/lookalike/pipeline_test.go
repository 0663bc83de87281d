// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package lookalike_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkjiho/twinlook/internal/lookalike"
	"github.com/parkjiho/twinlook/internal/platform/rest"
	"github.com/parkjiho/twinlook/internal/stubserver"
)

type tokenBox struct{ token string }

func (box *tokenBox) Token() string { return box.token }

type env struct {
	stub     *stubserver.Server
	pipeline *lookalike.Pipeline
	baseURL  string
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

	userID := stub.SeedUser("jiho@twinlook.app", "jiho", "hunter2hunter2")
	client, err := rest.New(server.URL, &tokenBox{token: stub.TokenFor(userID)}, log)
	require.NoError(t, err)

	return &env{
		stub:     stub,
		pipeline: lookalike.NewPipeline(client, log),
		baseURL:  server.URL,
	}
}

// writeTestImage renders a small PNG to disk and returns its path.
func writeTestImage(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buffer bytes.Buffer
	require.NoError(t, png.Encode(&buffer, img))

	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, os.WriteFile(path, buffer.Bytes(), 0o600))
	return path
}

/*
TestPipeline_FromFile runs the full happy path: upload, animal lookup,
celebrity lookup.
*/
func TestPipeline_FromFile(t *testing.T) {
	testEnv := newEnv(t)

	var previews []string
	testEnv.pipeline.SetPreviewFunc(func(image string) {
		previews = append(previews, image)
	})

	path := writeTestImage(t, 64, 64)
	result, err := testEnv.pipeline.FromFile(context.Background(), path)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Animal)
	assert.NotEmpty(t, result.Celebrity)
	assert.Contains(t, result.ImageURL, testEnv.baseURL)

	// Optimistic local preview first, then the server-hosted copy.
	require.Len(t, previews, 2)
	assert.Equal(t, path, previews[0])
	assert.Equal(t, result.ImageURL, previews[1])

	// All three steps ran, once each.
	assert.Equal(t, 1, testEnv.stub.Calls("/uploaduser"))
	assert.Equal(t, 1, testEnv.stub.Calls("/getsimilaranimal"))
	assert.Equal(t, 1, testEnv.stub.Calls("/find_most_similar"))
	assert.Equal(t, lookalike.StateIdle, testEnv.pipeline.State())
}

/*
TestPipeline_BrokenEmbedding aborts before any similarity call when the
embedding payload does not parse.
*/
func TestPipeline_BrokenEmbedding(t *testing.T) {
	testEnv := newEnv(t)
	testEnv.stub.BreakEmbeddings(true)

	path := writeTestImage(t, 64, 64)
	_, err := testEnv.pipeline.FromFile(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, "Malformed embedding payload", err.Error())

	// Fail-fast: neither lookup was reached.
	assert.Equal(t, 1, testEnv.stub.Calls("/uploaduser"))
	assert.Zero(t, testEnv.stub.Calls("/getsimilaranimal"))
	assert.Zero(t, testEnv.stub.Calls("/find_most_similar"))
}

/*
TestPipeline_UploadFailure stops the sequence at the first step.
*/
func TestPipeline_UploadFailure(t *testing.T) {
	testEnv := newEnv(t)
	testEnv.stub.FailNext("/uploaduser")

	path := writeTestImage(t, 64, 64)
	_, err := testEnv.pipeline.FromFile(context.Background(), path)
	require.Error(t, err)

	assert.Zero(t, testEnv.stub.Calls("/getsimilaranimal"))
	assert.Zero(t, testEnv.stub.Calls("/find_most_similar"))
}

/*
TestPipeline_MissingFile produces a validation message with zero network
calls.
*/
func TestPipeline_MissingFile(t *testing.T) {
	testEnv := newEnv(t)

	_, err := testEnv.pipeline.FromFile(context.Background(), "/does/not/exist.png")
	require.Error(t, err)
	assert.Zero(t, testEnv.stub.TotalCalls())
}

/*
TestParseEmbedding covers the fail-fast contract of the embedding decoder.
*/
func TestParseEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"valid", "[0.1, -0.5, 0.9]", 3, false},
		{"not_json", "{not-json}", 0, true},
		{"wrong_shape", `{"values":[1,2]}`, 0, true},
		{"empty_array", "[]", 0, true},
		{"empty_string", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vector, err := lookalike.ParseEmbedding(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, vector, tt.wantLen)
		})
	}
}

/*
TestCropCenterSquare checks the camera frame crop dimensions.
*/
func TestCropCenterSquare(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantSide      int
	}{
		{"landscape", 640, 480, 480},
		{"portrait", 480, 640, 480},
		{"already_square", 256, 256, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			square := lookalike.CropCenterSquare(img)
			assert.Equal(t, tt.wantSide, square.Bounds().Dx())
			assert.Equal(t, tt.wantSide, square.Bounds().Dy())
		})
	}
}

/*
TestPipeline_FromCamera pushes a frame through the same pipeline.
*/
func TestPipeline_FromCamera(t *testing.T) {
	testEnv := newEnv(t)

	frame := image.NewRGBA(image.Rect(0, 0, 320, 240))
	result, err := testEnv.pipeline.FromCamera(context.Background(), frame)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Celebrity)
	assert.Equal(t, 1, testEnv.stub.Calls("/uploaduser"))
}
