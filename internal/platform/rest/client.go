// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package rest implements the single HTTP/JSON client core shared by every
feature module.

Architecture:

  - This package is the only place that touches net/http on the client side.
  - Bearer credentials are pulled from a [TokenSource] on every call, so the
    session store stays the sole owner of the token.
  - Non-2xx responses are decoded into the backend's error envelope and
    surfaced as [apperr.AppError] values carrying the server's message field.
  - Relative asset paths returned by the backend (e.g. "uploads/abc.png")
    are resolved against the configured base URL via [Client.Resolve].

The client deliberately sets no request timeout, performs no retries, and
does no deduplication: every operation is one request, one response.
*/
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
)

// TokenSource supplies the bearer credential for authenticated calls.
// An empty token means the call goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is the shared API client core.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	log    *slog.Logger
}

// New constructs a [Client] for the given backend base URL.
//
// # Parameters
//   - baseURL: The backend service root, e.g. "http://localhost:8080".
//   - tokens: The bearer credential source; may be nil for a purely
//     anonymous client.
//   - log: Structured logger for request tracing.
//
// # Returns
//   - A ready [*Client], or an err if the base URL does not parse.
func New(baseURL string, tokens TokenSource, log *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, apperr.ValidationError("Backend URL is not a valid URL")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, apperr.ValidationError("Backend URL must be absolute")
	}

	return &Client{
		base:   base,
		http:   &http.Client{},
		tokens: tokens,
		log:    log,
	}, nil
}

// BaseURL returns the configured backend root.
func (client *Client) BaseURL() string { return client.base.String() }

// Resolve turns a backend-relative asset path into an absolute URL.
// Already-absolute URLs pass through untouched; empty stays empty.
func (client *Client) Resolve(raw string) string {
	if raw == "" {
		return ""
	}
	if parsed, err := url.Parse(raw); err == nil && parsed.IsAbs() {
		return raw
	}
	return client.base.JoinPath(strings.TrimPrefix(raw, "/")).String()
}

// # Request Methods

// Get issues an authenticated GET and decodes the JSON response into out.
func (client *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return client.do(ctx, http.MethodGet, path, query, "", nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (client *Client) Post(ctx context.Context, path string, body, out any) error {
	reader, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return client.do(ctx, http.MethodPost, path, nil, "application/json", reader, out)
}

// Patch issues an authenticated PATCH with a JSON body.
func (client *Client) Patch(ctx context.Context, path string, body, out any) error {
	reader, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return client.do(ctx, http.MethodPatch, path, nil, "application/json", reader, out)
}

// Delete issues an authenticated DELETE, ignoring any response body.
func (client *Client) Delete(ctx context.Context, path string) error {
	return client.do(ctx, http.MethodDelete, path, nil, "", nil, nil)
}

// PostMultipart issues an authenticated multipart/form-data POST carrying
// one file part plus plain form fields, and decodes the JSON response.
//
// # Parameters
//   - fields: Plain form values written before the file part.
//   - fileField: The form name of the file part (the backend expects "file").
//   - fileName: The client-side name reported for the part.
//   - file: The file content.
func (client *Client) PostMultipart(
	ctx context.Context,
	path string,
	fields map[string]string,
	fileField, fileName string,
	file io.Reader,
	out any,
) error {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return apperr.Internal(err)
		}
	}

	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return apperr.Internal(err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return apperr.Internal(err)
	}
	if err := writer.Close(); err != nil {
		return apperr.Internal(err)
	}

	return client.do(ctx, http.MethodPost, path, nil, writer.FormDataContentType(), &buffer, out)
}

// # Core Transport

// errorEnvelope mirrors the backend's error payload. The stub writes a
// "message" field; older deployments used "error", so both are accepted.
type errorEnvelope struct {
	Message  string `json:"message"`
	ErrorMsg string `json:"error"`
	Code     string `json:"code"`
}

// do executes one request/response cycle and maps every failure mode onto
// the apperr taxonomy: transport, server-reported, or malformed response.
func (client *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	contentType string,
	body io.Reader,
	out any,
) error {
	endpoint := client.base.JoinPath(strings.TrimPrefix(path, "/"))
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return apperr.Internal(err)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if client.tokens != nil {
		if token := client.tokens.Token(); token != "" {
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}

	startTime := time.Now()
	response, err := client.http.Do(request)
	if err != nil {
		client.log.Debug("api_request_failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return apperr.Transport(err)
	}
	defer func() { _ = response.Body.Close() }()

	client.log.Debug("api_request_finished",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", response.StatusCode),
		slog.Duration("duration", time.Since(startTime)),
	)

	if response.StatusCode >= 300 {
		return decodeError(response)
	}

	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		malformed := apperr.ValidationError("Malformed response from server")
		malformed.Cause = err
		return malformed
	}
	return nil
}

// decodeError extracts the server-reported message field from a non-2xx
// response. A body that is not the expected envelope still produces a
// server error with the generic message — never a decode panic.
func decodeError(response *http.Response) error {
	var envelope errorEnvelope
	payload, _ := io.ReadAll(io.LimitReader(response.Body, 1<<16))
	_ = json.Unmarshal(payload, &envelope)

	message := envelope.Message
	if message == "" {
		message = envelope.ErrorMsg
	}
	return apperr.FromResponse(response.StatusCode, envelope.Code, message)
}

// encodeJSON marshals a request body into a reader. A nil body yields nil.
func encodeJSON(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return bytes.NewReader(payload), nil
}
