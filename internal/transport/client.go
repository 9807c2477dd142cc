// Package transport talks to the clinical record service and folds every
// outcome into a Result.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medassist/internal/query"
)

const (
	DefaultBaseURL    = "http://127.0.0.1:5000"
	DefaultChatPath   = "/api/chat"
	DefaultUploadPath = "/api/upload"
	DefaultHealthPath = "/api/health"

	// DefaultUploadStatus is reported when the service accepts an upload without
	// saying anything about it.
	DefaultUploadStatus = "Upload successful."

	maxResponseBytes = 4 << 20
	userAgent        = "medassist-cli"
)

// Options configures a Client. Zero values fall back to the defaults above.
// A zero Timeout means the client imposes no deadline of its own.
type Options struct {
	BaseURL    string
	ChatPath   string
	UploadPath string
	HealthPath string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Payload is a pre-encoded request body.
type Payload struct {
	Body        []byte
	ContentType string
}

// Client issues exactly one HTTP call per operation. It never retries and
// never returns a Go error: all outcomes are Results.
type Client struct {
	baseURL    string
	chatPath   string
	uploadPath string
	healthPath string
	httpClient *http.Client
}

// NewClient constructs a client for the service at opts.BaseURL.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(orDefault(opts.BaseURL, DefaultBaseURL), "/"),
		chatPath:   orDefault(opts.ChatPath, DefaultChatPath),
		uploadPath: orDefault(opts.UploadPath, DefaultUploadPath),
		healthPath: orDefault(opts.HealthPath, DefaultHealthPath),
		httpClient: opts.HTTPClient,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return c
}

// SendChat posts a chat request and returns the reply verbatim on success.
func (c *Client) SendChat(ctx context.Context, req query.ChatRequest) Result {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return c.fail("chat", Fail(KindFormat, fmt.Sprintf("failed to marshal request: %v", err), err))
	}
	return c.do(ctx, "chat", http.MethodPost, c.chatPath, bytes.NewReader(jsonBody), "application/json", "reply", "")
}

// Upload posts a multipart payload built by the upload coordinator.
func (c *Client) Upload(ctx context.Context, payload Payload) Result {
	return c.do(ctx, "upload", http.MethodPost, c.uploadPath, bytes.NewReader(payload.Body), payload.ContentType, "message", DefaultUploadStatus)
}

// Health probes the service and returns its reported status.
func (c *Client) Health(ctx context.Context) Result {
	return c.do(ctx, "health", http.MethodGet, c.healthPath, nil, "", "status", "")
}

// do performs the call and classifies the outcome in priority order:
// network, server, format, success. When fallback is non-empty a missing or
// empty field is not a format error.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType, field, fallback string) Result {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return c.fail(op, Fail(KindNetwork, fmt.Sprintf("failed to create request: %v", err), err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	log.Debug().Str("op", op).Str("method", method).Str("url", endpoint).Msg("Calling clinical record service")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(op, Fail(KindNetwork, err.Error(), err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(op, Fail(KindNetwork, fmt.Sprintf("failed to read response: %v", err), err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result := Fail(KindServer, serverDetail(resp.StatusCode, raw), nil)
		result.Failure.Status = resp.StatusCode
		return c.fail(op, result)
	}

	text, err := extractField(raw, field)
	if err != nil {
		if fallback != "" && errors.Is(err, errFieldMissing) {
			text = fallback
		} else {
			return c.fail(op, Fail(KindFormat, err.Error(), err))
		}
	}

	log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Clinical record service call succeeded")

	return Success(text)
}

func (c *Client) fail(op string, r Result) Result {
	f := r.Failure
	log.Warn().
		Str("op", op).
		Str("kind", string(f.Kind)).
		Int("status", f.Status).
		Str("detail", f.Detail).
		Msg("Clinical record service call failed")
	return r
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
