// Package apiclient talks to the ricefwboard HTTP API. Every request carries
// the stored session token; a 401 clears the stored session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gi8lino/ricefwboard/internal/session"
	"github.com/gi8lino/ricefwboard/internal/transport"
)

var (
	// ErrUnauthorized marks a 401 response. The stored session is already cleared when it is returned.
	ErrUnauthorized = errors.New("session expired")
	// ErrInvalidInput marks client-side validation failures; no request was sent.
	ErrInvalidInput = errors.New("invalid input")
)

// maxMessageLen bounds error messages taken from non-JSON response bodies.
const maxMessageLen = 200

// APIError is a non-2xx API response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Message returns the server-provided message of err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Client is a bearer-token client for the ricefwboard API.
type Client struct {
	BaseURL        *url.URL     // always ends with "/api/"
	HTTP           *http.Client // underlying HTTP client
	store          session.Store
	onUnauthorized func()
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default pooled HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTP = hc }
}

// WithUnauthorizedHandler registers fn to run after a 401 cleared the session.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New returns a client for the server at rawURL ("http://host:8080" or "http://host:8080/api").
func New(rawURL string, store session.Store, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(rawURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		BaseURL: base,
		HTTP:    transport.NewClient(transport.New(false), 0),
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// normalizeBaseURL makes sure the URL is absolute and ends with "/api/".
func normalizeBaseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", rawURL)
	}
	p := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(p, "/api") {
		p += "/api"
	}
	u.Path = p + "/"
	return u, nil
}

// do performs an API call, decoding the JSON response into out when non-nil.
// It returns the HTTP status code (0 when no response arrived).
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	rel, err := url.Parse(path)
	if err != nil {
		return 0, fmt.Errorf("parse path: %w", err)
	}
	fullURL := c.BaseURL.ResolveReference(rel).String()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.store.Get(session.TokenKey); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = session.Clear(c.store)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: messageFrom(respBody)}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// messageFrom extracts "message" from a JSON body or falls back to the trimmed text.
func messageFrom(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return truncate(strings.TrimSpace(string(body)), maxMessageLen)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
