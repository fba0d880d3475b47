package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const apiPrefix = "/v1"

// Client talks to one Code Swap server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a Client for baseURL with a bearer token. Streaming
// responses have no client-side deadline: a stalled stream blocks until the
// transport errors, completes, or the request context is cancelled.
func NewClient(baseURL, token string) (*Client, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: normalized,
		token:   token,
		http:    &http.Client{},
	}, nil
}

// SetHTTPClient overrides the underlying HTTP client, mainly for tests.
func (c *Client) SetHTTPClient(hc *http.Client) { c.http = hc }

// StreamChat opens a single-model stream. The returned body is the raw SSE
// stream; the caller owns closing it.
func (c *Client) StreamChat(ctx context.Context, req ChatStreamRequest) (io.ReadCloser, error) {
	return c.stream(ctx, "/chat/messages/stream", req, nil)
}

// StreamCompare opens an A/B compare stream.
func (c *Client) StreamCompare(ctx context.Context, req CompareStreamRequest) (io.ReadCloser, error) {
	return c.stream(ctx, "/compare/messages/stream", req, nil)
}

// StreamCrew opens a crew stream. localKey, when non-empty, is forwarded in
// the X-OpenRouter-Key header for local key mode.
func (c *Client) StreamCrew(ctx context.Context, req CrewRunRequest, localKey string) (io.ReadCloser, error) {
	var headers map[string]string
	if localKey != "" {
		headers = map[string]string{"X-OpenRouter-Key": localKey}
	}
	return c.stream(ctx, "/crew/stream", req, headers)
}

// CreateSession creates a server-side chat session.
func (c *Client) CreateSession(ctx context.Context, req SessionCreateRequest) (*Session, error) {
	var sess Session
	if err := c.doJSON(ctx, http.MethodPost, "/chat/sessions", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns the caller's chat sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListModels returns the server's model catalog, optionally filtered by
// provider.
func (c *Client) ListModels(ctx context.Context, provider string) (*ModelsListResponse, error) {
	path := "/models"
	if provider != "" {
		path += "?provider=" + url.QueryEscape(provider)
	}
	var resp ModelsListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UsageSummary returns the account-level usage rollup.
func (c *Client) UsageSummary(ctx context.Context) (*UsageSummary, error) {
	var summary UsageSummary
	if err := c.doJSON(ctx, http.MethodGet, "/usage/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) stream(ctx context.Context, path string, payload any, headers map[string]string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("stream %s: response has no body", path)
	}
	return resp.Body, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = resp.Status
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, detail)
}

func normalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("server URL is required")
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		value = "http://" + value
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed.String(), nil
}
