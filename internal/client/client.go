// Package client talks to the storyline daemon's HTTP API. Error bodies are
// decoded back into *pipeline.Error so callers branch on the same taxonomy
// whether they reach the store directly or through the daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storyline/internal/api"
	"storyline/internal/reqctx"
)

var (
	// ErrUnavailable marks a daemon that could not be reached.
	ErrUnavailable = errors.New("storyline API unavailable")
	// ErrUnauthorized is returned when the daemon rejects the bearer token.
	ErrUnauthorized = errors.New("storyline API rejected credentials")
)

// Client is an HTTP client for the daemon API.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// New builds a client for baseURL ("http://host:port" or a bare host:port).
func New(baseURL, token string) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%w: empty base url", ErrUnavailable)
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		http:  &http.Client{Timeout: 15 * time.Second},
		token: strings.TrimSpace(token),
	}, nil
}

// Health calls the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit creates an idea.
func (c *Client) Submit(ctx context.Context, req api.SubmitIdeaRequest) (*api.IdeaResponse, error) {
	var out api.IdeaResponse
	if err := c.do(ctx, http.MethodPost, "/api/ideas", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns ideas matching q.
func (c *Client) List(ctx context.Context, q api.ListQuery) (*api.ListResponse, error) {
	values := url.Values{}
	if strings.TrimSpace(q.Stage) != "" {
		values.Set("stage", q.Stage)
	}
	if strings.TrimSpace(q.Priority) != "" {
		values.Set("priority", q.Priority)
	}
	if strings.TrimSpace(q.Status) != "" {
		values.Set("status", q.Status)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	var out api.ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/ideas", values, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detail fetches the aggregated view of one idea.
func (c *Client) Detail(ctx context.Context, ideaID int64) (*api.DetailResponse, error) {
	var out api.DetailResponse
	if err := c.do(ctx, http.MethodGet, ideaPath(ideaID, ""), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validation fetches the pre-flight report.
func (c *Client) Validation(ctx context.Context, ideaID int64) (*api.ValidationResponse, error) {
	var out api.ValidationResponse
	if err := c.do(ctx, http.MethodGet, ideaPath(ideaID, "/validation"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveForward requests one transition.
func (c *Client) MoveForward(ctx context.Context, ideaID int64, req api.MoveForwardRequest) (*api.MoveForwardResponse, error) {
	var out api.MoveForwardResponse
	if err := c.do(ctx, http.MethodPost, ideaPath(ideaID, "/move-forward"), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches the transition history.
func (c *Client) History(ctx context.Context, ideaID int64) (*api.HistoryResponse, error) {
	var out api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, ideaPath(ideaID, "/transitions"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ideaPath(ideaID int64, suffix string) string {
	return "/api/ideas/" + strconv.FormatInt(ideaID, 10) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrUnavailable
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id, ok := reqctx.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if IsUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		var payload api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Code == "" {
			return fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
		}
		return api.ToError(payload)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsUnavailable reports whether err means the daemon could not be reached,
// as opposed to the daemon answering with an error.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
