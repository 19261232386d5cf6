// Package directory is the auth service's client for the user directory
// service. It speaks the directory's HTTP contract and translates responses
// into sentinel errors; the orchestrator never sees raw upstream bodies.
package directory

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
	"time"

	"porter/pkg/platform/sentinel"
)

// ErrValidation reports that the directory rejected the payload as malformed.
// It is separate from sentinel errors because it carries the rejection reason.
var ErrValidation = errors.New("directory rejected input")

// Record is the directory's user projection.
type Record struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Client calls the user directory over HTTP. Every call is a single attempt
// with a bounded timeout; failures are never retried here.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a directory client rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FindByEmail looks a user up by email. Returns sentinel.ErrNotFound when no
// record exists.
func (c *Client) FindByEmail(ctx context.Context, email string) (*Record, error) {
	return c.get(ctx, "/api/users/email/"+url.PathEscape(email))
}

// FindByID looks a user up by id. Returns sentinel.ErrNotFound when the id
// no longer resolves.
func (c *Client) FindByID(ctx context.Context, id string) (*Record, error) {
	return c.get(ctx, "/api/users/"+url.PathEscape(id))
}

// Create registers a new user with credentials. Uniqueness violations map to
// sentinel.ErrConflict, schema rejections to ErrValidation.
func (c *Client) Create(ctx context.Context, username, email, password string) (*Record, error) {
	return c.post(ctx, "/api/users", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, http.StatusCreated)
}

// VerifyCredentials checks an email/password pair. Any mismatch maps to
// sentinel.ErrInvalidCredentials regardless of which field was wrong.
func (c *Client) VerifyCredentials(ctx context.Context, email, password string) (*Record, error) {
	return c.post(ctx, "/api/users/verify", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK)
}

func (c *Client) get(ctx context.Context, path string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}
	return c.do(req, http.StatusOK)
}

func (c *Client) post(ctx context.Context, path string, body any, wantStatus int) (*Record, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal directory request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, wantStatus)
}

func (c *Client) do(req *http.Request, wantStatus int) (*Record, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == wantStatus {
		var envelope struct {
			User Record `json:"user"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return nil, fmt.Errorf("%w: malformed directory response", sentinel.ErrUnavailable)
		}
		if envelope.User.ID == "" {
			return nil, fmt.Errorf("%w: directory response missing user id", sentinel.ErrUnavailable)
		}
		return &envelope.User, nil
	}

	return nil, c.errorFrom(resp)
}

// errorFrom maps non-success directory responses to sentinel errors. The
// response body is consumed only for the validation description; it is never
// propagated for other classes.
func (c *Client) errorFrom(resp *http.Response) error {
	var envelope struct {
		Description string `json:"error_description"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(body, &envelope)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return sentinel.ErrNotFound
	case http.StatusConflict:
		return sentinel.ErrConflict
	case http.StatusUnauthorized:
		return sentinel.ErrInvalidCredentials
	case http.StatusBadRequest:
		if envelope.Description != "" {
			return fmt.Errorf("%w: %s", ErrValidation, envelope.Description)
		}
		return ErrValidation
	default:
		return fmt.Errorf("%w: directory returned status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}
}
