// Package amc is a client for the Automower Connect REST API: listing
// the account's mowers, resolving a user-supplied selector to one of
// them, and posting control actions.
package amc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Juhni/RoopeRobotti/internal/auth"
	"github.com/Juhni/RoopeRobotti/internal/logging"
)

// APIError reports a non-2xx response from the Automower Connect API.
type APIError struct {
	StatusCode int
	Body       string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// TokenProvider supplies bearer tokens for API calls. Implemented by
// auth.TokenSource.
type TokenProvider interface {
	Token(ctx context.Context) (auth.AccessToken, error)
}

// Config contains Automower Connect API settings
type Config struct {
	BaseURL string
	AppKey  string
}

// Client calls the Automower Connect REST API
type Client struct {
	config     Config
	tokens     TokenProvider
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new API client
func NewClient(config Config, tokens TokenProvider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config: config,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// ListMowers fetches every mower visible to the account.
func (c *Client) ListMowers(ctx context.Context) ([]Mower, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/mowers", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []Mower `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse mower list: %w", err)
	}
	return payload.Data, nil
}

// SendAction posts one action to the per-mower action endpoint.
func (c *Client) SendAction(ctx context.Context, mowerID string, action Action) error {
	payload := struct {
		Data Action `json:"data"`
	}{Data: action}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, "/v1/mowers/"+mowerID+"/actions", body)
	return err
}

// Resume puts the mower back on its schedule. When fallbackStart is set
// and the action endpoint rejects ResumeSchedule, a single plain Start
// is attempted instead and the original rejection is suppressed. The
// fallback fires only on an API rejection, never on request or context
// errors, and is never attempted pre-emptively.
func (c *Client) Resume(ctx context.Context, mowerID string, fallbackStart bool) error {
	err := c.SendAction(ctx, mowerID, ResumeSchedule())
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if !fallbackStart || !errors.As(err, &apiErr) {
		return err
	}

	c.logger.Debug("ResumeSchedule rejected, falling back to Start",
		"mower_id", mowerID,
		"status", apiErr.StatusCode)
	return c.SendAction(ctx, mowerID, Start(StartOptions{}))
}

// SetHeadlightMode changes the headlight mode if the mower supports
// headlights. For mowers without the capability no request is sent and
// (false, nil) is returned; a capability miss is a no-op, not an error.
func (c *Client) SetHeadlightMode(ctx context.Context, mower *Mower, mode string) (bool, error) {
	if !mower.Attributes.Capabilities.Headlights {
		return false, nil
	}
	if err := c.SendAction(ctx, mower.ID, SetHeadlight(mode)); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("X-Api-Key", c.config.AppKey)
	req.Header.Set("Authorization-Provider", "husqvarna")
	req.Header.Set("Accept", "application/vnd.api+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.api+json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Log(ctx, logging.LevelTrace, "API response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"body", string(respBody))

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Method:     method,
			Path:       path,
		}
	}
	return respBody, nil
}
