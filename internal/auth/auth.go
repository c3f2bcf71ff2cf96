// Package auth exchanges a long-lived Husqvarna refresh token for
// short-lived access tokens and keeps the stored refresh token current
// when the server rotates it.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// expiryMargin is how long before the reported expiry a cached
	// access token stops being handed out.
	expiryMargin = 30 * time.Second

	// defaultExpiresIn is assumed when the token response omits
	// expires_in.
	defaultExpiresIn = 300

	// RefreshTokenKey is the env-file entry rotated tokens are
	// persisted under.
	RefreshTokenKey = "HUSQ_REFRESH_TOKEN"
)

// AuthError reports a rejected token-endpoint exchange.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.StatusCode, e.Body)
}

// AccessToken is a short-lived bearer credential. It lives only in
// memory; ExpiresAt already accounts for nothing but the raw server
// expiry (the margin is applied on read).
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// CredentialWriter persists a single rotated credential. Implemented by
// envfile.Store.
type CredentialWriter interface {
	Set(key, value string) error
}

// Config contains token-endpoint settings
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// TokenSource converts the configured refresh token into access tokens,
// caching each one until it nears expiry. Safe for concurrent use: the
// check-and-refresh sequence runs under a mutex so concurrent callers
// cannot trigger redundant exchanges or duplicate rotation events.
type TokenSource struct {
	config     Config
	store      CredentialWriter // may be nil; rotation is then memory-only
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	current AccessToken
}

// NewTokenSource creates a token source. store may be nil when there is
// nowhere to persist rotations (the rotated token is then kept only in
// memory and a warning is logged).
func NewTokenSource(config Config, store CredentialWriter, logger *slog.Logger) *TokenSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenSource{
		config: config,
		store:  store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Token returns a usable access token, performing a refresh-token
// exchange when no cached token exists or the cached one is within the
// expiry margin. Repeated calls inside the validity window reuse the
// cached token without touching the network.
func (s *TokenSource) Token(ctx context.Context) (AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Value != "" && s.now().Before(s.current.ExpiresAt.Add(-expiryMargin)) {
		return s.current, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.config.RefreshToken},
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
	}

	resp, err := s.postForm(ctx, form)
	if err != nil {
		return AccessToken{}, err
	}

	expiresIn := resp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	s.current = AccessToken{
		Value:     resp.AccessToken,
		ExpiresAt: s.now().Add(time.Duration(expiresIn) * time.Second),
	}
	s.logger.Debug("refreshed access token", "expires_in", expiresIn)

	// Refresh-token rotation: the server may hand back a replacement
	// that invalidates the one we just used. It must be persisted
	// before control returns to the caller, but a persist failure
	// cannot fail the call - the access token we hold is still good.
	if resp.RefreshToken != "" && resp.RefreshToken != s.config.RefreshToken {
		s.config.RefreshToken = resp.RefreshToken
		if s.store == nil {
			s.logger.Warn("refresh token rotated but no credential store is configured; rotation is lost on exit")
		} else if err := s.store.Set(RefreshTokenKey, resp.RefreshToken); err != nil {
			s.logger.Warn("could not persist rotated refresh token", "error", err)
		} else {
			s.logger.Info("refresh token rotated and saved")
		}
	}

	return s.current, nil
}

// RefreshToken returns the refresh token currently in use, which may
// differ from the configured one after a rotation.
func (s *TokenSource) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.RefreshToken
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (s *TokenSource) postForm(ctx context.Context, form url.Values) (*tokenResponse, error) {
	return postForm(ctx, s.httpClient, s.config.TokenURL, form)
}

func postForm(ctx context.Context, client *http.Client, tokenURL string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	return &tok, nil
}

// CodeGrant is the result of an authorization-code exchange.
type CodeGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// ExchangeCode trades an authorization code for tokens. Used by the
// login flow to obtain the initial refresh token.
func ExchangeCode(ctx context.Context, tokenURL, clientID, clientSecret, code, redirectURI string) (*CodeGrant, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := postForm(ctx, client, tokenURL, form)
	if err != nil {
		return nil, err
	}
	return &CodeGrant{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}
