package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	sets   map[string]string
	failed bool
	err    error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{sets: map[string]string{}}
}

func (w *fakeWriter) Set(key, value string) error {
	if w.err != nil {
		w.failed = true
		return w.err
	}
	w.sets[key] = value
	return nil
}

type tokenEndpoint struct {
	t            *testing.T
	calls        int
	refreshToken string // returned in the response; empty omits the field
	expiresIn    int    // 0 omits the field
	status       int
	lastForm     map[string]string
}

func (e *tokenEndpoint) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e.calls++
		require.Equal(e.t, http.MethodPost, r.Method)
		require.Equal(e.t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(e.t, r.ParseForm())

		e.lastForm = map[string]string{}
		for k := range r.PostForm {
			e.lastForm[k] = r.PostForm.Get(k)
		}

		if e.status >= 400 {
			w.WriteHeader(e.status)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		resp := map[string]any{"access_token": "access-1"}
		if e.refreshToken != "" {
			resp["refresh_token"] = e.refreshToken
		}
		if e.expiresIn > 0 {
			resp["expires_in"] = e.expiresIn
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func newTestSource(t *testing.T, endpoint *tokenEndpoint, store CredentialWriter) (*TokenSource, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(endpoint.handler())
	t.Cleanup(server.Close)

	source := NewTokenSource(Config{
		TokenURL:     server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-0",
	}, store, nil)
	return source, server
}

func TestTokenSource_SendsRefreshGrant(t *testing.T) {
	endpoint := &tokenEndpoint{t: t, expiresIn: 3600}
	source, _ := newTestSource(t, endpoint, nil)

	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", token.Value)

	assert.Equal(t, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": "refresh-0",
		"client_id":     "client-id",
		"client_secret": "client-secret",
	}, endpoint.lastForm)
}

func TestTokenSource_CachesUntilNearExpiry(t *testing.T) {
	endpoint := &tokenEndpoint{t: t, expiresIn: 3600}
	source, _ := newTestSource(t, endpoint, nil)

	now := time.Now()
	source.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := source.Token(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, endpoint.calls, "calls within the validity window must reuse the cache")

	// 29 seconds of validity left: inside the 30-second safety margin,
	// must trigger exactly one new exchange.
	now = now.Add(3600*time.Second - 29*time.Second)
	_, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, endpoint.calls)
}

func TestTokenSource_DefaultExpiry(t *testing.T) {
	endpoint := &tokenEndpoint{t: t} // no expires_in in the response
	source, _ := newTestSource(t, endpoint, nil)

	now := time.Now()
	source.now = func() time.Time { return now }

	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(300*time.Second), token.ExpiresAt)
}

func TestTokenSource_PersistsRotation(t *testing.T) {
	endpoint := &tokenEndpoint{t: t, refreshToken: "refresh-1", expiresIn: 3600}
	store := newFakeWriter()
	source, _ := newTestSource(t, endpoint, store)

	_, err := source.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{RefreshTokenKey: "refresh-1"}, store.sets)
	assert.Equal(t, "refresh-1", source.RefreshToken())
}

func TestTokenSource_SameTokenNoWrite(t *testing.T) {
	endpoint := &tokenEndpoint{t: t, refreshToken: "refresh-0", expiresIn: 3600}
	store := newFakeWriter()
	source, _ := newTestSource(t, endpoint, store)

	_, err := source.Token(context.Background())
	require.NoError(t, err)

	assert.Empty(t, store.sets, "an unrotated refresh token must not be rewritten")
}

func TestTokenSource_PersistFailureIsNotFatal(t *testing.T) {
	endpoint := &tokenEndpoint{t: t, refreshToken: "refresh-1", expiresIn: 3600}
	store := newFakeWriter()
	store.err = errors.New("disk full")
	source, _ := newTestSource(t, endpoint, store)

	token, err := source.Token(context.Background())
	require.NoError(t, err, "a failed persist must not fail the exchange")
	assert.Equal(t, "access-1", token.Value)
	assert.True(t, store.failed)

	// The rotated token stays in memory so subsequent refreshes in
	// this process still work.
	assert.Equal(t, "refresh-1", source.RefreshToken())
}

func TestTokenSource_ExchangeRejected(t *testing.T) {
	endpoint := &tokenEndpoint{t: t, status: http.StatusBadRequest}
	source, _ := newTestSource(t, endpoint, nil)

	_, err := source.Token(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "invalid_grant")
}

func TestExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "http://localhost:9999/callback", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	grant, err := ExchangeCode(context.Background(), server.URL,
		"client-id", "client-secret", "the-code", "http://localhost:9999/callback")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", grant.RefreshToken)
	assert.Equal(t, "access-1", grant.AccessToken)
	assert.Equal(t, 3600, grant.ExpiresIn)
}
