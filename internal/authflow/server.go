// Package authflow runs the local half of the OAuth authorization-code
// flow: a short-lived callback server that captures the code the
// browser is redirected back with.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	ErrStateMismatch = errors.New("oauth state mismatch; possible CSRF, discard this attempt")
)

// CallbackError reports an error returned by the authorization server
// on the redirect.
type CallbackError struct {
	Code string
}

func (e *CallbackError) Error() string {
	return "authorization failed: " + e.Code
}

type callback struct {
	code  string
	state string
	err   string
}

// Server captures one OAuth callback on the configured redirect URI.
type Server struct {
	redirectURI *url.URL
	state       string
	logger      *slog.Logger
	results     chan callback
}

// New creates a callback server for the given redirect URI. The state
// nonce is generated here and embedded in the authorize URL so the
// callback can be verified against it.
func New(redirectURI string, logger *slog.Logger) (*Server, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %s: %w", redirectURI, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		redirectURI: parsed,
		state:       uuid.NewString(),
		logger:      logger,
		results:     make(chan callback, 1),
	}, nil
}

// AuthorizeURL builds the browser URL that starts the flow.
func (s *Server) AuthorizeURL(authorizeURL, clientID, scope string) string {
	params := url.Values{
		"client_id":     {clientID},
		"response_type": {"code"},
		"redirect_uri":  {s.redirectURI.String()},
		"scope":         {scope},
		"state":         {s.state},
	}
	return authorizeURL + "?" + params.Encode()
}

// Wait serves the callback endpoint until one callback arrives or the
// context is cancelled, then returns the verified authorization code.
func (s *Server) Wait(ctx context.Context) (string, error) {
	addr := s.listenAddr()

	srv := &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("waiting for OAuth callback", "addr", addr, "path", s.callbackPath())

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		return "", fmt.Errorf("callback server failed: %w", err)
	case cb := <-s.results:
		return s.verify(cb)
	}
}

// waitResult blocks for a callback without running the listener. Used
// when the callback arrives through another route, and by tests.
func (s *Server) waitResult(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case cb := <-s.results:
		return s.verify(cb)
	}
}

func (s *Server) verify(cb callback) (string, error) {
	if cb.err != "" {
		return "", &CallbackError{Code: cb.err}
	}
	if cb.state != s.state {
		return "", ErrStateMismatch
	}
	return cb.code, nil
}

// routes builds the gin engine serving the callback path. Split out so
// tests can exercise the handler without binding a port.
func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(s.callbackPath(), func(c *gin.Context) {
		cb := callback{
			code:  c.Query("code"),
			state: c.Query("state"),
			err:   c.Query("error"),
		}
		c.String(http.StatusOK, "OK, got code. You can close this window.")
		select {
		case s.results <- cb:
		default:
		}
	})

	return router
}

func (s *Server) callbackPath() string {
	if s.redirectURI.Path == "" {
		return "/"
	}
	return s.redirectURI.Path
}

func (s *Server) listenAddr() string {
	port := s.redirectURI.Port()
	if port == "" {
		port = "80"
	}
	return net.JoinHostPort("localhost", port)
}
