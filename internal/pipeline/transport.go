// Package pipeline authorizes outbound API requests and renews the session
// when the server rejects the access token.
//
// Transport is an http.RoundTripper installed in the API client's
// http.Client. For every request that is not itself an authentication call it
// attaches the stored access token; on a 401 it refreshes the session once and
// replays the request with the new token, or logs out when renewal is not
// possible.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/session"
)

// Session is the part of the session manager the transport drives.
type Session interface {
	Token() string
	RefreshToken() string
	Refresh(ctx context.Context) (*session.Tokens, error)
	Logout(ctx context.Context) error
}

var _ Session = (*session.Manager)(nil)

// authPaths are never authorized or retried, so a rejected refresh cannot
// trigger another refresh.
var authPaths = []string{petapi.LoginPath, petapi.RefreshPath}

// IsAuthEndpoint reports whether u targets the login or refresh endpoint.
func IsAuthEndpoint(u *url.URL) bool {
	if u == nil {
		return false
	}
	for _, p := range authPaths {
		if strings.Contains(u.Path, p) {
			return true
		}
	}
	return false
}

// Transport attaches bearer tokens and drives refresh-and-retry.
type Transport struct {
	Base    http.RoundTripper
	Session Session
}

// New wraps base (http.DefaultTransport when nil) with session authorization.
func New(base http.RoundTripper, s Session) *Transport {
	return &Transport{Base: base, Session: s}
}

// NewHTTPClient returns an http.Client whose requests go through the pipeline.
func NewHTTPClient(base http.RoundTripper, s Session, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: New(base, s),
		Timeout:   timeout,
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if IsAuthEndpoint(req.URL) {
		return t.base().RoundTrip(req)
	}

	req, err := replayable(req)
	if err != nil {
		return nil, err
	}

	token := t.Session.Token()
	first := req
	if token != "" {
		first = req.Clone(req.Context())
		first.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	return t.recoverUnauthorized(req, token, resp)
}

// recoverUnauthorized handles a 401 for a request that was sent with sentToken.
// resp is returned to the caller only when there is no way to renew the session.
func (t *Transport) recoverUnauthorized(req *http.Request, sentToken string, resp *http.Response) (*http.Response, error) {
	ctx := req.Context()

	if t.Session.RefreshToken() == "" {
		slog.Debug("access rejected and no refresh token, logging out", "method", req.Method, "path", req.URL.Path)
		t.logout(ctx)
		return resp, nil
	}

	var newToken string
	if current := t.Session.Token(); current != "" && current != sentToken {
		// another request already renewed the session
		newToken = current
	} else {
		slog.Debug("access rejected, refreshing session", "method", req.Method, "path", req.URL.Path)
		tokens, err := t.Session.Refresh(ctx)
		if err != nil {
			discard(resp)
			switch {
			case ctx.Err() != nil:
				// the caller gave up; the refresh itself may still succeed
				slog.Debug("request canceled while refreshing session", "method", req.Method, "path", req.URL.Path)
			case errors.Is(err, session.ErrSessionChanged):
				// a logout or a new login already settled the session
			default:
				t.logout(ctx)
			}
			return nil, err
		}
		newToken = tokens.AccessToken
	}
	discard(resp)

	retry, err := withToken(req, newToken)
	if err != nil {
		return nil, err
	}
	slog.Debug("replaying request with renewed token", "method", req.Method, "path", req.URL.Path)
	return t.base().RoundTrip(retry)
}

func (t *Transport) logout(ctx context.Context) {
	// the logout must finish even if the caller gave up on the request
	if err := t.Session.Logout(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("logout after rejected request failed", "error", err)
	}
}

// replayable makes sure the request body can be produced again for a retry.
// Bodies without GetBody are buffered in memory.
func replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}

	r := req.Clone(req.Context())
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	r.Body, _ = r.GetBody()
	r.ContentLength = int64(len(data))
	return r, nil
}

// withToken clones req with a fresh body and the given bearer token.
func withToken(req *http.Request, token string) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		r.Body = body
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r, nil
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
