package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/petadm/internal/session"
)

type fakeSession struct {
	mu           sync.Mutex
	access       string
	refresh      string
	next         *session.Tokens
	refreshErr   error
	refreshCalls int
	logoutCalls  int
	// block, when set, holds Refresh until it is closed or the caller's ctx is done
	block chan struct{}
}

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeSession) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh
}

func (f *fakeSession) Refresh(ctx context.Context) (*session.Tokens, error) {
	f.mu.Lock()
	f.refreshCalls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	f.access = f.next.AccessToken
	f.refresh = f.next.RefreshToken
	return f.next, nil
}

func (f *fakeSession) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	f.access = ""
	f.refresh = ""
	return nil
}

func (f *fakeSession) setAccess(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = token
}

func (f *fakeSession) counts() (refreshes, logouts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.logoutCalls
}

type seen struct {
	auth string
	body string
}

// recorder accepts requests whose bearer token is one of valid and rejects
// the rest with 401.
type recorder struct {
	mu       sync.Mutex
	requests []seen
	valid    map[string]bool
	before   func()
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, seen{auth: req.Header.Get("Authorization"), body: string(body)})
	before := r.before
	r.before = nil
	r.mu.Unlock()

	if before != nil {
		before()
	}
	if r.valid[req.Header.Get("Authorization")] {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"status":401,"error":"Unauthorized"}`))
}

func (r *recorder) seen() []seen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]seen(nil), r.requests...)
}

func newHarness(t *testing.T, sess *fakeSession, valid ...string) (*recorder, *http.Client, string) {
	t.Helper()
	rec := &recorder{valid: map[string]bool{}}
	for _, v := range valid {
		rec.valid[v] = true
	}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return rec, &http.Client{Transport: New(nil, sess)}, srv.URL
}

func TestRoundTrip_AttachesBearerToken(t *testing.T) {
	sess := &fakeSession{access: "A1", refresh: "R1"}
	rec, client, base := newHarness(t, sess, "Bearer A1")

	resp, err := client.Get(base + "/v1/pets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, rec.seen(), 1)
	assert.Equal(t, "Bearer A1", rec.seen()[0].auth)
}

func TestRoundTrip_NoTokenForwardsUnmodified(t *testing.T) {
	sess := &fakeSession{}
	rec, client, base := newHarness(t, sess, "")

	resp, err := client.Get(base + "/v1/pets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, rec.seen()[0].auth)
}

func TestRoundTrip_DoesNotMutateCallerRequest(t *testing.T) {
	sess := &fakeSession{access: "A1", refresh: "R1"}
	_, client, base := newHarness(t, sess, "Bearer A1")

	req, err := http.NewRequest(http.MethodGet, base+"/v1/pets", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestRoundTrip_AuthEndpointsPassThrough(t *testing.T) {
	for _, path := range []string{"/autenticacao/login", "/autenticacao/refresh", "/api/autenticacao/refresh"} {
		t.Run(path, func(t *testing.T) {
			sess := &fakeSession{access: "A1", refresh: "R1"}
			rec, client, base := newHarness(t, sess)

			resp, err := client.Post(base+path, "application/json", strings.NewReader(`{}`))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.Len(t, rec.seen(), 1)
			assert.Empty(t, rec.seen()[0].auth)

			refreshes, logouts := sess.counts()
			assert.Zero(t, refreshes)
			assert.Zero(t, logouts)
		})
	}
}

func TestRoundTrip_RefreshesAndReplaysOnce(t *testing.T) {
	sess := &fakeSession{
		access:  "A1",
		refresh: "R1",
		next:    &session.Tokens{AccessToken: "A2", RefreshToken: "R2"},
	}
	rec, client, base := newHarness(t, sess, "Bearer A2")

	resp, err := client.Get(base + "/v1/pets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	requests := rec.seen()
	require.Len(t, requests, 2)
	assert.Equal(t, "Bearer A1", requests[0].auth)
	assert.Equal(t, "Bearer A2", requests[1].auth)

	refreshes, logouts := sess.counts()
	assert.Equal(t, 1, refreshes)
	assert.Zero(t, logouts)
}

func TestRoundTrip_ReplaysRequestBody(t *testing.T) {
	sess := &fakeSession{
		access:  "A1",
		refresh: "R1",
		next:    &session.Tokens{AccessToken: "A2", RefreshToken: "R2"},
	}
	rec, client, base := newHarness(t, sess, "Bearer A2")

	bodies := map[string]func() io.Reader{
		"with GetBody":    func() io.Reader { return bytes.NewReader([]byte(`{"nome":"Rex"}`)) },
		"without GetBody": func() io.Reader { return io.NopCloser(strings.NewReader(`{"nome":"Rex"}`)) },
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			sess.mu.Lock()
			sess.access, sess.refresh = "A1", "R1"
			sess.mu.Unlock()
			rec.mu.Lock()
			rec.requests = nil
			rec.mu.Unlock()

			req, err := http.NewRequest(http.MethodPost, base+"/v1/pets", body())
			require.NoError(t, err)
			resp, err := client.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			requests := rec.seen()
			require.Len(t, requests, 2)
			assert.Equal(t, `{"nome":"Rex"}`, requests[0].body)
			assert.Equal(t, `{"nome":"Rex"}`, requests[1].body)
		})
	}
}

func TestRoundTrip_SecondRejectionIsReturned(t *testing.T) {
	sess := &fakeSession{
		access:  "A1",
		refresh: "R1",
		next:    &session.Tokens{AccessToken: "A2", RefreshToken: "R2"},
	}
	rec, client, base := newHarness(t, sess)

	resp, err := client.Get(base + "/v1/pets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Len(t, rec.seen(), 2)

	refreshes, logouts := sess.counts()
	assert.Equal(t, 1, refreshes)
	assert.Zero(t, logouts)
}

func TestRoundTrip_NoRefreshTokenLogsOut(t *testing.T) {
	sess := &fakeSession{access: "A1"}
	rec, client, base := newHarness(t, sess)

	resp, err := client.Get(base + "/v1/pets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Unauthorized")
	assert.Len(t, rec.seen(), 1)

	refreshes, logouts := sess.counts()
	assert.Zero(t, refreshes)
	assert.Equal(t, 1, logouts)
}

func TestRoundTrip_RefreshFailureLogsOut(t *testing.T) {
	refreshErr := errors.New("refresh rejected")
	sess := &fakeSession{access: "A1", refresh: "R1", refreshErr: refreshErr}
	rec, client, base := newHarness(t, sess)

	resp, err := client.Get(base + "/v1/pets")
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, refreshErr)

	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr)
	assert.Len(t, rec.seen(), 1)

	refreshes, logouts := sess.counts()
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, 1, logouts)
	assert.Empty(t, sess.Token())
}

func TestRoundTrip_CallerCancelDuringRefreshKeepsSession(t *testing.T) {
	sess := &fakeSession{
		access:  "A1",
		refresh: "R1",
		next:    &session.Tokens{AccessToken: "A2", RefreshToken: "R2"},
		block:   make(chan struct{}),
	}
	defer close(sess.block)
	rec, client, base := newHarness(t, sess, "Bearer A2")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/pets", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, rec.seen(), 1)

	refreshes, logouts := sess.counts()
	assert.Equal(t, 1, refreshes)
	assert.Zero(t, logouts)
	assert.Equal(t, "R1", sess.RefreshToken())
	assert.Equal(t, "A1", sess.Token())
}

func TestRoundTrip_SessionChangedDuringRefreshDoesNotLogOut(t *testing.T) {
	sess := &fakeSession{access: "A1", refresh: "R1", refreshErr: session.ErrSessionChanged}
	_, client, base := newHarness(t, sess)

	resp, err := client.Get(base + "/v1/pets")
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrSessionChanged)

	refreshes, logouts := sess.counts()
	assert.Equal(t, 1, refreshes)
	assert.Zero(t, logouts)
	assert.Equal(t, "R1", sess.RefreshToken())
}

func TestRoundTrip_UsesTokenRenewedByAnotherRequest(t *testing.T) {
	sess := &fakeSession{access: "A1", refresh: "R2"}
	rec, client, base := newHarness(t, sess, "Bearer A2")
	// the session is renewed while this request is in flight
	rec.before = func() { sess.setAccess("A2") }

	resp, err := client.Get(base + "/v1/pets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	requests := rec.seen()
	require.Len(t, requests, 2)
	assert.Equal(t, "Bearer A2", requests[1].auth)

	refreshes, _ := sess.counts()
	assert.Zero(t, refreshes)
}

func TestRoundTrip_OtherStatusesPassThrough(t *testing.T) {
	sess := &fakeSession{access: "A1", refresh: "R1"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := &http.Client{Transport: New(nil, sess)}
	resp, err := client.Get(srv.URL + "/v1/pets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	refreshes, logouts := sess.counts()
	assert.Zero(t, refreshes)
	assert.Zero(t, logouts)
}

func TestIsAuthEndpoint(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://api.example/autenticacao/login", true},
		{"https://api.example/autenticacao/refresh", true},
		{"https://api.example/v1/pets", false},
		{"https://api.example/v1/tutores/1/pets/2", false},
		{"https://api.example/autenticacao", false},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, IsAuthEndpoint(u), tt.raw)
	}
	assert.False(t, IsAuthEndpoint(nil))
}
