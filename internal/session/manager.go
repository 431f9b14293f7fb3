package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/salmonumbrella/petadm/internal/credstore"
)

// AuthAPI is the subset of the API client used by the Manager.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
}

// DefaultRefreshTimeout bounds a refresh call. A refresh does not follow the
// cancellation of the request that started it.
const DefaultRefreshTimeout = 30 * time.Second

// Notifier surfaces terminal session failures to the user.
type Notifier interface {
	Notify(msg string)
}

// Manager owns login, logout and refresh, and the observable session state.
type Manager struct {
	api      AuthAPI
	store    credstore.Store
	notifier Notifier
	onLogout func(ctx context.Context)

	refreshTimeout time.Duration

	// writeMu serializes credential write sequences so a login, refresh or
	// logout is never observed half-applied by another manager call.
	writeMu sync.Mutex
	refresh singleflight.Group
	state   *stateCell
}

// NewManager creates a Manager and seeds its state from the store.
func NewManager(api AuthAPI, store credstore.Store) *Manager {
	m := &Manager{
		api:            api,
		store:          store,
		refreshTimeout: DefaultRefreshTimeout,
	}
	m.state = newStateCell(m.loadState())
	return m
}

// WithNotifier sets the sink used to tell the user the session expired.
func (m *Manager) WithNotifier(n Notifier) *Manager {
	m.notifier = n
	return m
}

// WithLogoutHook registers fn to run after every logout, typically to leave
// protected content.
func (m *Manager) WithLogoutHook(fn func(ctx context.Context)) *Manager {
	m.onLogout = fn
	return m
}

// WithRefreshTimeout bounds each refresh call. Non-positive values keep
// DefaultRefreshTimeout.
func (m *Manager) WithRefreshTimeout(d time.Duration) *Manager {
	if d > 0 {
		m.refreshTimeout = d
	}
	return m
}

// Login authenticates username and password. On success both tokens and the
// user record are persisted and the state becomes authenticated. A failed
// login returns the API error unchanged and leaves the session untouched.
func (m *Manager) Login(ctx context.Context, username, password string) (*Tokens, error) {
	tokens, err := m.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     username,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.persist(tokens, user); err != nil {
		if clearErr := credstore.Clear(m.store); clearErr != nil {
			slog.Warn("failed to roll back partial session", "error", clearErr)
		}
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.state.set(State{Authenticated: true, User: user})
	slog.Info("session established", "username", username)
	return tokens, nil
}

// Refresh renews the token pair using the stored refresh token.
//
// With no refresh token on record it logs out, notifies the user and returns
// ErrNoRefreshToken without touching the network. A failed refresh call is
// returned as is; logging out in that case is up to the caller.
//
// Concurrent callers share one refresh call. The call runs detached from
// every caller's context, bounded by the refresh timeout, so a caller whose
// ctx is done gets ctx.Err() while the refresh still completes and stores the
// rotated pair for everyone else.
func (m *Manager) Refresh(ctx context.Context) (*Tokens, error) {
	refreshToken := m.RefreshToken()
	if refreshToken == "" {
		slog.Info("no refresh token on record, clearing session")
		if err := m.Logout(ctx); err != nil {
			slog.Warn("logout after missing refresh token failed", "error", err)
		}
		if m.notifier != nil {
			m.notifier.Notify(SessionExpiredMessage)
		}
		return nil, ErrNoRefreshToken
	}

	flight := m.refresh.DoChan(refreshToken, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.refreshTimeout)
		defer cancel()
		return m.doRefresh(fctx, refreshToken)
	})

	select {
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("joined in-flight token refresh")
		}
		tokens := *res.Val.(*Tokens)
		return &tokens, nil
	case <-ctx.Done():
		slog.Debug("caller stopped waiting for token refresh", "error", ctx.Err())
		return nil, ctx.Err()
	}
}

func (m *Manager) doRefresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	// A flight for this token may have finished between the caller reading
	// it and joining; the rotated pair is already stored.
	if current := m.read(credstore.KeyRefreshToken); current != refreshToken {
		if current == "" {
			return nil, ErrSessionChanged
		}
		return &Tokens{AccessToken: m.Token(), RefreshToken: current}, nil
	}

	slog.Debug("refreshing access token")

	tokens, err := m.api.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	// A logout or a new login may have landed while the call was in flight.
	if current := m.read(credstore.KeyRefreshToken); current != refreshToken {
		return nil, ErrSessionChanged
	}

	user := m.loadUser()
	if user != nil {
		user.AccessToken = tokens.AccessToken
		user.RefreshToken = tokens.RefreshToken
	}
	if err := m.persist(tokens, user); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed session: %w", err)
	}

	m.state.set(State{Authenticated: true, User: user})
	slog.Debug("access token refreshed")
	return tokens, nil
}

// Logout clears every stored credential, resets the state and runs the logout
// hook. Calling it on an anonymous session is harmless.
func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	err := credstore.Clear(m.store)
	wasAuthenticated := m.state.get().Authenticated
	m.state.set(State{})
	m.writeMu.Unlock()

	if wasAuthenticated {
		slog.Info("session cleared")
	}

	if m.onLogout != nil {
		m.onLogout(ctx)
	}

	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether an access token is stored.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// Token returns the stored access token, or "" when absent.
func (m *Manager) Token() string {
	return m.read(credstore.KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (m *Manager) RefreshToken() string {
	return m.read(credstore.KeyRefreshToken)
}

// CurrentUser returns a copy of the cached user, or nil.
func (m *Manager) CurrentUser() *User {
	return m.state.get().User
}

// State returns a snapshot of the session state.
func (m *Manager) State() State {
	return m.state.get()
}

// Subscribe returns a channel that receives the current state immediately and
// then every change. cancel releases the subscription and closes the channel.
func (m *Manager) Subscribe() (<-chan State, func()) {
	return m.state.subscribe()
}

// persist writes the token pair and, when non-nil, the user record.
// Callers hold writeMu.
func (m *Manager) persist(tokens *Tokens, user *User) error {
	if err := m.store.Set(credstore.KeyAccessToken, tokens.AccessToken); err != nil {
		return err
	}
	if err := m.store.Set(credstore.KeyRefreshToken, tokens.RefreshToken); err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return m.store.Set(credstore.KeyUser, string(data))
}

func (m *Manager) read(key string) string {
	v, err := m.store.Get(key)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			slog.Warn("failed to read credential", "key", key, "error", err)
		}
		return ""
	}
	return v
}

func (m *Manager) loadUser() *User {
	raw := m.read(credstore.KeyUser)
	if raw == "" {
		return nil
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		slog.Warn("ignoring unreadable cached user", "error", err)
		return nil
	}
	return &user
}

func (m *Manager) loadState() State {
	if m.Token() == "" {
		return State{}
	}
	return State{Authenticated: true, User: m.loadUser()}
}
