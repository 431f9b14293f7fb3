package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionExpiredMessage is shown to the user when the session cannot be renewed.
const SessionExpiredMessage = "Sua sessão expirou. Faça login novamente."

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrSessionChanged is returned by Refresh when the session was replaced
	// or cleared while the refresh call was in flight. The result is discarded.
	ErrSessionChanged = errors.New("session changed during refresh")
)

// Tokens is the payload returned by the login and refresh endpoints.
type Tokens struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

// User is the cached identity stored alongside the tokens.
type User struct {
	Username     string `json:"username"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// State is the observable view of the session.
type State struct {
	Authenticated bool
	User          *User
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// TokenExpiry reads the exp claim of a JWT access token without verifying
// its signature. ok is false for opaque tokens or tokens without exp.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := parsed.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}
