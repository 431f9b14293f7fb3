package credstore

import (
	"errors"
	"fmt"
)

const (
	// KeyAccessToken holds the bearer token attached to ordinary API calls.
	KeyAccessToken = "access_token"
	// KeyRefreshToken holds the token presented to the refresh endpoint.
	KeyRefreshToken = "refresh_token"
	// KeyUser holds the serialized cached user record.
	KeyUser = "user"
)

// Keys lists every key the session writes, in write order.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("credential not found")

// Store is durable key/value persistence for session credentials.
//
// Remove on an absent key must succeed so that clearing is idempotent.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Backend names accepted by Open.
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendMemory  = "memory"
)

// Open returns the store for the named backend. path is only used by the file
// backend; an empty path selects DefaultBoltPath.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendKeyring:
		return OpenKeyring()
	case BackendFile:
		if path == "" {
			p, err := DefaultBoltPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return OpenBolt(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store backend %q (expected keyring|file|memory)", backend)
	}
}

// Clear removes every session key from s. It keeps going after a failure and
// returns the joined errors.
func Clear(s Store) error {
	var errs []error
	for _, key := range Keys {
		if err := s.Remove(key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
