package credstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories builds one fresh instance of every backend that can run
// without an OS keyring.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"keyring": func() Store {
			return NewKeyringStore(keyring.NewArrayKeyring(nil))
		},
		"bolt": func() Store {
			s, err := OpenBolt(filepath.Join(t.TempDir(), "creds.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_GetSetRemove(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()

			_, err := s.Get(KeyAccessToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(KeyAccessToken, "A1"))
			require.NoError(t, s.Set(KeyRefreshToken, "R1"))

			got, err := s.Get(KeyAccessToken)
			require.NoError(t, err)
			assert.Equal(t, "A1", got)

			require.NoError(t, s.Set(KeyAccessToken, "A2"))
			got, err = s.Get(KeyAccessToken)
			require.NoError(t, err)
			assert.Equal(t, "A2", got)

			require.NoError(t, s.Remove(KeyAccessToken))
			_, err = s.Get(KeyAccessToken)
			assert.ErrorIs(t, err, ErrNotFound)

			got, err = s.Get(KeyRefreshToken)
			require.NoError(t, err)
			assert.Equal(t, "R1", got)
		})
	}
}

func TestStore_RemoveAbsentKey(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			assert.NoError(t, s.Remove(KeyUser))
			assert.NoError(t, s.Remove(KeyUser))
		})
	}
}

func TestClear(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(KeyAccessToken, "A1"))
	require.NoError(t, s.Set(KeyRefreshToken, "R1"))
	require.NoError(t, s.Set(KeyUser, `{"username":"admin"}`))
	require.NoError(t, s.Set("unrelated", "keep"))

	require.NoError(t, Clear(s))
	require.NoError(t, Clear(s))

	for _, key := range Keys {
		_, err := s.Get(key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}
	assert.Equal(t, 1, s.Len())
}

type failingStore struct {
	*MemoryStore
	failOn string
}

func (f failingStore) Remove(key string) error {
	if key == f.failOn {
		return errors.New("locked")
	}
	return f.MemoryStore.Remove(key)
}

func TestClear_ContinuesAfterFailure(t *testing.T) {
	s := failingStore{MemoryStore: NewMemoryStore(), failOn: KeyAccessToken}
	require.NoError(t, s.Set(KeyRefreshToken, "R1"))
	require.NoError(t, s.Set(KeyUser, "{}"))

	err := Clear(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove access_token")
	assert.Equal(t, 0, s.Len())
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "creds.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyRefreshToken, "R1"))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Get(KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "R1", got)
}

func TestOpen(t *testing.T) {
	s, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(BackendFile, filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, s)
	_ = s.(*BoltStore).Close()

	_, err = Open("vault", "")
	assert.Error(t, err)
}

func TestDefaultBoltPath_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CredentialsDirEnvVarName, dir)

	path, err := DefaultBoltPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ServiceName, "credentials.db"), path)
}

func TestKeyringFileDir(t *testing.T) {
	t.Setenv(CredentialsDirEnvVarName, "/tmp/creds")
	assert.Equal(t, filepath.Join("/tmp/creds", ServiceName, "keyring"), keyringFileDir())
}

func TestKeyringFilePassword(t *testing.T) {
	t.Setenv(KeyringPasswordEnvVarName, "")
	assert.Equal(t, ServiceName, keyringFilePassword())

	t.Setenv(KeyringPasswordEnvVarName, "  s3cret ")
	assert.Equal(t, "s3cret", keyringFilePassword())
}

func TestShouldForceFileBackend(t *testing.T) {
	tests := []struct {
		goos string
		dbus string
		want bool
	}{
		{"linux", "", true},
		{"linux", "  ", true},
		{"linux", "unix:path=/run/user/1000/bus", false},
		{"darwin", "", false},
		{"windows", "", false},
	}
	for _, tt := range tests {
		if got := shouldForceFileBackend(tt.goos, tt.dbus); got != tt.want {
			t.Errorf("shouldForceFileBackend(%q, %q) = %v, want %v", tt.goos, tt.dbus, got, tt.want)
		}
	}
}
