package credstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketCredentials = []byte("credentials")

// BoltStore keeps credentials in a single bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// DefaultBoltPath returns <config dir>/petadm/credentials.db, honoring
// PETADM_CREDENTIALS_DIR.
func DefaultBoltPath() (string, error) {
	if dir := os.Getenv(CredentialsDirEnvVarName); dir != "" {
		return filepath.Join(dir, ServiceName, "credentials.db"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(configDir, ServiceName, "credentials.db"), nil
}

// OpenBolt opens (or creates) the credential file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCredentials)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize credentials bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close releases the file lock.
func (b *BoltStore) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *BoltStore) Get(key string) (string, error) {
	var value string
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCredentials).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		// data is only valid inside the transaction
		value = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (b *BoltStore) Set(key, value string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketCredentials).Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		return nil
	})
}

func (b *BoltStore) Remove(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketCredentials).Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
		return nil
	})
}
