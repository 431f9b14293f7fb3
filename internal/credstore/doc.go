// Package credstore persists the session credentials of petadm.
//
// A Store is a dumb key/value layer: it performs no validation and tracks no
// expiry. Three fixed keys are used by the session manager:
//
//   - KeyAccessToken: the short-lived bearer token
//   - KeyRefreshToken: the token used to mint new access tokens
//   - KeyUser: the cached user record (JSON)
//
// Backends:
//
//   - KeyringStore: the OS keyring (macOS Keychain, Windows Credential Manager,
//     Linux Secret Service) via github.com/99designs/keyring, with an encrypted
//     file fallback on headless Linux.
//   - BoltStore: a single bbolt file, for hosts without a usable keyring.
//   - MemoryStore: process-local, used by tests and --ephemeral sessions.
//
// Keyring fallback files can be directed to a custom root with
// PETADM_CREDENTIALS_DIR, and the file passphrase set with
// PETADM_KEYRING_PASSWORD.
package credstore
