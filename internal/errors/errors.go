// Package errors defines the typed errors the CLI maps to exit codes and hints.
package errors

import (
	"errors"
	"fmt"
)

// ValidationError represents an input validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// UserError represents an error caused by user input or configuration.
// Suggestion can provide a concrete fix for the user.
type UserError struct {
	Message    string
	Suggestion string
	Err        error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a UserError with a message and optional suggestion.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{Message: message, Suggestion: suggestion}
}

// WrapUserError wraps an underlying error with a user-facing message and suggestion.
func WrapUserError(err error, message, suggestion string) *UserError {
	return &UserError{Message: message, Suggestion: suggestion, Err: err}
}

// AuthKind says why a command could not be authorized.
type AuthKind string

const (
	// AuthLoginRequired means no session was on record.
	AuthLoginRequired AuthKind = "login_required"
	// AuthSessionExpired means a session existed but could not be renewed.
	AuthSessionExpired AuthKind = "session_expired"
	// AuthInvalidCredentials means the login endpoint rejected the username or password.
	AuthInvalidCredentials AuthKind = "invalid_credentials"
)

// AuthError is a failure the user fixes by logging in.
type AuthError struct {
	Kind       AuthKind
	Reason     string
	Suggestion string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication error: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// AuthRequiredError wraps err for commands that need a session.
func AuthRequiredError(err error) error {
	return &AuthError{
		Kind:       AuthLoginRequired,
		Reason:     "authentication required",
		Suggestion: "Run 'petadm auth login' to start a session",
		Err:        err,
	}
}

// SessionExpiredError wraps err when the session was cleared because it could
// not be renewed.
func SessionExpiredError(err error) error {
	return &AuthError{
		Kind:       AuthSessionExpired,
		Reason:     "session expired",
		Suggestion: "Run 'petadm auth login' to log in again",
		Err:        err,
	}
}

// InvalidCredentialsError wraps a rejected login.
func InvalidCredentialsError(err error) error {
	return &AuthError{
		Kind:       AuthInvalidCredentials,
		Reason:     "invalid username or password",
		Suggestion: "Check your credentials and try again",
		Err:        err,
	}
}

// AuthKindOf returns the kind of the AuthError in err's chain, or "".
func AuthKindOf(err error) AuthKind {
	var e *AuthError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsUserError(err error) bool {
	var e *UserError
	return errors.As(err, &e)
}

// UserSuggestion returns the suggestion carried by err, if any.
func UserSuggestion(err error) string {
	var nf *RecordNotFoundError
	if errors.As(err, &nf) && nf.ListCommand != "" {
		return fmt.Sprintf("Run 'petadm %s' to find existing %s records", nf.ListCommand, nf.EntityType)
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Suggestion
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Suggestion
	}
	return ""
}

// ContextualError wraps an error with HTTP request context for debugging.
type ContextualError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

// WrapContext wraps an error with HTTP request context.
// StatusCode can be 0 if the request never completed.
// Returns nil if err is nil.
func WrapContext(method, url string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &ContextualError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

func (e *ContextualError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s (%d): %s", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Err)
}

func (e *ContextualError) Unwrap() error {
	return e.Err
}

// IsContextualError checks if an error is a ContextualError.
func IsContextualError(err error) bool {
	var ce *ContextualError
	return errors.As(err, &ce)
}

// RecordNotFoundError reports a pet or owner id the API does not know.
type RecordNotFoundError struct {
	EntityType  string
	ID          int64
	ListCommand string
	Err         error
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.EntityType, e.ID)
}

func (e *RecordNotFoundError) Unwrap() error {
	return e.Err
}

// NotFoundError wraps err for a missing pet or owner.
// listCommand is the command that lists the entity, e.g. "pets list".
func NotFoundError(err error, entityType string, id int64, listCommand string) error {
	return &RecordNotFoundError{
		EntityType:  entityType,
		ID:          id,
		ListCommand: listCommand,
		Err:         err,
	}
}

func IsNotFoundError(err error) bool {
	var e *RecordNotFoundError
	return errors.As(err, &e)
}
