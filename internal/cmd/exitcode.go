package cmd

import (
	"context"
	"errors"
	"net/http"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/session"
)

const (
	ExitOK        = 0
	ExitSystem    = 1
	ExitUser      = 2
	ExitAuth      = 3
	ExitNotFound  = 4
	ExitRateLimit = 5
	ExitCanceled  = 130
)

// ExitCode maps a command error to a stable process exit code for automation.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitCanceled
	}
	if errors.Is(err, session.ErrNoRefreshToken) || errors.Is(err, session.ErrSessionChanged) {
		return ExitAuth
	}

	var apiErr *petapi.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return ExitNotFound
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return ExitRateLimit
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return ExitAuth
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return ExitUser
		default:
			return ExitSystem
		}
	}

	if clierrors.IsAuthError(err) {
		return ExitAuth
	}
	if clierrors.IsNotFoundError(err) {
		return ExitNotFound
	}
	if clierrors.IsValidationError(err) || clierrors.IsUserError(err) {
		return ExitUser
	}

	return ExitSystem
}
