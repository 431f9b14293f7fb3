package cmd

import (
	"errors"
	"fmt"
	"net/http"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/session"
)

// listCommands names the command that lists each entity type.
var listCommands = map[string]string{
	"pet":   "pets list",
	"tutor": "tutores list",
}

// wrapAPIError maps API errors to user-facing types. A 404 on a known id
// becomes a NotFoundError; a 401 that survived the pipeline means the session
// is gone, either expired during this run or never established.
func wrapAPIError(svc *services, err error, action, entityType string, id int64) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, session.ErrNoRefreshToken) || errors.Is(err, session.ErrSessionChanged) {
		return clierrors.SessionExpiredError(err)
	}

	var apiErr *petapi.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			if entityType != "" && id > 0 {
				return clierrors.NotFoundError(err, entityType, id, listCommands[entityType])
			}
		case http.StatusUnauthorized:
			if svc != nil && svc.sessionExpired() {
				return clierrors.SessionExpiredError(err)
			}
			return clierrors.AuthRequiredError(err)
		}
	}

	if action == "" {
		return err
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
