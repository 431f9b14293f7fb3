package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"gopkg.in/yaml.v3"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/output"
	"github.com/salmonumbrella/petadm/internal/petapi"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return clierrors.NewUserError(
			fmt.Sprintf("invalid --error-format %q", format),
			"Use one of: auto, text, json, yaml",
		)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

// userMessage returns the translated message for a failed request. Auth
// failures are never translated here: they carry their own hint.
func userMessage(err error) (string, bool) {
	var apiErr *petapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if clierrors.IsAuthError(err) || errors.Is(err, context.Canceled) {
		return "", false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return petapi.UserMessage(0)
	}
	return "", false
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	w := stderrFromContext(ctx)
	if msg, ok := userMessage(err); ok {
		_, _ = fmt.Fprintf(w, "Error: %s\n", msg)
		_, _ = fmt.Fprintf(w, "Detail: %v\n", err)
	} else {
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	}
	if suggestion := clierrors.UserSuggestion(err); suggestion != "" {
		_, _ = fmt.Fprintf(w, "Hint: %s\n", suggestion)
	}
}

func buildErrorEnvelope(err error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message": err.Error(),
	}
	payload := map[string]interface{}{"error": errMap}

	category := "system"
	if clierrors.IsUserError(err) || clierrors.IsValidationError(err) ||
		clierrors.IsAuthError(err) || clierrors.IsNotFoundError(err) {
		category = "user"
	}
	errMap["category"] = category
	errMap["exit_code"] = ExitCode(err)

	if msg, ok := userMessage(err); ok {
		errMap["user_message"] = msg
	}
	if suggestion := clierrors.UserSuggestion(err); suggestion != "" {
		errMap["suggestion"] = suggestion
	}

	var contextual *clierrors.ContextualError
	if errors.As(err, &contextual) {
		errMap["method"] = contextual.Method
		errMap["url"] = contextual.URL
		if contextual.StatusCode > 0 {
			errMap["status"] = contextual.StatusCode
		}
	}

	var apiErr *petapi.APIError
	if errors.As(err, &apiErr) {
		errMap["type"] = "api"
		if apiErr.StatusCode > 0 {
			errMap["status"] = apiErr.StatusCode
		}
		if apiErr.Response != nil && apiErr.Response.Message != "" {
			errMap["detail"] = apiErr.Response.Message
		}
		if apiErr.RequestID != "" {
			errMap["request_id"] = apiErr.RequestID
		}
	}

	var notFound *clierrors.RecordNotFoundError
	if errors.As(err, &notFound) {
		errMap["type"] = "not_found"
		errMap["entity"] = notFound.EntityType
		errMap["id"] = notFound.ID
	}

	var authErr *clierrors.AuthError
	if errors.As(err, &authErr) {
		errMap["type"] = "auth"
		if authErr.Kind != "" {
			errMap["reason"] = string(authErr.Kind)
		}
	}

	var validationErr *clierrors.ValidationError
	if errors.As(err, &validationErr) {
		errMap["type"] = "validation"
		errMap["field"] = validationErr.Field
	}

	return payload
}
