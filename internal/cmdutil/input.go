// Package cmdutil holds argument and input helpers shared by commands.
package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
)

// ParseID parses a positive numeric record id. name labels the argument in
// the error.
func ParseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, &clierrors.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("%q is not a valid id (expected a positive integer)", value),
		}
	}
	return id, nil
}

// ResolveJSONInput resolves JSON input given inline, as @file, or as "-" for
// stdin.
func ResolveJSONInput(raw string, stdin io.Reader) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "-" {
		return ReadInputSource("-", stdin)
	}
	if strings.HasPrefix(trimmed, "@") {
		return ReadInputSource(trimmed[1:], stdin)
	}
	return raw, nil
}

// NormalizeJSONInput unwraps double-serialized JSON strings when possible.
// If the input is a JSON string containing JSON, it returns the inner JSON.
//
// This handles input that has been quoted one time too many, such as
// "{\"nome\": \"Rex\"}" from shell escaping. Only one level is removed.
func NormalizeJSONInput(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
		return raw
	}

	innerTrimmed := strings.TrimSpace(inner)
	if innerTrimmed == "" {
		return raw
	}
	if json.Valid([]byte(innerTrimmed)) {
		return innerTrimmed
	}

	return raw
}

// UnmarshalJSONInput resolves raw (see ResolveJSONInput) and decodes it into
// target.
func UnmarshalJSONInput(raw string, stdin io.Reader, target interface{}) error {
	resolved, err := ResolveJSONInput(raw, stdin)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(NormalizeJSONInput(resolved)), target); err != nil {
		return clierrors.WrapUserError(err, "invalid JSON input", `Pass a JSON object, e.g. --data '{"nome":"Rex"}', or @file.json`)
	}
	return nil
}

// ReadInputSource reads input from a file path or from stdin when path is "-".
func ReadInputSource(path string, stdin io.Reader) (string, error) {
	if path == "" {
		return "", fmt.Errorf("input file path is required")
	}
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
