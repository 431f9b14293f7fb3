// Package validate checks user-supplied record fields before they reach the API.
package validate

import (
	"net/mail"
	"net/url"
	"strings"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
)

func invalid(field, msg string) error {
	return &clierrors.ValidationError{Field: field, Message: msg}
}

// NonEmpty validates that a required string field is not blank.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// NonNegative validates integer fields such as ages and paging values.
func NonNegative(field string, value int) error {
	if value < 0 {
		return invalid(field, "must not be negative")
	}
	return nil
}

// Email validates a bare address (no display name). Empty is allowed; pair
// with NonEmpty when the field is required.
func Email(field, value string) error {
	if value == "" {
		return nil
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return invalid(field, "is not an email address")
	}
	return nil
}

// CPF validates the shape of a Brazilian taxpayer number: 11 digits, with or
// without the usual "." and "-" separators. Check digits are left to the API.
func CPF(field, value string) error {
	if value == "" {
		return nil
	}
	digits := strings.NewReplacer(".", "", "-", "").Replace(value)
	if len(digits) != 11 {
		return invalid(field, "must have 11 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return invalid(field, "must contain only digits, '.' and '-'")
		}
	}
	return nil
}

// URL validates an http(s) URL with a host.
func URL(field, value string) error {
	if value == "" {
		return invalid(field, "cannot be empty")
	}
	u, err := url.Parse(value)
	if err != nil {
		return invalid(field, "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid(field, "must use http or https")
	}
	if u.Host == "" {
		return invalid(field, "must have a host")
	}
	return nil
}

// ListOptions validates paging values.
func ListOptions(page, size int) error {
	if err := NonNegative("page", page); err != nil {
		return err
	}
	return NonNegative("size", size)
}
