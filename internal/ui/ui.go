// Package ui writes colored status lines to stderr and is the sink for
// session notifications.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/salmonumbrella/petadm/internal/session"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colors based on terminal capabilities.
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities.
	ColorAlways
	// ColorNever disables all colored output.
	ColorNever
)

// ParseColorMode maps "auto", "always" and "never" to a ColorMode. The empty
// string is auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q (expected auto, always or never)", s)
	}
}

type contextKey struct{}

// UI provides methods for formatted terminal output with color support.
type UI struct {
	out   *termenv.Output
	color ColorMode
}

var _ session.Notifier = (*UI)(nil)

// New creates a UI writing to stderr.
func New(mode ColorMode) *UI {
	return NewWithWriter(os.Stderr, mode)
}

// NewWithWriter creates a UI writing to w. NO_COLOR disables colors in every
// mode.
func NewWithWriter(w io.Writer, mode ColorMode) *UI {
	if os.Getenv("NO_COLOR") != "" {
		mode = ColorNever
	}

	var profile termenv.Profile
	switch mode {
	case ColorNever:
		profile = termenv.Ascii
	case ColorAlways:
		profile = termenv.ColorProfile()
		if profile == termenv.Ascii {
			profile = termenv.ANSI256
		}
	default:
		profile = termenv.NewOutput(w).EnvColorProfile()
	}

	return &UI{
		out:   termenv.NewOutput(w, termenv.WithProfile(profile)),
		color: mode,
	}
}

// WithUI returns a new context with the UI instance attached.
func WithUI(ctx context.Context, ui *UI) context.Context {
	return context.WithValue(ctx, contextKey{}, ui)
}

// FromContext retrieves the UI instance from the context.
// If no UI is found, it returns a default UI with ColorAuto mode.
func FromContext(ctx context.Context) *UI {
	if ui, ok := ctx.Value(contextKey{}).(*UI); ok {
		return ui
	}
	return New(ColorAuto)
}

func (u *UI) line(prefix string, color termenv.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String(prefix+msg).Foreground(color))
}

// Success prints a success message in green.
func (u *UI) Success(format string, args ...any) {
	u.line("✓ ", termenv.ANSIGreen, format, args...)
}

// Warning prints a warning message in yellow.
func (u *UI) Warning(format string, args ...any) {
	u.line("⚠ ", termenv.ANSIYellow, format, args...)
}

// Error prints an error message in red.
func (u *UI) Error(format string, args ...any) {
	u.line("✗ ", termenv.ANSIRed, format, args...)
}

// Info prints an informational message in blue.
func (u *UI) Info(format string, args ...any) {
	u.line("ℹ ", termenv.ANSIBlue, format, args...)
}

// Notify shows a session notification, such as an expired session.
func (u *UI) Notify(msg string) {
	u.Warning("%s", msg)
}

// Writer returns the underlying writer for the UI.
func (u *UI) Writer() io.Writer {
	return u.out
}
