// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log formats accepted by Setup.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options controls the logger installed by Setup.
type Options struct {
	// Debug enables debug records; Verbose enables info records. With
	// neither set only warnings and errors are written.
	Debug   bool
	Verbose bool
	Format  string
	Writer  io.Writer
}

// credentialKeys are attribute keys whose values never reach the log.
var credentialKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"accesstoken":   true,
	"refreshtoken":  true,
	"authorization": true,
}

// Level returns the minimum level implied by opts.
func (o Options) Level() slog.Level {
	switch {
	case o.Debug:
		return slog.LevelDebug
	case o.Verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// New builds a logger for opts without installing it.
func New(opts Options) (*slog.Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level(),
		ReplaceAttr: maskCredentials,
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (expected %s or %s)", opts.Format, FormatText, FormatJSON)
	}
}

// Setup installs the logger for opts as the slog default.
func Setup(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func maskCredentials(_ []string, a slog.Attr) slog.Attr {
	if credentialKeys[strings.ToLower(a.Key)] && a.Value.String() != "" {
		return slog.String(a.Key, "***")
	}
	return a
}
