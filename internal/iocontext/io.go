// Package iocontext carries the process streams through a context so
// commands can be run against buffers in tests.
package iocontext

import (
	"context"
	"io"
	"os"
)

type ctxKey struct{}

// Streams are the standard streams of one command run. Nil fields fall back
// to the process streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// WithStreams attaches s to ctx.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the streams in ctx with nil fields left as they are.
func FromContext(ctx context.Context) Streams {
	s, _ := ctx.Value(ctxKey{}).(Streams)
	return s
}

// Stdin returns the input stream, or os.Stdin.
func Stdin(ctx context.Context) io.Reader {
	if in := FromContext(ctx).In; in != nil {
		return in
	}
	return os.Stdin
}

// Stdout returns the output stream, or os.Stdout.
func Stdout(ctx context.Context) io.Writer {
	if out := FromContext(ctx).Out; out != nil {
		return out
	}
	return os.Stdout
}

// Stderr returns the diagnostic stream, or os.Stderr.
func Stderr(ctx context.Context) io.Writer {
	if w := FromContext(ctx).Err; w != nil {
		return w
	}
	return os.Stderr
}
