package cmd

import (
	"context"
	"io"

	"github.com/salmonumbrella/petadm/internal/iocontext"
	"github.com/salmonumbrella/petadm/internal/output"
)

func stdinFromContext(ctx context.Context) io.Reader {
	return iocontext.Stdin(ctx)
}

func stdoutFromContext(ctx context.Context) io.Writer {
	return iocontext.Stdout(ctx)
}

func stderrFromContext(ctx context.Context) io.Writer {
	return iocontext.Stderr(ctx)
}

func printerForContext(ctx context.Context) *output.Printer {
	return output.NewPrinter(stdoutFromContext(ctx), output.FormatFromContext(ctx))
}
