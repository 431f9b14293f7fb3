package cmd

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/petadm/internal/credstore"
	"github.com/salmonumbrella/petadm/internal/iocontext"
)

// App owns CLI wiring and execution configuration.
type App struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Stdin     io.Reader
	Version   string
	Commit    string
	BuildTime string

	// Store replaces the configured credential store when set.
	Store credstore.Store
	// Transport replaces http.DefaultTransport as the base of every request.
	Transport http.RoundTripper

	// runCtx is the context built by the root pre-run, kept for error output.
	runCtx context.Context
}

// NewApp constructs an App with default settings.
func NewApp() *App {
	return &App{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Stdin:     os.Stdin,
		Version:   "dev",
		Commit:    "unknown",
		BuildTime: "unknown",
	}
}

// Execute runs the CLI with the provided args.
func (a *App) Execute(ctx context.Context, args []string) error {
	a.runCtx = nil
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)

	errCtx := a.runCtx
	if errCtx == nil {
		errCtx = iocontext.WithStreams(ctx, a.streams())
	}
	if closeErr := closeServices(errCtx); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		printCommandError(errCtx, err)
		return err
	}
	return nil
}

// RootCommand exposes the root Cobra command for embedding/tests.
func (a *App) RootCommand() *cobra.Command {
	return newRootCmd(a)
}

func (a *App) streams() iocontext.Streams {
	return iocontext.Streams{In: a.Stdin, Out: a.Stdout, Err: a.Stderr}
}
