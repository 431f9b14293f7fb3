package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/salmonumbrella/petadm/internal/config"
	"github.com/salmonumbrella/petadm/internal/credstore"
	"github.com/salmonumbrella/petadm/internal/debug"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/pipeline"
	"github.com/salmonumbrella/petadm/internal/session"
	"github.com/salmonumbrella/petadm/internal/ui"
)

const defaultTimeout = 30 * time.Second

// services are the session-bound collaborators shared by one command run.
type services struct {
	store     credstore.Store
	ownsStore bool
	manager   *session.Manager
	api       *petapi.Client

	// hadSession records whether credentials were stored when the run began;
	// sessionEnded is set by every logout during the run.
	hadSession   bool
	sessionEnded atomic.Bool
}

type serviceOptions struct {
	apiURL    string
	ephemeral bool
}

// serviceLoader builds services on first use, so commands that never reach
// the API do not open the credential store.
type serviceLoader struct {
	once  sync.Once
	build func() (*services, error)
	svc   *services
	err   error
}

func (l *serviceLoader) get() (*services, error) {
	l.once.Do(func() {
		l.svc, l.err = l.build()
	})
	return l.svc, l.err
}

func servicesFromContext(ctx context.Context) (*services, error) {
	l := loaderFromContext(ctx)
	if l == nil {
		return nil, fmt.Errorf("command context is not initialized")
	}
	return l.get()
}

// closeServices releases the credential store opened for this run, if any.
func closeServices(ctx context.Context) error {
	l := loaderFromContext(ctx)
	if l == nil || l.svc == nil {
		return nil
	}
	return l.svc.close()
}

func newServices(ctx context.Context, app *App, cfg *config.Config, opts serviceOptions) (*services, error) {
	store, owned, err := openStore(app, cfg, opts.ephemeral)
	if err != nil {
		return nil, err
	}

	base := app.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if debug.IsDebug(ctx) {
		base = debug.NewDebugTransport(base, stderrFromContext(ctx))
	}
	timeout := cfg.GetTimeout(defaultTimeout)

	svc := &services{store: store, ownsStore: owned}

	// Login and refresh go out without the pipeline: they carry their own
	// credentials and must never trigger a refresh.
	authClient := petapi.NewClient(opts.apiURL).
		WithHTTPClient(&http.Client{Transport: base, Timeout: timeout})

	svc.manager = session.NewManager(authClient, store).
		WithNotifier(ui.FromContext(ctx)).
		WithRefreshTimeout(timeout).
		WithLogoutHook(func(context.Context) {
			svc.sessionEnded.Store(true)
		})
	svc.hadSession = svc.manager.IsAuthenticated()

	svc.api = petapi.NewClient(opts.apiURL).
		WithHTTPClient(pipeline.NewHTTPClient(base, svc.manager, timeout))
	return svc, nil
}

func openStore(app *App, cfg *config.Config, ephemeral bool) (credstore.Store, bool, error) {
	switch {
	case app.Store != nil:
		return app.Store, false, nil
	case ephemeral:
		return credstore.NewMemoryStore(), true, nil
	}
	store, err := credstore.Open(cfg.CredentialStore.Backend, cfg.CredentialStore.Path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open credential store: %w", err)
	}
	return store, true, nil
}

// sessionExpired reports whether a session that existed at startup was
// cleared during this run.
func (s *services) sessionExpired() bool {
	return s.hadSession && s.sessionEnded.Load()
}

func (s *services) close() error {
	if !s.ownsStore {
		return nil
	}
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
