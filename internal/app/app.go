// Package app wires the relay subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects the
// listener registry and HTTP surface, Run serves until the context is
// cancelled, and Shutdown tears everything down in order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blockparty-gg/npcrelay/internal/api"
	"github.com/blockparty-gg/npcrelay/internal/config"
	"github.com/blockparty-gg/npcrelay/internal/observe"
	"github.com/blockparty-gg/npcrelay/internal/relay"
	"github.com/blockparty-gg/npcrelay/pkg/provider/llm"
	"github.com/blockparty-gg/npcrelay/pkg/provider/notify"
	"github.com/blockparty-gg/npcrelay/pkg/provider/tts"
)

// shutdownTimeout bounds the HTTP server drain during Run teardown.
const shutdownTimeout = 10 * time.Second

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	Completion llm.Provider

	Speech       tts.Provider
	SpeechVoice  tts.VoiceProfile
	SpeechFormat string

	Notifier notify.Provider
}

// App owns all subsystem lifetimes.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *relay.Registry
	api      *api.Server
	server   *http.Server

	mu   sync.Mutex
	addr net.Addr

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// New creates an App by wiring the registry and HTTP surface together. The
// providers struct comes from main.go (populated via the config registry).
func New(cfg *config.Config, providers *Providers, logger *slog.Logger, metrics *observe.Metrics) (*App, error) {
	if providers == nil || providers.Completion == nil {
		return nil, errors.New("app: a completion provider is required")
	}

	registry := relay.NewRegistry(logger)

	apiServer := api.NewServer(api.Options{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Completion:   providers.Completion,
		Registry:     registry,
		Speech:       providers.Speech,
		SpeechVoice:  providers.SpeechVoice,
		SpeechFormat: providers.SpeechFormat,
		Notifier:     providers.Notifier,
	})

	a := &App{
		cfg:      cfg,
		logger:   logger.With("component", "app"),
		registry: registry,
		api:      apiServer,
		server: &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           apiServer.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	a.closers = append(a.closers,
		func() error { registry.CloseAll(); return nil },
		func() error { apiServer.Wait(); return nil },
	)

	return a, nil
}

// Addr returns the actual listen address once Run has bound the socket, or
// nil before that.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Run binds the listen socket and serves until ctx is cancelled, then drains
// the HTTP server and shuts the subsystems down.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", a.cfg.Server.ListenAddr, err)
	}
	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()

	a.logger.Info("serving", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Shutdown(sctx)
	})

	return g.Wait()
}

// Shutdown drains the HTTP server and tears down all subsystems in order.
// Safe to call more than once; only the first call does work. It respects
// the context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down", "closers", len(a.closers))

		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("http server shutdown", "error", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.logger.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.logger.Warn("closer error", "index", i, "error", err)
			}
		}

		a.logger.Info("shutdown complete")
	})
	return shutdownErr
}
