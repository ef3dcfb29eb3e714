package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Mutua-sr/apptwo-sub001/internal/auth"
	"github.com/Mutua-sr/apptwo-sub001/internal/calls"
	"github.com/Mutua-sr/apptwo-sub001/internal/config"
	"github.com/Mutua-sr/apptwo-sub001/internal/core"
	"github.com/Mutua-sr/apptwo-sub001/internal/store"
	"github.com/Mutua-sr/apptwo-sub001/internal/store/sqlite"
	transporthttp "github.com/Mutua-sr/apptwo-sub001/internal/transport/http"
)

// App wires together store, core, call service, and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	calls           *calls.Service
	scheduler       *cron.Cron
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. Missing
// required configuration or a failed store open abort start-up.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	registry := core.NewRegistry()
	presence := core.NewPresenceTracker()
	hub := core.NewHub(registry, presence, logger)
	messages := core.NewMessageRelay(st, hub, logger)
	signals := core.NewSignalRelay(hub)
	callService := calls.New(st, hub, authService, cfg.CallRetention, logger)

	server := transporthttp.NewServer(transporthttp.Deps{
		Hub:      hub,
		Messages: messages,
		Signals:  signals,
		Calls:    callService,
		Auth:     authService,
		Resolver: authService,
	}, cfg, logger)

	app := &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		calls:           callService,
		log:             logger,
	}

	if cfg.CleanupInterval > 0 {
		app.scheduler = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		spec := fmt.Sprintf("@every %s", cfg.CleanupInterval)
		if _, err := app.scheduler.AddFunc(spec, app.runCleanup); err != nil {
			st.Close()
			return nil, fmt.Errorf("schedule cleanup: %w", err)
		}
	}

	return app, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// error.
func (a *App) Run(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

func (a *App) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := a.calls.CleanupSessions(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("scheduled cleanup failed")
		return
	}
	a.log.Debug().Int("deleted", deleted).Msg("scheduled cleanup finished")
}

// cleanup stops the scheduler and closes the store.
func (a *App) cleanup() {
	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
