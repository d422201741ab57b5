package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pjsousa/hello-stomp-live/internal/config"
	"github.com/pjsousa/hello-stomp-live/internal/core"
	"github.com/pjsousa/hello-stomp-live/internal/store"
	"github.com/pjsousa/hello-stomp-live/internal/store/sqlite"
	transporthttp "github.com/pjsousa/hello-stomp-live/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	var st store.Store
	if cfg.DatabasePath != "" {
		sqliteStore, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		st = sqliteStore
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
	} else {
		logger.Info().Msg("persistence disabled")
	}

	hub := core.NewHub(st, logger, core.Options{
		HistoryLimit:      cfg.HistoryLimit,
		SnapshotRecent:    cfg.SnapshotRecent,
		ValidateOptions:   cfg.ValidateOptions,
		BroadcastInterval: cfg.BroadcastInterval,
		UserInterval:      cfg.UserInterval,
		DeviceInterval:    cfg.DeviceInterval,
	})

	if st != nil {
		if err := seedHistory(hub, st, cfg.HistoryLimit); err != nil {
			logger.Warn().Err(err).Msg("failed to seed history from store")
		}
	}

	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// seedHistory replays persisted messages into the in-memory history so
// reconnect snapshots survive a restart.
func seedHistory(hub *core.Hub, st store.MessageStore, limit int) error {
	if limit <= 0 {
		limit = core.DefaultHistoryLimit
	}
	persisted, err := st.ListRecent(context.Background(), limit)
	if err != nil {
		return err
	}
	msgs := make([]core.Message, 0, len(persisted))
	for _, m := range persisted {
		msgs = append(msgs, core.FromStoreMessage(m))
	}
	hub.SeedHistory(msgs)
	return nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	// The hub must outlive the signal context: handlers unregister
	// their clients while the server drains and need a live receiver
	// on the command channel.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

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

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
