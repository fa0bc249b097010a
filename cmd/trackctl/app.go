package main

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/trackctl/internal/adapter"
	"github.com/mmcdole/trackctl/internal/adapter/source/rest"
	"github.com/mmcdole/trackctl/internal/library"
	"github.com/mmcdole/trackctl/internal/params"
	"github.com/mmcdole/trackctl/internal/service"
	"github.com/mmcdole/trackctl/internal/session"
	"github.com/mmcdole/trackctl/internal/store"
)

// app holds the assembled services for one invocation
type app struct {
	cfg    *adapter.Config
	logger *slog.Logger

	client   *rest.Client
	store    *store.QueryStore
	session  *session.State
	library  *library.Service
	playback *service.PlaybackService
}

// loadConfig reads the configuration and applies the --server override
func loadConfig(opts *rootOptions) (*adapter.Config, error) {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.server != "" {
		cfg.Server.URL = opts.server
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setupLogging installs the file logger as the default. The returned
// func closes the log file.
func setupLogging(cfg *adapter.Config) (*slog.Logger, func()) {
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
		slog.SetDefault(logger)
		return logger, func() {}
	}
	slog.SetDefault(logger)
	return logger, func() { closer.Close() }
}

// newApp wires the catalog client, query store and services. view is the
// initial shareable view query.
func newApp(cfg *adapter.Config, logger *slog.Logger, view string) (*app, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("no server configured: run trackctl without arguments or pass --server")
	}

	client := rest.NewClient(cfg.Server.URL, logger, rest.WithTimeout(cfg.Server.Timeout))

	qs, err := store.NewQueryStore(cfg.CacheDir(), cfg.Server.URL)
	if err != nil {
		// A locked or corrupt cache should not keep the app from starting
		logger.Warn("failed to open query store, using memory", "error", err)
		qs, _ = store.NewQueryStore("", "")
	}

	state := session.New()
	viewState := params.NewState(params.ParseQuery(view, cfg.UI.PageSize), cfg.UI.PageSize)

	librarySvc := library.NewService(client, viewState, state, library.Options{
		StaleTime: cfg.Cache.StaleTime,
		PageSize:  cfg.UI.PageSize,
		Store:     qs,
		Logger:    logger,
	})

	launcher := adapter.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)
	playbackSvc := service.NewPlaybackService(launcher, client, state.Playback, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		store:    qs,
		session:  state,
		library:  librarySvc,
		playback: playbackSvc,
	}, nil
}

// Close stops playback, drains background work and closes the store
func (a *app) Close() {
	a.playback.Stop()
	a.library.Wait()
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close query store", "error", err)
	}
}
