// Package app wires the offline cache daemon: configuration, logging, the
// local store, the backend client, the connectivity monitor and the sync
// engine, plus graceful shutdown on OS signals.
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/querygate/offline/internal/common"
	"github.com/querygate/offline/internal/config"
	"github.com/querygate/offline/internal/connectivity"
	"github.com/querygate/offline/internal/logging"
	"github.com/querygate/offline/internal/remote"
	"github.com/querygate/offline/internal/services"
	"github.com/querygate/offline/internal/store"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *store.Store
	monitor *connectivity.Monitor
	engine  *services.OfflineService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	var logger logging.Logger
	if cfg.LogFile != "" {
		logger = logging.NewRotatingFileLogger(cfg.LogFile, slog.LevelInfo)
	} else {
		logger = logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	st, err := store.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		if !errors.Is(err, common.ErrStorageUnavailable) {
			return nil, err
		}
		// degraded but usable: cached data will not survive this process
		logger.Warn(ctx, "running with in-memory storage", "error", err)
	}

	client := remote.NewHTTPClient(cfg.ServerEndpointAddr, cfg.APIToken)
	monitor := connectivity.NewMonitor(client, cfg.OnlineCheckInterval, logger)

	opts := services.DefaultOptions()
	opts.SyncInterval = cfg.SyncInterval
	engine := services.New(st, client, monitor, logger, opts)

	return &App{
		config:  cfg,
		logger:  logger,
		store:   st,
		monitor: monitor,
		engine:  engine,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting offline cache daemon",
		"endpoint", app.config.ServerEndpointAddr, "db", app.config.DatabasePath)

	app.initSignalHandler(cancelFunc)

	go app.monitor.Run(ctx)

	if err := app.engine.Start(ctx); err != nil {
		app.logger.Error(ctx, "engine start failed", "error", err)
		cancelFunc()
	}

	<-ctx.Done()

	app.logger.Info(ctx, "shutting down")
	app.engine.Stop()
	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close failed", "error", err)
	}
}
