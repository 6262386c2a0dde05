// Package server owns the application lifecycle: start the dispatch backend,
// the optional order-update stream, and the HTTP server; stop them in reverse
// on SIGINT/SIGTERM.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alloc33/market/internal/broker/alpaca"
	domrepo "github.com/alloc33/market/internal/domain/repository"
	pkgch "github.com/alloc33/market/pkg/clickhouse"
	"github.com/alloc33/market/pkg/config"
	xhttp "github.com/alloc33/market/pkg/http"
	applogger "github.com/alloc33/market/pkg/logger"
	"github.com/alloc33/market/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	backend    queue.Backend
	stream     *alpaca.Stream
	events     domrepo.EventPublisher
	chClient   *pkgch.Client
	handler    xhttp.Handler
	httpServer *xhttp.Server

	streamCancel context.CancelFunc
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	backend queue.Backend,
	stream *alpaca.Stream,
	events domrepo.EventPublisher,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		backend:  backend,
		stream:   stream,
		events:   events,
		chClient: chClient,
		handler:  handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.backend.Start(); err != nil {
		a.log.Error("dispatch backend start error", applogger.Error(err))
		return err
	}

	if a.stream != nil && a.cfg.Alpaca.StreamEnabled {
		var streamCtx context.Context
		streamCtx, a.streamCancel = context.WithCancel(context.Background())
		go func() {
			if err := a.stream.Run(streamCtx); err != nil && streamCtx.Err() == nil {
				a.log.Error("order update stream error", applogger.Error(err))
			}
		}()
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout.Std(), a.cfg.Server.WriteTimeout.Std(), a.cfg.Server.ShutdownTimeout.Std()),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled),
		xhttp.WithServerLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("app started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("dispatch_backend", a.cfg.Dispatch.Backend))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops services in reverse start order. Signals still queued or
// mid-retry are abandoned; that loss is logged, never masked.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.streamCancel != nil {
		a.streamCancel()
		if err := a.stream.Close(); err != nil {
			a.log.Warn("stream close error", applogger.Error(err))
		}
	}

	if err := a.backend.Stop(ctx); err != nil {
		a.log.Warn("dispatch backend stop error, in-flight signals abandoned", applogger.Error(err))
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
