package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amitpatole/tickerpulse-ai-sub003/internal/domain/repository"
	"github.com/amitpatole/tickerpulse-ai-sub003/internal/usecase"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/cache"
	"github.com/amitpatole/tickerpulse-ai-sub003/pkg/config"
	xhttp "github.com/amitpatole/tickerpulse-ai-sub003/pkg/http"
	applogger "github.com/amitpatole/tickerpulse-ai-sub003/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	orch       *usecase.Orchestrator
	relay      *usecase.RunEventRelay
	publisher  repository.EventPublisher
	cacheSvc   cache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.Orchestrator,
	relay *usecase.RunEventRelay,
	publisher repository.EventPublisher,
	cacheSvc cache.Service,
	handler xhttp.Handler,
) *App {
	httpServer := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)
	return &App{
		cfg:        cfg,
		logger:     l,
		orch:       orch,
		relay:      relay,
		publisher:  publisher,
		cacheSvc:   cacheSvc,
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.relay != nil {
		if err := a.relay.Start(ctx); err != nil {
			a.logger.Error("event relay start error", applogger.Error(err))
			return err
		}
		a.logger.Info("event relay started")
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// stop accepting new work before tearing anything down
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	// abandon any in-flight run; its stale responses are discarded
	a.orch.Reset()

	if a.relay != nil {
		if err := a.relay.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("event relay stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
