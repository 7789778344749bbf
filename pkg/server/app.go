package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CryptoPulse/internal/domain/repository"
	"CryptoPulse/internal/usecase"
	pkgch "CryptoPulse/pkg/clickhouse"
	"CryptoPulse/pkg/config"
	xhttp "CryptoPulse/pkg/http"
	applogger "CryptoPulse/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP server, optional
// live stream collector, and infrastructure clients.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	collector  *usecase.StreamCollector
	pub        repository.Publisher
	chClient   *pkgch.Client
	logger     *applogger.Logger
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	collector *usecase.StreamCollector,
	pub repository.Publisher,
	chClient *pkgch.Client,
	logger *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		handler:   handler,
		collector: collector,
		pub:       pub,
		chClient:  chClient,
		logger:    logger,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)

	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			a.logger.Error("stream collector start failed", applogger.Error(err))
		} else {
			a.logger.Info("stream collector started",
				applogger.String("symbol", a.cfg.Stream.Symbol))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		a.collector.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
