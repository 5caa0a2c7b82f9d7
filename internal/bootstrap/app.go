package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/fishai-advisor/internal/infra/config"
	"github.com/yanqian/fishai-advisor/internal/infra/forecastcache"
	"github.com/yanqian/fishai-advisor/internal/infra/ratelimit"
)

// App encapsulates the HTTP server lifecycle and the in-memory sweeps.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	limiter   *ratelimit.FixedWindow
	forecasts *forecastcache.MemoryCache
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, limiter *ratelimit.FixedWindow, forecasts *forecastcache.MemoryCache) *App {
	return &App{
		cfg:       cfg,
		logger:    logger.With("component", "bootstrap"),
		server:    server,
		limiter:   limiter,
		forecasts: forecasts,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.limiter.Run(sweepCtx)
	go a.forecasts.Run(sweepCtx)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
