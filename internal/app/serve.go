package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/oshokin/tunestash/internal/api"
	"github.com/oshokin/tunestash/internal/client/upstream"
	"github.com/oshokin/tunestash/internal/config"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/metrics"
	"github.com/oshokin/tunestash/internal/service/cache"
	"github.com/oshokin/tunestash/internal/version"
)

// shutdownTimeout bounds how long active requests may run after a stop signal.
const shutdownTimeout = 10 * time.Second

// runtime holds the long-lived components of the server.
type runtime struct {
	service  *cache.ServiceImpl
	server   *api.Server
	registry *prometheus.Registry
}

// newService builds the caching service. m may be nil.
func newService(cfg *config.Config, m *metrics.Metrics) (*cache.ServiceImpl, error) {
	client, err := upstream.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upstream client: %w", err)
	}

	return cache.NewService(cfg, client, m), nil
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	service, err := newService(cfg, metrics.New(registry))
	if err != nil {
		return nil, err
	}

	return &runtime{
		service:  service,
		server:   api.NewServer(cfg.ListenAddress, service, registry),
		registry: registry,
	}, nil
}

// ExecuteServeCommand runs the HTTP server until ctx is canceled, then shuts it down gracefully.
func ExecuteServeCommand(ctx context.Context, cfg *config.Config) {
	if !logger.IsDebugLevel() {
		gin.SetMode(gin.ReleaseMode)
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to start: %v", err)
	}

	logger.Infof(ctx, "tunestash %s, caching into '%s'", version.Short(), cfg.StoragePath)

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- rt.server.ListenAndServe(ctx)
	}()

	select {
	case err = <-serveErr:
		rt.service.Close()

		if err != nil {
			logger.Fatalf(ctx, "HTTP server failed: %v", err)
		}

		return
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down")

	// The parent context is already canceled.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err = rt.server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf(ctx, "Graceful shutdown interrupted: %v", err)
	}

	rt.service.Close()

	logger.Info(ctx, "Stopped")
}
