// Package main is the entry point for the relay server. It wires all
// dependencies using samber/do v2, builds the dispatch chain from
// configuration, starts the HTTP server, and handles graceful shutdown on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	adapthttp "github.com/jsamuelsen11/relay/internal/adapters/http"
	"github.com/jsamuelsen11/relay/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/relay/internal/dispatch"
	"github.com/jsamuelsen11/relay/internal/dispatch/middleware"
	"github.com/jsamuelsen11/relay/internal/platform/config"
	"github.com/jsamuelsen11/relay/internal/platform/health"
	"github.com/jsamuelsen11/relay/internal/platform/httpclient"
	"github.com/jsamuelsen11/relay/internal/platform/logging"
	"github.com/jsamuelsen11/relay/internal/platform/telemetry"
	"github.com/jsamuelsen11/relay/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("RELAY_PROFILE")
	if profile == "" {
		return errors.New("RELAY_PROFILE environment variable is required (e.g. local, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	// Register health checkers after the graph is wired.
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	httpClient := do.MustInvoke[*httpclient.Client](injector)
	registry.Register(httpClient)

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	do.Provide(injector, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Client, "upstream", metrics, logger), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.DemoHandler, error) {
		client := do.MustInvoke[*httpclient.Client](i)
		return handlers.NewDemoHandler(client), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		return handlers.NewHealthHandler(registry), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		demoHandler := do.MustInvoke[*handlers.DemoHandler](i)
		healthHandler := do.MustInvoke[*handlers.HealthHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		return adapthttp.NewRouter(demoHandler, healthHandler, buildChain(cfg, logger, metrics)...), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}

// buildChain assembles the global middleware list from configuration using
// the dispatch builder expressions. Conditions are evaluated once, here;
// the resulting list is fixed for the life of the process.
func buildChain(cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics) []dispatch.Middleware {
	return dispatch.Build(
		dispatch.Use(middleware.Recovery(logger)),
		dispatch.When(cfg.Telemetry.Enabled, dispatch.Use(middleware.Tracing(metrics))),
		dispatch.Use(middleware.RequestLog(logger, requestLogOptions(&cfg.RequestLog))),
		dispatch.Maybe(corsFromConfig(&cfg.CORS)),
	)
}

// requestLogOptions maps the request_log config section to middleware
// options.
func requestLogOptions(cfg *config.RequestLogConfig) middleware.RequestLogOptions {
	policy := middleware.LogNoHeaders
	switch cfg.Headers {
	case "all":
		policy = middleware.LogAllHeaders
	case "except":
		policy = middleware.LogAllExcept
	case "allow":
		policy = middleware.LogAllowList
	}

	return middleware.RequestLogOptions{
		Level:  logging.ParseLevel(cfg.Level),
		Policy: policy,
		Names:  cfg.Names,
		Redact: cfg.Redact,
	}
}

// corsFromConfig maps the cors config section to the CORS middleware, or
// nil when disabled.
func corsFromConfig(cfg *config.CORSConfig) dispatch.Middleware {
	if !cfg.Enabled {
		return nil
	}

	opts := middleware.CORSOptions{
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowedMethods:   cfg.AllowedMethods,
		AllowCredentials: cfg.AllowCredentials,
		ExposedHeaders:   cfg.ExposedHeaders,
		MaxAge:           cfg.MaxAge,
	}
	switch strings.ToLower(cfg.Origin) {
	case "*":
		opts.AnyOrigin = true
	case "mirror":
		opts.MirrorOrigin = true
	default:
		opts.Origin = cfg.Origin
	}

	return middleware.CORS(opts)
}
