package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/numberclassifier/internal/adapters/cache"
	"github.com/Amund211/numberclassifier/internal/adapters/factprovider"
	"github.com/Amund211/numberclassifier/internal/app"
	"github.com/Amund211/numberclassifier/internal/config"
	"github.com/Amund211/numberclassifier/internal/logging"
	"github.com/Amund211/numberclassifier/internal/metrics/prom"
	"github.com/Amund211/numberclassifier/internal/ports"
	"github.com/Amund211/numberclassifier/internal/ratelimiting"
	"github.com/Amund211/numberclassifier/internal/reporting"
	"github.com/Amund211/numberclassifier/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/crypto/x509roots/fallback"
)

const serviceName = "numberclassifier"

func main() {
	os.Exit(run())
}

// run returns the exit code once every deferred cleanup has run
func run() int {
	instanceID := uuid.New().String()
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	logger := slog.New(handler).With("instanceID", instanceID)

	if env := os.Getenv("NUMBERCLASSIFIER_ENVIRONMENT"); env == "" || env == "development" {
		loaded, err := config.LoadDotEnv(".env")
		if err != nil {
			logger.Error("Failed to load .env", "error", err.Error())
			return 1
		}
		if loaded {
			logger.Info("Loaded .env")
		}
	}

	cfg, err := config.ConfigFromEnv()
	if err != nil {
		logger.Error("Failed to load config", "error", err.Error())
		return 1
	}

	if project := cfg.GoogleCloudProject(); project != "" {
		handler = logging.NewCloudTraceHandler(handler, project)
		logger = slog.New(handler).With("instanceID", instanceID)
	}
	logger.Info("Loaded config", "config", cfg.NonSensitiveString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.IsDevelopment() {
		shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, serviceName, cfg.MetricsBackend() == config.MetricsBackendOTel)
		if err != nil {
			logger.Error("Failed to set up OpenTelemetry", "error", err.Error())
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(cfg)
	if err != nil {
		logger.Error("Failed to initialize Sentry", "error", err.Error())
		return 1
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	numbersAPI, err := factprovider.NewNumbersAPI(
		httpClient,
		ratelimiting.NewTokenBucketRequestLimiter(
			ratelimiting.RefillPerSecond(20),
			ratelimiting.BurstSize(50),
		),
		cfg.FactSourceURL(),
		cfg.FactTimeout(),
		time.Now,
	)
	if err != nil {
		logger.Error("Failed to initialize numbersapi", "error", err.Error())
		return 1
	}

	mux := http.NewServeMux()

	var cacheMetrics cache.Metrics = cache.NoopMetrics{}
	switch cfg.MetricsBackend() {
	case config.MetricsBackendOTel:
		cacheMetrics, err = cache.NewOTelMetrics(otel.Meter("numberclassifier/cache"))
		if err != nil {
			logger.Error("Failed to initialize cache metrics", "error", err.Error())
			return 1
		}
	case config.MetricsBackendPrometheus:
		registry, metricsHandler := prom.NewRegistry()
		cacheMetrics = prom.New(registry, serviceName, "fact_cache")
		mux.Handle("GET /metrics", metricsHandler)
	}

	factCache := cache.NewFactCache(
		numbersAPI,
		cache.WithTTL(cfg.FactCacheTTL()),
		cache.WithCapacity(cfg.FactCacheCapacity()),
		cache.WithMetrics(cacheMetrics),
	)
	defer factCache.Close()
	logger.Info("Initialized fact cache")

	allowedOrigins, err := ports.NewDomainSuffixes(cfg.AllowedOriginSuffixes()...)
	if err != nil {
		logger.Error("Failed to initialize allowed origins", "error", err.Error())
		return 1
	}

	classifyNumber := app.BuildClassifyNumber(factCache)

	mux.HandleFunc(
		"OPTIONS /api/classify-number",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"GET /api/classify-number",
		ports.MakeClassifyNumberHandler(
			classifyNumber,
			allowedOrigins,
			logger.With("port", "classify-number"),
			sentryMiddleware,
		),
	)
	mux.HandleFunc("GET /healthz", ports.HealthHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port()),
		Handler:           otelhttp.NewHandler(mux, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		logger.Error("Failed to listen", "error", err.Error())
		return 1
	}

	err = serve(ctx, logger, server, listener, 10*time.Second, factCache.Wait)
	if err != nil {
		logger.Error("Server error", "error", err.Error())
		return 1
	}
	logger.Info("Server shutdown")
	return 0
}

// serve runs server until ctx is done, then shuts it down.
// drain is only called after a clean shutdown, when no handler can be running.
func serve(ctx context.Context, logger *slog.Logger, server *http.Server, listener net.Listener, shutdownTimeout time.Duration, drain func()) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Init complete", "addr", listener.Addr().String())
		err := server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	drain()
	return nil
}
