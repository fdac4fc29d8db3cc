package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Amund211/gw2lib/internal/adapters/cache"
	"github.com/Amund211/gw2lib/internal/adapters/database"
	"github.com/Amund211/gw2lib/internal/client"
	"github.com/Amund211/gw2lib/internal/config"
	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/Amund211/gw2lib/internal/logging"
	"github.com/Amund211/gw2lib/internal/ports"
	"github.com/Amund211/gw2lib/internal/ratelimiting"
	"github.com/Amund211/gw2lib/internal/reporting"
	"github.com/Amund211/gw2lib/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// Trust store for minimal container images
	_ "golang.org/x/crypto/x509roots/fallback"
)

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	logger := slog.New(handler).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	if config.GCPProject() != "" {
		handler = logging.NewGoogleCloudTracingLogHandler(handler, config.GCPProject())
		logger = slog.New(handler).With("instanceID", instanceID)
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	if !config.IsDevelopment() {
		shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "gw2lib")
		if err != nil {
			fail("Failed to initialize telemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				logger.Error("Failed to shut down telemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized telemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	memoryCache, stopMemoryCache := cache.NewTTLCache(time.Now)
	defer stopMemoryCache()

	resourceCache := memoryCache
	if config.IsDevelopment() {
		logger.Info("Using in-memory cache only")
	} else {
		logger.Info("Initializing database connection")
		db, err := database.NewCloudsqlPostgresDatabase(config)
		if err != nil {
			fail("Failed to initialize database", "error", err.Error())
		}
		logger.Info("Initialized database connection")

		schemaName := database.GetSchemaName(!config.IsProduction())

		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			fail("Failed to migrate database", "error", err.Error())
		}

		resourceCache = cache.NewTiered(memoryCache, cache.NewPostgres(db, schemaName, time.Now))
		logger.Info("Initialized persistent cache")
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	apiLimiter := ratelimiting.NewTokenBucketAPILimiter(
		ratelimiting.RequestsPerMinute(config.RateLimitPerMinute()),
		ratelimiting.BurstSize(config.RateLimitBurst()),
		time.Now,
	)

	gw2Client, err := client.New(
		httpClient,
		resourceCache,
		apiLimiter,
		time.Now,
		time.After,
		client.WithHost(config.GW2APIHost()),
		client.WithLanguage(config.Language()),
		client.WithAPIKey(config.GW2APIKey()),
	)
	if err != nil {
		fail("Failed to initialize client", "error", err.Error())
	}

	ipLimiter, stopIPLimiter := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(config.InboundRequestsPerSecond()),
		ratelimiting.BurstSize(config.InboundRequestsPerSecond()*60),
	)
	defer stopIPLimiter()
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	http.HandleFunc(
		"GET /v1/build",
		ports.MakeGetFixedHandler[domain.Build](
			gw2Client,
			"build",
			logger.With("port", "build"),
			sentryMiddleware,
			ipRateLimiter,
		),
	)

	http.HandleFunc(
		"GET /v1/account",
		ports.MakeGetFixedHandler[domain.Account](
			gw2Client,
			"account",
			logger.With("port", "account"),
			sentryMiddleware,
			ipRateLimiter,
		),
	)

	http.HandleFunc(
		"GET /v1/{resource}",
		ports.MakeListResourceHandler(
			gw2Client,
			logger.With("port", "listresource"),
			sentryMiddleware,
			ipRateLimiter,
		),
	)

	http.HandleFunc(
		"GET /v1/{resource}/{id}",
		ports.MakeGetResourceHandler(
			gw2Client,
			logger.With("port", "getresource"),
			sentryMiddleware,
			ipRateLimiter,
		),
	)

	http.HandleFunc(
		"GET /v1/{resource}/page/{page}",
		ports.MakeGetResourcePageHandler(
			gw2Client,
			logger.With("port", "getresourcepage"),
			sentryMiddleware,
			ipRateLimiter,
		),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
