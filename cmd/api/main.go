// Package main is the entrypoint for the Guestlink API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/guestlink/guestlink/internal/auth"
	"github.com/guestlink/guestlink/internal/cache"
	"github.com/guestlink/guestlink/internal/config"
	"github.com/guestlink/guestlink/internal/handler"
	"github.com/guestlink/guestlink/internal/hooks"
	"github.com/guestlink/guestlink/internal/i18n"
	"github.com/guestlink/guestlink/internal/linker"
	"github.com/guestlink/guestlink/internal/metrics"
	"github.com/guestlink/guestlink/internal/notice"
	"github.com/guestlink/guestlink/internal/platform"
	"github.com/guestlink/guestlink/internal/repository"
	"github.com/guestlink/guestlink/internal/server"
	"github.com/guestlink/guestlink/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL,
		repository.WithConnLimits(cfg.DBMaxConns, cfg.DBMinConns))
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	msgs, err := i18n.New(cfg.DefaultLanguage)
	if err != nil {
		logger.Error("failed to build message catalog", "error", err)
		os.Exit(1)
	}

	var meta linker.MetaStore = repo
	if cfg.MetaStore == config.MetaStoreRedis {
		meta = cache.NewRedisMeta(cacheClient)
	}

	var (
		recorder    metrics.Recorder = metrics.NewNoop()
		snapshotter metrics.Snapshotter
	)
	if cfg.MetricsEnabled {
		mem := metrics.NewInMemory()
		recorder, snapshotter = mem, mem
	}
	bus := hooks.NewBus(logger)

	accounts := service.NewAccountService(repo, cacheClient, cfg.BaseURL, cfg.SessionTTL)
	customers := service.NewCustomerService(repo, bus, recorder, logger)
	orders := service.NewOrderService(repo)

	orderLinker := linker.New(linker.Deps{
		Orders:   repository.NewGuestOrderMatcher(repo, cfg.ExcludedStatuses()),
		Meta:     meta,
		Notices:  notice.Renderer{},
		Users:    accounts,
		Messages: msgs,
		Metrics:  recorder,
		Logger:   logger,
	})
	dashboardHook := orderLinker.Register(bus, cfg.PlatformVersion)

	installer := platform.NewInstaller(repo, config.Version, logger)
	bus.OnAdminInit("installer.check", installer.Check)

	r := setupRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		bus:      bus,
		messages: msgs,
		repo:     repo,
		cache:    cacheClient,

		root:    handler.New(config.Version),
		health:  handler.NewHealthHandler(repo, cacheClient),
		account: handler.NewAccountHandler(bus, accounts, orders, accounts, logger),
		events:  handler.NewEventHandler(cfg.WebhookSecret, cfg.WebhookReplayWindow, customers, logger),
		store:   handler.NewStoreHandler(customers, orders, accounts, logger),
		admin:   handler.NewAdminHandler(installer, config.Version, cfg.PlatformVersion, dashboardHook, logger),
		apiKeys: handler.NewAPIKeyHandler(logger, repo, keyEnv(cfg)),
		metrics: handler.NewMetricsHandler(snapshotter),
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"version", config.Version,
		"platform_version", cfg.PlatformVersion,
		"dashboard_hook", string(dashboardHook),
		"meta_store", cfg.MetaStore,
	)
	if cfg.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET is empty; platform events are disabled")
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func keyEnv(cfg *config.Config) string {
	if cfg.IsProduction() {
		return auth.EnvLive
	}
	return auth.EnvTest
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
