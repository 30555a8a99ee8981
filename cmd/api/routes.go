package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/guestlink/guestlink/internal/cache"
	"github.com/guestlink/guestlink/internal/config"
	"github.com/guestlink/guestlink/internal/handler"
	"github.com/guestlink/guestlink/internal/hooks"
	"github.com/guestlink/guestlink/internal/i18n"
	"github.com/guestlink/guestlink/internal/middleware"
	"github.com/guestlink/guestlink/internal/notice"
	"github.com/guestlink/guestlink/internal/repository"
)

type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	bus      *hooks.Bus
	messages *i18n.Messages
	repo     *repository.Repository
	cache    *cache.Cache

	root    *handler.Handler
	health  *handler.HealthHandler
	account *handler.AccountHandler
	events  *handler.EventHandler
	store   *handler.StoreHandler
	admin   *handler.AdminHandler
	apiKeys *handler.APIKeyHandler
	metrics *handler.MetricsHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))

	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/", d.root.Hello)

	bodyLimit := middleware.MaxBodySize(d.cfg.MaxRequestBodySize)

	// Signed by the platform; no API key.
	r.With(bodyLimit).Post("/hooks/platform", d.events.Receive)

	// Storefront account pages.
	r.Route("/my-account", func(r chi.Router) {
		r.Use(middleware.Session(d.cache, d.logger))
		r.Use(i18n.Middleware(d.messages))
		r.Use(notice.Middleware)

		r.Get("/", d.account.Dashboard)
		r.With(middleware.RequireSession).Get("/orders", d.account.Orders)
		r.Post("/logout", d.account.Logout)
	})

	authCfg := middleware.AuthConfig{
		Logger: d.logger,
		Keys:   d.repo,
		Cache:  d.cache,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(bodyLimit)
		r.Use(middleware.Auth(authCfg))

		r.With(middleware.RequireRead()).Get("/customers", d.store.LookupCustomer)
		r.With(middleware.RequireWrite()).Post("/customers", d.store.RegisterCustomer)
		r.With(middleware.RequireWrite()).Post("/orders", d.store.CreateGuestOrder)
		r.With(middleware.RequireWrite()).Post("/sessions", d.store.CreateSession)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Use(middleware.AdminInit(d.bus, d.logger))

			r.Get("/status", d.admin.Status)
			r.Get("/metrics", d.metrics.Metrics)
			r.Get("/api-keys", d.apiKeys.ListAPIKeys)
			r.Post("/api-keys", d.apiKeys.CreateAPIKey)
			r.Delete("/api-keys/{key_id}", d.apiKeys.RevokeAPIKey)
			r.Post("/api-keys/{key_id}/rotate", d.apiKeys.RotateAPIKey)
		})
	})

	r.NotFound(d.root.NotFound)
	r.MethodNotAllowed(d.root.MethodNotAllowed)

	return r
}
