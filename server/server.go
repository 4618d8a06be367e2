// Package server wires the fitauth HTTP API: the authentication stages,
// the account and profile routes and the error normalizer.
package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auth "github.com/goliatone/go-fitauth"
	"github.com/goliatone/go-fitauth/apierror"
	"github.com/goliatone/go-fitauth/middleware/jwtware"
)

// Pinger reports database connectivity, *bun.DB satisfies it
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Config holds the server dependencies
type Config struct {
	// Production hides internal error messages from clients
	Production    bool
	Logger        *slog.Logger
	Tokens        *auth.TokenService
	Authenticator jwtware.IdentityAuthenticator
	Repo          auth.RepositoryManager
	Pinger        Pinger
	// TokenLookup and AuthScheme configure where the bearer token is read
	TokenLookup string
	AuthScheme  string
	// PhoneRegion is the default region for profile phone numbers
	PhoneRegion string
	// HashUserIDs derives the id of registered users from their email
	HashUserIDs bool
}

// New builds the fiber backed server with every route registered
func New(cfg Config) router.Server[*fiber.App] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = DefaultPhoneRegion
	}

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               "fitauth",
			DisableStartupMessage: true,
			ErrorHandler: apierror.NewHandler(apierror.Config{
				Production: cfg.Production,
				Logger:     cfg.Logger.With("component", "apierror"),
			}),
		})
		app.Use(
			recover.New(recover.Config{EnableStackTrace: !cfg.Production}),
			requestid.New(),
		)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
		return app
	})

	r := srv.Router().WithLogger(cfg.Logger.With("component", "router"))
	RegisterRoutes(r, cfg)
	srv.Init()

	return srv
}

// RegisterRoutes mounts the API on r
func RegisterRoutes[T any](r router.Router[T], cfg Config) {
	h := newHandlers(cfg)

	mwConfig := jwtware.Config{
		Authenticator: cfg.Authenticator,
		TokenLookup:   cfg.TokenLookup,
		AuthScheme:    cfg.AuthScheme,
		Logger:        cfg.Logger.With("component", "jwtware"),
	}
	strict := jwtware.New(mwConfig)
	optional := jwtware.Optional(mwConfig)

	r.Get("/healthz", h.health).SetName("health")

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.register).SetName("auth.register")
	authGroup.Post("/login", h.login).SetName("auth.login")

	users := api.Group("/users").Use(strict)
	users.Get("/me", h.me).SetName("users.me")
	users.Get("/me/profile", h.getProfile).SetName("users.profile.get")
	users.Post("/me/profile", h.createProfile).SetName("users.profile.create")
	users.Put("/me/profile", h.updateProfile).SetName("users.profile.update")

	api.Get("/feed", h.feed, optional).SetName("feed")
}
