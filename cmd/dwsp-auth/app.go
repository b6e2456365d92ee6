package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/goliatone/go-auth-dwsp/config"
	"github.com/goliatone/go-auth-dwsp/metrics"
	"github.com/goliatone/go-auth-dwsp/repository"
	"github.com/goliatone/go-auth-dwsp/social"
	"github.com/goliatone/go-auth-dwsp/social/providers/dwsp"
	goerrors "github.com/goliatone/go-errors"
	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// App holds the wired service.
type App struct {
	config  *config.Config
	logger  *slog.Logger
	db      *bun.DB
	metrics *metrics.ActivitySink
	http    *fiber.App
}

// GetLogger returns a named child logger.
func (a *App) GetLogger(name string) *slog.Logger {
	return a.logger.With("logger", name)
}

// HTTP returns the fiber app.
func (a *App) HTTP() *fiber.App {
	return a.http
}

// NewApp wires persistence, auth flows and routes from cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		config:  cfg,
		logger:  logger,
		metrics: metrics.NewActivitySink(),
	}

	if err := WithPersistence(ctx, app); err != nil {
		return nil, err
	}

	if err := WithHTTPServer(app); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// WithPersistence opens the database and creates the schema.
func WithPersistence(ctx context.Context, app *App) error {
	db, err := repository.Open(app.config.DBDriver, app.config.DBDSN, app.GetLogger("persistence"))
	if err != nil {
		return err
	}

	if err := repository.Ping(ctx, db, 5*time.Second); err != nil {
		_ = db.Close()
		return fmt.Errorf("database unreachable: %w", err)
	}

	if err := repository.CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	app.db = db
	return nil
}

// WithHTTPServer builds the auth services and mounts the routes.
func WithHTTPServer(app *App) error {
	cfg := app.config

	tokenService, err := auth.NewTokenServiceFromConfig(cfg, auth.WithTokenLogger(app.GetLogger("auth:token")))
	if err != nil {
		return err
	}

	provider, err := dwsp.New(dwsp.Config{
		ClientID:           cfg.DWSPClientID,
		ClientSecret:       cfg.DWSPClientSecret,
		BaseURL:            cfg.DWSPBaseURL,
		AuthorizeURL:       cfg.DWSPAuthorizeURL,
		Timeout:            cfg.DWSPTimeout,
		InsecureSkipVerify: cfg.DWSPInsecureSkipVerify,
		Logger:             app.GetLogger("dwsp"),
	})
	if err != nil {
		return err
	}

	resolver := auth.NewAccountResolver(repository.NewAccountRepository(app.db)).
		WithLogger(app.GetLogger("auth:accounts"))
	cookies := auth.NewSessionCookies(cfg)

	auther := auth.NewAuthenticator(resolver, auth.NewHasherFromConfig(cfg), tokenService).
		WithLogger(app.GetLogger("auth")).
		WithActivitySink(app.metrics)

	guard := auth.NewGuard(cookies, tokenService, resolver).
		WithLogger(app.GetLogger("auth:guard")).
		WithActivitySink(app.metrics)

	delegated := social.NewAuthenticator(provider, resolver, tokenService,
		social.WithLogger(app.GetLogger("auth:dwsp")),
		social.WithActivitySink(app.metrics),
	)

	srv := fiber.New(fiber.Config{
		AppName:               "dwsp-auth",
		DisableStartupMessage: true,
		ErrorHandler:          auth.HTTPErrorHandler(app.GetLogger("http")),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	srv.Use(recover.New())
	srv.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return ulid.Make().String()
		},
	}))
	srv.Use(requestLogger(app.GetLogger("http")))

	srv.Get("/healthz", func(c *fiber.Ctx) error {
		if err := repository.Ping(c.UserContext(), app.db, 2*time.Second); err != nil {
			return auth.WrapError(auth.ErrUpstream, err)
		}
		return c.JSON(fiber.Map{"success": true})
	})
	srv.Get("/metrics", adaptor.HTTPHandler(app.metrics.Handler()))

	api := srv.Group("/api")
	auth.NewAuthController(auther, guard, cookies,
		auth.WithControllerLogger(app.GetLogger("auth:ctrl")),
	).RegisterRoutes(api)
	social.NewHTTPController(delegated, cookies, social.HTTPConfig{
		HomeRedirectURL: cfg.HomeRedirectURL,
	}).RegisterRoutes(api)

	if cfg.StaticDir != "" {
		srv.Static("/", cfg.StaticDir)
	}

	app.http = srv
	return nil
}

// Listen serves HTTP until Shutdown is called.
func (a *App) Listen() error {
	a.logger.Info("http server listening", "addr", a.config.HTTPAddr)
	return a.http.Listen(a.config.HTTPAddr)
}

// Shutdown drains in-flight requests and closes the database.
func (a *App) Shutdown(timeout time.Duration) error {
	err := a.http.ShutdownWithTimeout(timeout)
	if cerr := a.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var richErr *goerrors.Error
			var fe *fiber.Error
			switch {
			case goerrors.As(err, &richErr):
				status = auth.StatusCode(richErr)
			case errors.As(err, &fe):
				status = fe.Code
			default:
				status = fiber.StatusInternalServerError
			}
		}

		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
			"request_id", c.Locals("requestid"),
		)
		return err
	}
}
