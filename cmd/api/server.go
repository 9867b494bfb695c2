package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_api "labhive/internal/common/api"
	"labhive/internal/config"
	"labhive/internal/database"
	"labhive/internal/metrics"
	"labhive/internal/middleware"
	"labhive/pkg/utils"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// errorCodes maps fiber errors that escape a handler onto the envelope.
var errorCodes = map[int]string{
	fiber.StatusBadRequest:            utils.ErrCodeBadRequest,
	fiber.StatusRequestEntityTooLarge: utils.ErrCodeBadRequest,
	fiber.StatusUnauthorized:          utils.ErrCodeUnauthorized,
	fiber.StatusNotFound:              utils.ErrCodeInvalidRoute,
	fiber.StatusMethodNotAllowed:      utils.ErrCodeInvalidRoute,
	fiber.StatusTooManyRequests:       utils.ErrCodeTooMany,
	fiber.StatusServiceUnavailable:    utils.ErrCodeNotReady,
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		name, ok := errorCodes[code]
		if !ok {
			code, name = fiber.StatusInternalServerError, utils.ErrCodeInternal
			logger.Error("Unhandled request error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
		}
		return utils.ErrorResponse(c, code, name)
	}
}

// serverConfig builds the fiber settings. Behind a trusted reverse proxy
// c.IP() resolves to the client from X-Forwarded-For, which the rate
// limiter keys on; headers from other peers are ignored.
func serverConfig(cfg *config.Config, logger *zap.Logger) fiber.Config {
	fc := fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             1 * 1024 * 1024,
		ErrorHandler:          errorHandler(logger),
	}
	if cfg.TrustProxy {
		fc.ProxyHeader = fiber.HeaderXForwardedFor
		fc.EnableTrustedProxyCheck = true
		fc.TrustedProxies = cfg.TrustedProxies
		fc.EnableIPValidation = true
		logger.Info("Trusting proxy headers", zap.Strings("proxies", cfg.TrustedProxies))
	}
	return fc
}

// NewFiberServer creates the fiber app with the global middleware chain.
// Routes are added later by RegisterAllRoutes.
func NewFiberServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	readiness *database.Readiness,
	storage fiber.Storage,
	m *metrics.Metrics,
	logger *zap.Logger,
) *fiber.App {
	app := fiber.New(serverConfig(cfg, logger))

	if cfg.SentryDSN != "" {
		env := "development"
		if cfg.Production {
			env = "production"
		} else if cfg.Staging {
			env = "staging"
		}
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: env}); err != nil {
			logger.Error("Sentry init failed", zap.Error(err))
		} else {
			app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					sentry.Flush(2 * time.Second)
					return nil
				},
			})
		}
	}

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.SecurityHeaders(cfg.Staging))
	if !cfg.ServeStatic {
		app.Use(middleware.CORSMiddleware())
	}

	app.Use(common_api.Prefix,
		middleware.ReadinessGate(readiness),
		middleware.RateLimiter(cfg, storage, m, logger),
	)

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every member of the "routes" group.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, logger *zap.Logger) {
	for _, route := range routes {
		logger.Debug("Setting up routes", zap.String("api", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
	logger.Info("All routes registered", zap.Int("apis", len(routes)))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// RegisterFallbacks must run after RegisterAllRoutes: the frontend bundle
// and the 404 handler only see requests no API route matched.
func RegisterFallbacks(app *fiber.App, cfg *config.Config) {
	if cfg.ServeStatic {
		app.Static("/", cfg.StaticDir)
	}
	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, fiber.StatusNotFound, utils.ErrCodeInvalidRoute)
	})
}

// StartServer starts Fiber in a goroutine and shuts it down with the app.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, shutdowner fx.Shutdowner, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				logger.Info("Server listening", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					logger.Error("Server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}
