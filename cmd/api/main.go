package main

import (
	"context"
	"time"

	"labhive/internal/config"
	"labhive/internal/database"
	"labhive/internal/features/admin"
	"labhive/internal/features/auth"
	"labhive/internal/features/capacity"
	"labhive/internal/features/email"
	"labhive/internal/features/profile"
	"labhive/internal/features/search"
	"labhive/internal/features/system"
	"labhive/internal/features/token"
	"labhive/internal/features/user"
	"labhive/internal/logger"
	"labhive/internal/metrics"
	"labhive/internal/middleware"
	"labhive/internal/scheduler"
	"labhive/pkg/utils"

	_ "labhive/docs"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const migrationTimeout = 10 * time.Minute

// RunMigrations brings the store up to date in the background. Until it is
// done the API answers with 503; a failed migration stops the process.
func RunMigrations(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	migrator *database.Migrator,
	readiness *database.Readiness,
	users user.UserService,
	cfg *config.Config,
	logger *zap.Logger,
) {
	fail := func(err error) {
		readiness.MarkFailed(err)
		logger.Error("Database initialization failed", zap.Error(err))
		_ = shutdowner.Shutdown(fx.ExitCode(1))
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if !readiness.BeginMigration() {
				return nil
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
				defer cancel()

				if err := migrator.Run(ctx); err != nil {
					fail(err)
					return
				}
				created, err := users.SeedAdmins(ctx, cfg.Secrets.AdminUsers)
				if err != nil {
					fail(err)
					return
				}
				if created > 0 {
					logger.Info("Seeded admin users", zap.Int("count", created))
				}
				readiness.MarkReady()
				logger.Info("Database ready")
			}()
			return nil
		},
	})
}

// @title                       LabHive API
// @version                     1.0
// @description                 Matches volunteers with diagnostic and research labs.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			metrics.NewMetrics,
			database.NewDatabase,
			database.NewReadiness,
			database.NewMigrationStore,
			database.NewMigrator,
			middleware.NewRateLimitStorage,
			scheduler.NewScheduler,
			NewFiberServer,

			// Repositories
			user.NewUserRepository,
			user.NewAdminRepository,
			email.NewFailedMailRepository,
			token.NewResetTokens,
			token.NewActivationTokens,

			// Services
			email.NewMailer,
			email.NewEmailService,
			user.NewUserService,
			auth.NewAuthService,
			profile.NewProfileService,
			search.NewSearchService,
			capacity.NewCapacityService,
			admin.NewAdminService,

			// Controllers
			auth.NewAuthController,
			profile.NewProfileController,
			search.NewSearchController,
			capacity.NewCapacityController,
			admin.NewAdminController,
			system.NewDebugController,

			// API routes
			AsRoute(auth.NewAuthApi),
			AsRoute(profile.NewProfileApi),
			AsRoute(search.NewSearchApi),
			AsRoute(capacity.NewCapacityApi),
			AsRoute(admin.NewAdminApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewDebugApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.Secrets.HMACKey) },
			RegisterAllRoutesWithAnnotation,
			RegisterFallbacks,
			token.RegisterPurgeJob,
			scheduler.StartScheduler,
			RunMigrations,
			// Stop hooks run in reverse: the server drains before queued mail.
			email.WaitOnStop,
			StartServer,
		),
	)

	app.Run()
}
