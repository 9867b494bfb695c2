package main

import (
	"context"

	"labhive/internal/config"
	"labhive/internal/database"
	"labhive/internal/features/user"
	"labhive/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Migrate applies pending migrations and seeds the configured admins, then
// stops the app. The exit code reports the outcome.
func Migrate(
	lc fx.Lifecycle,
	migrator *database.Migrator,
	users user.UserService,
	cfg *config.Config,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				code := 0
				defer func() {
					if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx := context.Background()
				if err := migrator.Run(ctx); err != nil {
					logger.Error("Migration failed", zap.Error(err))
					code = 1
					return
				}
				created, err := users.SeedAdmins(ctx, cfg.Secrets.AdminUsers)
				if err != nil {
					logger.Error("Seeding admins failed", zap.Error(err))
					code = 1
					return
				}
				logger.Info("Migrations applied", zap.Int("adminsCreated", created))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			database.NewMigrationStore,
			database.NewMigrator,
			user.NewUserRepository,
			user.NewAdminRepository,
			user.NewUserService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Migrate),
	)

	app.Run()
}
