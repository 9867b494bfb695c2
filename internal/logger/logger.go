package logger

import (
	"context"

	"labhive/internal/config"
	"labhive/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger builds the process logger. Warn and above are also persisted to
// the server_logs collection.
func NewLogger(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Production {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Important: Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb.DB.Collection(database.ServerLogsCollection))
	finalCore := NewDBCore(baseLogger.Core(), dbWriter, zap.WarnLevel)

	opts := []zap.Option{zap.AddCaller()}
	if !cfg.Production {
		opts = append(opts, zap.Development())
	}
	logger := zap.New(finalCore, opts...)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			dbWriter.Close()
			return nil
		},
	})

	return logger, nil
}
