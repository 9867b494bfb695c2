package token

import (
	"context"

	"labhive/internal/metrics"
	"labhive/internal/scheduler"

	"go.uber.org/zap"
)

const purgeJobName = "purge-reset-tokens"

// RegisterPurgeJob removes expired reset tokens every hour.
func RegisterPurgeJob(s *scheduler.Scheduler, tokens *ResetTokens, m *metrics.Metrics, logger *zap.Logger) error {
	return s.Register(purgeJobName, "@hourly", func(ctx context.Context) error {
		n, err := tokens.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			m.TokensPurged.Add(float64(n))
			logger.Info("Purged expired reset tokens", zap.Int64("count", n))
		}
		return nil
	})
}
