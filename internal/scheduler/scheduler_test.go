package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterAndRunNow(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	runs := 0
	require.NoError(t, s.Register("count", "@hourly", func(ctx context.Context) error {
		runs++
		return nil
	}))
	require.NoError(t, s.RunNow("count"))
	require.NoError(t, s.RunNow("count"))

	assert.Equal(t, 2, runs)
	assert.Equal(t, []string{"count"}, s.Jobs())
}

func TestRegisterRejectsDuplicatesAndBadSpecs(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Register("purge", "@hourly", noop))
	assert.Error(t, s.Register("purge", "@daily", noop))
	assert.Error(t, s.Register("broken", "every now and then", noop))
	assert.Error(t, s.RunNow("missing"))
}

func TestFailingJobIsContained(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	require.NoError(t, s.Register("fail", "@hourly", func(ctx context.Context) error {
		return errors.New("boom")
	}))
	assert.NoError(t, s.RunNow("fail"))
}
