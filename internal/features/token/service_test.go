package token_test

import (
	"sync"
	"testing"
	"time"

	"labhive/internal/features/token"
	"labhive/internal/features/token/tokentest"
	"labhive/internal/metrics"
	"labhive/internal/scheduler"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func newClock() *clock                   { return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)} }

func TestIssueAndRedeem(t *testing.T) {
	repo := tokentest.NewMemory()
	svc := token.NewLifecycle(repo, token.ResetTokenMaxAge)
	owner := primitive.NewObjectID()

	value, err := svc.Issue(t.Context(), owner)
	require.NoError(t, err)
	_, err = uuid.Parse(value)
	assert.NoError(t, err, "token must be a UUID")

	got, err := svc.Redeem(t.Context(), value)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestRedeemTwiceFails(t *testing.T) {
	svc := token.NewLifecycle(tokentest.NewMemory(), token.ResetTokenMaxAge)

	value, err := svc.Issue(t.Context(), primitive.NewObjectID())
	require.NoError(t, err)

	_, err = svc.Redeem(t.Context(), value)
	require.NoError(t, err)
	_, err = svc.Redeem(t.Context(), value)
	assert.ErrorIs(t, err, token.ErrTokenNotFound)
}

func TestRedeemUnknownOrEmpty(t *testing.T) {
	svc := token.NewLifecycle(tokentest.NewMemory(), token.ResetTokenMaxAge)

	_, err := svc.Redeem(t.Context(), "")
	assert.ErrorIs(t, err, token.ErrTokenNotFound)
	_, err = svc.Redeem(t.Context(), uuid.NewString())
	assert.ErrorIs(t, err, token.ErrTokenNotFound)
}

func TestRedeemExpiredTokenIsConsumed(t *testing.T) {
	c := newClock()
	repo := tokentest.NewMemory()
	svc := token.NewLifecycle(repo, token.ResetTokenMaxAge).WithClock(c.Now)

	value, err := svc.Issue(t.Context(), primitive.NewObjectID())
	require.NoError(t, err)

	c.Advance(49 * time.Hour)
	_, err = svc.Redeem(t.Context(), value)
	assert.ErrorIs(t, err, token.ErrTokenTooOld)
	assert.Equal(t, 0, repo.Len())

	_, err = svc.Redeem(t.Context(), value)
	assert.ErrorIs(t, err, token.ErrTokenNotFound)
}

func TestRedeemJustBeforeExpiry(t *testing.T) {
	c := newClock()
	svc := token.NewLifecycle(tokentest.NewMemory(), token.ResetTokenMaxAge).WithClock(c.Now)

	value, err := svc.Issue(t.Context(), primitive.NewObjectID())
	require.NoError(t, err)

	c.Advance(47 * time.Hour)
	_, err = svc.Redeem(t.Context(), value)
	assert.NoError(t, err)
}

func TestActivationTokensDoNotExpire(t *testing.T) {
	c := newClock()
	svc := token.NewLifecycle(tokentest.NewMemory(), 0).WithClock(c.Now)

	value, err := svc.Issue(t.Context(), primitive.NewObjectID())
	require.NoError(t, err)

	c.Advance(365 * 24 * time.Hour)
	_, err = svc.Redeem(t.Context(), value)
	assert.NoError(t, err)
}

func TestSecondIssueSupersedesFirst(t *testing.T) {
	repo := tokentest.NewMemory()
	svc := token.NewLifecycle(repo, token.ResetTokenMaxAge)
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	first, err := svc.Issue(t.Context(), owner)
	require.NoError(t, err)
	_, err = svc.Issue(t.Context(), other)
	require.NoError(t, err)
	second, err := svc.Issue(t.Context(), owner)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, repo.Len())

	_, err = svc.Redeem(t.Context(), first)
	assert.ErrorIs(t, err, token.ErrTokenNotFound)

	got, err := svc.Redeem(t.Context(), second)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestConcurrentRedeemSucceedsOnce(t *testing.T) {
	svc := token.NewLifecycle(tokentest.NewMemory(), token.ResetTokenMaxAge)
	value, err := svc.Issue(t.Context(), primitive.NewObjectID())
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Redeem(t.Context(), value); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestPurgeJob(t *testing.T) {
	c := newClock()
	repo := tokentest.NewMemory()
	reset := &token.ResetTokens{Lifecycle: token.NewLifecycle(repo, token.ResetTokenMaxAge).WithClock(c.Now)}

	_, err := reset.Issue(t.Context(), primitive.NewObjectID())
	require.NoError(t, err)
	c.Advance(72 * time.Hour)
	_, err = reset.Issue(t.Context(), primitive.NewObjectID())
	require.NoError(t, err)

	m := metrics.NewMetrics()
	s := scheduler.NewScheduler(zap.NewNop())
	require.NoError(t, token.RegisterPurgeJob(s, reset, m, zap.NewNop()))
	require.NoError(t, s.RunNow("purge-reset-tokens"))

	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensPurged))
}
