package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labhive/internal/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetTokenMaxAge is how long a password reset link stays valid.
const ResetTokenMaxAge = 48 * time.Hour

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenTooOld   = errors.New("token too old")
)

type TokenService interface {
	// Issue invalidates every earlier token of owner and returns a new one.
	Issue(ctx context.Context, owner primitive.ObjectID) (string, error)
	// Redeem consumes the token and returns its owner. An expired token is
	// consumed as well and reported as ErrTokenTooOld.
	Redeem(ctx context.Context, token string) (primitive.ObjectID, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// Lifecycle implements TokenService on top of one token collection.
type Lifecycle struct {
	repo   TokenRepository
	maxAge time.Duration
	now    func() time.Time
}

func NewLifecycle(repo TokenRepository, maxAge time.Duration) *Lifecycle {
	return &Lifecycle{
		repo:   repo,
		maxAge: maxAge,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

func (l *Lifecycle) MaxAge() time.Duration {
	return l.maxAge
}

func (l *Lifecycle) Issue(ctx context.Context, owner primitive.ObjectID) (string, error) {
	if err := l.repo.DeleteAllForOwner(ctx, owner); err != nil {
		return "", fmt.Errorf("delete previous tokens: %w", err)
	}

	t := &Token{
		Token:     uuid.NewString(),
		ObjectID:  owner,
		CreatedAt: l.now(),
	}
	if err := l.repo.Create(ctx, t); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return t.Token, nil
}

func (l *Lifecycle) Redeem(ctx context.Context, token string) (primitive.ObjectID, error) {
	if token == "" {
		return primitive.NilObjectID, ErrTokenNotFound
	}

	t, err := l.repo.FindOneAndDelete(ctx, token)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if t == nil {
		return primitive.NilObjectID, ErrTokenNotFound
	}
	if t.OlderThan(l.maxAge, l.now()) {
		return primitive.NilObjectID, ErrTokenTooOld
	}
	return t.ObjectID, nil
}

// PurgeExpired removes tokens past their max age. Tokens without a max age
// never expire and are left alone.
func (l *Lifecycle) PurgeExpired(ctx context.Context) (int64, error) {
	if l.maxAge <= 0 {
		return 0, nil
	}
	return l.repo.DeleteOlderThan(ctx, l.now().Add(-l.maxAge))
}

// ResetTokens are sent by forgot-password and expire after ResetTokenMaxAge.
type ResetTokens struct {
	*Lifecycle
}

func NewResetTokens(mongodb *database.MongodbDB) *ResetTokens {
	return &ResetTokens{NewLifecycle(newTokenRepository(mongodb, database.ResetTokensCollection), ResetTokenMaxAge)}
}

// ActivationTokens confirm a registration mail address and do not expire.
type ActivationTokens struct {
	*Lifecycle
}

func NewActivationTokens(mongodb *database.MongodbDB) *ActivationTokens {
	return &ActivationTokens{NewLifecycle(newTokenRepository(mongodb, database.ActivationTokensCollection), 0)}
}
