// Package tokentest provides an in-memory token.TokenRepository.
package tokentest

import (
	"context"
	"sync"
	"time"

	"labhive/internal/features/token"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Memory struct {
	mu     sync.Mutex
	tokens []token.Token
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Create(ctx context.Context, t *token.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	m.tokens = append(m.tokens, *t)
	return nil
}

func (m *Memory) DeleteAllForOwner(ctx context.Context, owner primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[:0]
	for _, t := range m.tokens {
		if t.ObjectID != owner {
			kept = append(kept, t)
		}
	}
	m.tokens = kept
	return nil
}

func (m *Memory) FindOneAndDelete(ctx context.Context, value string) (*token.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tokens {
		if t.Token == value {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return &t, nil
		}
	}
	return nil, nil
}

func (m *Memory) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	kept := m.tokens[:0]
	for _, t := range m.tokens {
		if t.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept
	return deleted, nil
}

// Len reports how many tokens are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// Latest returns the most recently stored token value of owner.
func (m *Memory) Latest(owner primitive.ObjectID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tokens) - 1; i >= 0; i-- {
		if m.tokens[i].ObjectID == owner {
			return m.tokens[i].Token
		}
	}
	return ""
}
