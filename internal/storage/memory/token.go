package memory

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist is an in-memory storage.TokenBlacklist.
type TokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]time.Time)}
}

func (m *TokenBlacklist) InvalidateToken(ctx context.Context, token string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[token] = time.Now().Add(expiration)
	return nil
}

func (m *TokenBlacklist) IsTokenInvalidated(ctx context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expiry, ok := m.tokens[token]
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiry), nil
}
