package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gaprio/auth-service/internal/storage"
)

type storedCode struct {
	code      string
	expiresAt time.Time
}

// CodeStorage is an in-memory storage.CodeStorage.
type CodeStorage struct {
	mu    sync.RWMutex
	codes map[string]storedCode
}

func NewCodeStorage() *CodeStorage {
	return &CodeStorage{codes: make(map[string]storedCode)}
}

func (m *CodeStorage) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.codes[email] = storedCode{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *CodeStorage) GetCode(ctx context.Context, email string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.codes[email]
	if !ok || time.Now().After(c.expiresAt) {
		return "", storage.ErrCodeNotFound
	}
	return c.code, nil
}

func (m *CodeStorage) DeleteCode(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.codes, email)
	return nil
}
