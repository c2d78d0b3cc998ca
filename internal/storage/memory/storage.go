package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gaprio/auth-service/internal/models"
	"github.com/gaprio/auth-service/internal/storage"
)

// Storage is an in-memory implementation of storage.Storage used in tests
// and local development.
type Storage struct {
	mu          sync.RWMutex
	nextUserID  int64
	nextTokenID int64
	nextConnID  int64
	users       map[int64]models.User
	tokens      map[string]models.RefreshToken
	connections map[int64]models.Connection
}

func NewStorage() *Storage {
	return &Storage{
		users:       make(map[int64]models.User),
		tokens:      make(map[string]models.RefreshToken),
		connections: make(map[int64]models.Connection),
	}
}

func (m *Storage) CreateUser(ctx context.Context, email, passwordHash, fullName string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return nil, storage.ErrDuplicateEmail
		}
	}

	m.nextUserID++
	now := time.Now()
	user := models.User{
		ID:           m.nextUserID,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	return &user, nil
}

func (m *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &u, nil
}

func (m *Storage) MarkEmailVerified(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.EmailVerified = true
	u.UpdatedAt = time.Now()
	m.users[userID] = u
	return nil
}

func (m *Storage) CreateRefreshToken(ctx context.Context, token models.RefreshToken) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTokenID++
	token.ID = m.nextTokenID
	m.tokens[token.Selector] = token
	return token.ID, nil
}

func (m *Storage) GetRefreshTokenBySelector(ctx context.Context, selector string) (*models.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[selector]
	if !ok {
		return nil, storage.ErrRefreshTokenNotFound
	}
	return &t, nil
}

func (m *Storage) DeleteRefreshToken(ctx context.Context, selector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, selector)
	return nil
}

func (m *Storage) DeleteUserRefreshTokens(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for selector, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, selector)
		}
	}
	return nil
}

func (m *Storage) UpsertConnection(ctx context.Context, conn models.Connection) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, existing := range m.connections {
		if existing.UserID == conn.UserID && existing.Provider == conn.Provider {
			conn.ID = id
			conn.CreatedAt = existing.CreatedAt
			conn.UpdatedAt = now
			m.connections[id] = conn
			return &conn, nil
		}
	}

	m.nextConnID++
	conn.ID = m.nextConnID
	conn.CreatedAt = now
	conn.UpdatedAt = now
	m.connections[conn.ID] = conn
	return &conn, nil
}

func (m *Storage) GetConnection(ctx context.Context, userID int64, provider string) (*models.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.connections {
		if c.UserID == userID && c.Provider == provider {
			conn := c
			return &conn, nil
		}
	}
	return nil, storage.ErrConnectionNotFound
}

func (m *Storage) ListUserConnections(ctx context.Context, userID int64) ([]models.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var conns []models.Connection
	for _, c := range m.connections {
		if c.UserID == userID {
			conns = append(conns, c)
		}
	}
	return conns, nil
}

func (m *Storage) DeleteConnection(ctx context.Context, userID int64, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.connections {
		if c.UserID == userID && c.Provider == provider {
			delete(m.connections, id)
			return nil
		}
	}
	return nil
}

func (m *Storage) VerifyEmailTx(ctx context.Context, userID int64, token models.RefreshToken) error {
	if err := m.MarkEmailVerified(ctx, userID); err != nil {
		return err
	}
	token.UserID = userID
	_, err := m.CreateRefreshToken(ctx, token)
	return err
}
