package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gaprio/auth-service/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrConnectionNotFound   = errors.New("connection not found")
	ErrCodeNotFound         = errors.New("verification code not found")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash, fullName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	MarkEmailVerified(ctx context.Context, userID int64) error
}

type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token models.RefreshToken) (int64, error)
	GetRefreshTokenBySelector(ctx context.Context, selector string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, selector string) error
	DeleteUserRefreshTokens(ctx context.Context, userID int64) error
}

type ConnectionRepository interface {
	UpsertConnection(ctx context.Context, conn models.Connection) (*models.Connection, error)
	GetConnection(ctx context.Context, userID int64, provider string) (*models.Connection, error)
	ListUserConnections(ctx context.Context, userID int64) ([]models.Connection, error)
	DeleteConnection(ctx context.Context, userID int64, provider string) error
}

type Storage interface {
	UserRepository
	RefreshTokenRepository
	ConnectionRepository

	// VerifyEmailTx marks the user's email as verified and stores the
	// freshly issued refresh token in a single transaction.
	VerifyEmailTx(ctx context.Context, userID int64, token models.RefreshToken) error
}

// CodeStorage holds pending email verification codes with a TTL.
type CodeStorage interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	GetCode(ctx context.Context, email string) (string, error)
	DeleteCode(ctx context.Context, email string) error
}

// TokenBlacklist records access tokens invalidated before their expiry.
type TokenBlacklist interface {
	InvalidateToken(ctx context.Context, token string, expiration time.Duration) error
	IsTokenInvalidated(ctx context.Context, token string) (bool, error)
}
