package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gaprio/auth-service/internal/models"
)

type Storage struct {
	db *sql.DB
	*UserRepository
	*RefreshTokenRepository
	*ConnectionRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		RefreshTokenRepository: NewRefreshTokenRepository(db),
		ConnectionRepository:   NewConnectionRepository(db),
	}
}

// VerifyEmailTx marks the user verified and stores the issued refresh token
// in a single transaction.
func (s *Storage) VerifyEmailTx(ctx context.Context, userID int64, token models.RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	userRepoTx := NewUserRepository(tx)
	tokenRepoTx := NewRefreshTokenRepository(tx)

	if err := userRepoTx.MarkEmailVerified(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark email verified in tx: %w", err)
	}

	token.UserID = userID
	if _, err := tokenRepoTx.CreateRefreshToken(ctx, token); err != nil {
		return fmt.Errorf("failed to create refresh token in tx: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
