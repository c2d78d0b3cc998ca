package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gaprio/auth-service/internal/models"
	"github.com/gaprio/auth-service/internal/storage"
)

type RefreshTokenRepository struct {
	db storage.DBTX
}

func NewRefreshTokenRepository(db storage.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) CreateRefreshToken(ctx context.Context, token models.RefreshToken) (int64, error) {
	query := `INSERT INTO refresh_tokens (user_id, selector, verifier_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		token.UserID,
		token.Selector,
		token.VerifierHash,
		token.ExpiresAt,
		token.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return id, nil
}

func (r *RefreshTokenRepository) GetRefreshTokenBySelector(ctx context.Context, selector string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	query := `SELECT id, user_id, selector, verifier_hash, expires_at, created_at
		FROM refresh_tokens WHERE selector = $1`
	err := r.db.QueryRowContext(ctx, query, selector).Scan(
		&token.ID,
		&token.UserID,
		&token.Selector,
		&token.VerifierHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &token, nil
}

func (r *RefreshTokenRepository) DeleteRefreshToken(ctx context.Context, selector string) error {
	query := `DELETE FROM refresh_tokens WHERE selector = $1`
	_, err := r.db.ExecContext(ctx, query, selector)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteUserRefreshTokens(ctx context.Context, userID int64) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return nil
}
