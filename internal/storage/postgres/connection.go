package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gaprio/auth-service/internal/models"
	"github.com/gaprio/auth-service/internal/storage"
)

type ConnectionRepository struct {
	db storage.DBTX
}

func NewConnectionRepository(db storage.DBTX) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

const connectionColumns = `id, user_id, provider, provider_user_id, access_token, refresh_token, expires_at, metadata, created_at, updated_at`

// UpsertConnection inserts or replaces the credential for (user, provider).
func (r *ConnectionRepository) UpsertConnection(ctx context.Context, conn models.Connection) (*models.Connection, error) {
	query := `INSERT INTO user_connections (user_id, provider, provider_user_id, access_token, refresh_token, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			provider_user_id = EXCLUDED.provider_user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			metadata = EXCLUDED.metadata,
			updated_at = now()
		RETURNING ` + connectionColumns
	var out models.Connection
	var metadata []byte
	err := r.db.QueryRowContext(
		ctx,
		query,
		conn.UserID,
		conn.Provider,
		conn.ProviderUserID,
		conn.AccessToken,
		conn.RefreshToken,
		conn.ExpiresAt,
		conn.Metadata,
	).Scan(
		&out.ID,
		&out.UserID,
		&out.Provider,
		&out.ProviderUserID,
		&out.AccessToken,
		&out.RefreshToken,
		&out.ExpiresAt,
		&metadata,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert connection: %w", err)
	}
	out.Metadata = metadata
	return &out, nil
}

func (r *ConnectionRepository) GetConnection(ctx context.Context, userID int64, provider string) (*models.Connection, error) {
	var conn models.Connection
	var metadata []byte
	query := `SELECT ` + connectionColumns + ` FROM user_connections WHERE user_id = $1 AND provider = $2`
	err := r.db.QueryRowContext(ctx, query, userID, provider).Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Provider,
		&conn.ProviderUserID,
		&conn.AccessToken,
		&conn.RefreshToken,
		&conn.ExpiresAt,
		&metadata,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrConnectionNotFound
		}
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	conn.Metadata = metadata
	return &conn, nil
}

func (r *ConnectionRepository) ListUserConnections(ctx context.Context, userID int64) ([]models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM user_connections WHERE user_id = $1 ORDER BY provider`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []models.Connection
	for rows.Next() {
		var conn models.Connection
		var metadata []byte
		if err := rows.Scan(
			&conn.ID,
			&conn.UserID,
			&conn.Provider,
			&conn.ProviderUserID,
			&conn.AccessToken,
			&conn.RefreshToken,
			&conn.ExpiresAt,
			&metadata,
			&conn.CreatedAt,
			&conn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conn.Metadata = metadata
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return conns, nil
}

func (r *ConnectionRepository) DeleteConnection(ctx context.Context, userID int64, provider string) error {
	query := `DELETE FROM user_connections WHERE user_id = $1 AND provider = $2`
	_, err := r.db.ExecContext(ctx, query, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}
