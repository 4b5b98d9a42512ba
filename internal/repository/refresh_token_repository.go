package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yar-app/yar-api/internal/models"
)

const refreshTokenColumns = `id, user_id, token, device_name, device_type, created_at, expires_at`

// RefreshTokenRepository persists login sessions.
type RefreshTokenRepository struct {
	db *sqlx.DB
}

// NewRefreshTokenRepository constructs a refresh token repository.
func NewRefreshTokenRepository(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create stores a new refresh token record.
func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, device_name, device_type, created_at, expires_at) VALUES (:id, :user_id, :token, :device_name, :device_type, :created_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindByToken resolves a record by the opaque token carried in a JWT's jti.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var record models.RefreshToken
	if err := r.db.GetContext(ctx, &record, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &record, nil
}

// FindByID resolves a record by its session identifier.
func (r *RefreshTokenRepository) FindByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	const query = `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE id = $1 LIMIT 1`
	var record models.RefreshToken
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if isNoRows(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find refresh token by id: %w", err)
	}
	return &record, nil
}

// DeleteByID removes one record and reports how many rows were affected.
// Rotation relies on the count to make each refresh token single use.
func (r *RefreshTokenRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete refresh token rows affected: %w", err)
	}
	return affected, nil
}

// DeleteAllForUser revokes every session of a user.
func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return nil
}

// ListActiveByUser returns unexpired sessions of a user, newest first.
func (r *RefreshTokenRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshToken, error) {
	const query = `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE user_id = $1 AND expires_at > $2 ORDER BY created_at DESC`
	var records []models.RefreshToken
	if err := r.db.SelectContext(ctx, &records, query, userID, now); err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	return records, nil
}

// DeleteExpired purges records past their expiry.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
