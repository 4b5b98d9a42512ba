package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SettingRow is a raw stored setting value.
type SettingRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SettingRepository persists instance settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs a setting repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// List returns every stored setting.
func (r *SettingRepository) List(ctx context.Context) ([]SettingRow, error) {
	var rows []SettingRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT key, value, updated_at FROM settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return rows, nil
}

// Get returns the stored value for key or sql.ErrNoRows.
func (r *SettingRepository) Get(ctx context.Context, key string) (*SettingRow, error) {
	var row SettingRow
	if err := r.db.GetContext(ctx, &row, `SELECT key, value, updated_at FROM settings WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &row, nil
}

// Upsert stores value under key.
func (r *SettingRepository) Upsert(ctx context.Context, key, value string) error {
	const query = `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
