package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/yar-app/yar-api/internal/models"
)

const userColumns = `id, username, password, roles, totp_secret, created_at`

type userRow struct {
	ID         string         `db:"id"`
	Username   string         `db:"username"`
	Password   string         `db:"password"`
	Roles      pq.StringArray `db:"roles"`
	TotpSecret sql.NullString `db:"totp_secret"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r userRow) toModel() *models.User {
	user := &models.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.Password,
		Roles:        make([]models.Role, 0, len(r.Roles)),
		CreatedAt:    r.CreatedAt,
	}
	for _, role := range r.Roles {
		user.Roles = append(user.Roles, models.Role(role))
	}
	if r.TotpSecret.Valid {
		secret := r.TotpSecret.String
		user.TotpSecret = &secret
	}
	return user
}

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return row.toModel(), nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if isNoRows(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return row.toModel(), nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, *row.toModel())
	}
	return users, nil
}

// Create inserts a new user. A taken username yields ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	row := userRow{
		ID:        user.ID,
		Username:  user.Username,
		Password:  user.PasswordHash,
		Roles:     make(pq.StringArray, 0, len(user.Roles)),
		CreatedAt: user.CreatedAt,
	}
	for _, role := range user.Roles {
		row.Roles = append(row.Roles, string(role))
	}
	if user.TotpSecret != nil {
		row.TotpSecret = sql.NullString{String: *user.TotpSecret, Valid: true}
	}

	const query = `INSERT INTO users (id, username, password, roles, totp_secret, created_at) VALUES (:id, :username, :password, :roles, :totp_secret, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile changes the username and, when passwordHash is set, the password.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, username string, passwordHash *string) error {
	var err error
	if passwordHash != nil {
		_, err = r.db.ExecContext(ctx, `UPDATE users SET username = $2, password = $3 WHERE id = $1`, id, username, *passwordHash)
	} else {
		_, err = r.db.ExecContext(ctx, `UPDATE users SET username = $2 WHERE id = $1`, id, username)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetTotpSecret enrolls or, with a nil secret, removes the second factor.
func (r *UserRepository) SetTotpSecret(ctx context.Context, id string, secret *string) error {
	const query = `UPDATE users SET totp_secret = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, secret); err != nil {
		return fmt.Errorf("update totp secret: %w", err)
	}
	return nil
}

// Delete removes a user together with their videos, the media rows those
// videos reference and every refresh token, in one transaction. The removed
// media rows are returned so their files can be cleaned up afterwards.
func (r *UserRepository) Delete(ctx context.Context, id string) (removed []models.Media, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete user transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var mediaIDs pq.StringArray
	const collectQuery = `SELECT COALESCE(array_agg(m), '{}') FROM (
SELECT media_id AS m FROM videos WHERE author_id = $1
UNION SELECT thumbnail_id FROM videos WHERE author_id = $1 AND thumbnail_id IS NOT NULL
) ids`
	if err = tx.GetContext(ctx, &mediaIDs, collectQuery, id); err != nil {
		if isNoRows(err) {
			err = sql.ErrNoRows
			return nil, err
		}
		return nil, fmt.Errorf("collect user media: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM videos WHERE author_id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete user videos: %w", err)
	}

	if len(mediaIDs) > 0 {
		const mediaQuery = `DELETE FROM media WHERE id = ANY($1::uuid[]) RETURNING ` + mediaColumns
		if err = tx.SelectContext(ctx, &removed, mediaQuery, mediaIDs); err != nil {
			return nil, fmt.Errorf("delete user media: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete user sessions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete user: %w", err)
	}
	return removed, nil
}
