package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// User is an account row.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// UserRepository exposes typed DB operations required by auth flows.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository wraps the pgx pool for user-specific operations.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING user_id, username, email, password_hash, created_at, last_login_at`,
		username, email, passwordHash)
	return scanUser(row)
}

// GetByEmail fetches an account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, username, email, password_hash, created_at, last_login_at
		FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByID fetches an account by identifier.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, username, email, password_hash, created_at, last_login_at
		FROM users WHERE user_id = $1`, userID)
	return scanUser(row)
}

// UpdateLastLogin records the last login timestamp.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
