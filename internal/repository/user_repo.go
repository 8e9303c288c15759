package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kidcoins/internal/database"
	"kidcoins/internal/models"
)

const userColumns = `id, email, password_hash, name, role, current_streak, last_streak_update, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user. Returns ErrDuplicate when the email is taken.
func (r *UserRepository) CreateUser(ctx context.Context, email, passwordHash, name string, role models.Role, now time.Time) (*models.User, error) {
	now = now.UTC()
	query := `
		INSERT INTO users (email, password_hash, name, role, current_streak, lock_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, 0, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, email, passwordHash, name, string(role), now, now)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetUserByEmail retrieves a user by email address, or nil if none exists
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.getOne(ctx, query, email)
}

// GetUserByID retrieves a user by ID, or nil if none exists
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// LockUser takes the row lock on a user for the rest of the transaction.
// Writers that must see a stable balance or streak for a user call this
// first. Returns false when the user does not exist.
func (r *UserRepository) LockUser(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET lock_version = lock_version + 1 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to lock user: %w", err)
	}
	return affected(result)
}

// UpdateStreak stores a new streak value
func (r *UserRepository) UpdateStreak(ctx context.Context, id int64, streak int, at time.Time) error {
	query := `UPDATE users SET current_streak = ?, last_streak_update = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, streak, at.UTC(), at.UTC(), id); err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	return nil
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var role string
	var lastStreak sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&role,
		&user.CurrentStreak,
		&lastStreak,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	user.LastStreakUpdate = timePtr(lastStreak)
	return user, nil
}
