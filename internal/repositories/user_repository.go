package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository covers the presence columns and profile reads the core
// needs. Account creation belongs to the external auth subsystem.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	ListUsers(ctx context.Context, excludeID int) ([]models.User, error)
	UpsertPresence(ctx context.Context, userID int, isOnline bool, lastSeen time.Time) error
	TouchLastActive(ctx context.Context, userID int) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, avatar_url, is_online, last_seen, last_active_at, created_at`

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListUsers returns every user except the caller, for the roster.
func (r *UserRepo) ListUsers(ctx context.Context, excludeID int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY username ASC`, excludeID)
	return users, err
}

// UpsertPresence writes the durable presence columns. Missing rows are
// not an error; presence persistence is best-effort.
func (r *UserRepo) UpsertPresence(ctx context.Context, userID int, isOnline bool, lastSeen time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=$2, last_seen=$3 WHERE id=$1`, userID, isOnline, lastSeen)
	return err
}

// TouchLastActive refreshes the user's activity timestamp.
func (r *UserRepo) TouchLastActive(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_active_at=NOW() WHERE id=$1`, userID)
	return err
}
