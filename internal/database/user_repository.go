package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UserRepository handles user lookups. The advisor never writes users; it
// only needs to know whether a caller exists.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Exists reports whether a user with the given id is registered.
func (r *UserRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = $1", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	return true, nil
}
