package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"safewarner"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{db: db} }

// Create inserts a user and returns the new row id.
func (r *UserRepository) Create(username, hash string) (int, error) {
	res, err := r.db.Exec(
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, hash,
	)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user id: %w", err)
	}
	return int(id), nil
}

// GetByUsername returns the user or nil when no row matches.
func (r *UserRepository) GetByUsername(username string) (*safewarner.User, error) {
	row := r.db.QueryRow(
		`SELECT id, username, password_hash FROM users WHERE username = ?`,
		username,
	)
	var u safewarner.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}
