package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"apptrack-engine/internal/domain"
)

// InsertUserIgnore relies on the unique index on primary_email; a duplicate
// insert is reported as added=false, not an error.
func InsertUserIgnore(ctx context.Context, q Q, u domain.User) (added bool, err error) {
	res, err := q.ExecContext(ctx, `
INSERT OR IGNORE INTO users (id, primary_email, name, created_at)
VALUES (?, ?, ?, ?);`,
		u.ID, u.PrimaryEmail, u.Name, fmtTime(u.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}

// GetUserByEmail returns nil when no user exists for the email.
func GetUserByEmail(ctx context.Context, q Q, email string) (*domain.User, error) {
	var u domain.User
	var createdAt string
	err := q.QueryRowContext(ctx, `
SELECT id, primary_email, name, created_at
FROM users WHERE primary_email = ?;`, email).
		Scan(&u.ID, &u.PrimaryEmail, &u.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func GetUser(ctx context.Context, q Q, id string) (*domain.User, error) {
	var u domain.User
	var createdAt string
	err := q.QueryRowContext(ctx, `
SELECT id, primary_email, name, created_at
FROM users WHERE id = ?;`, id).
		Scan(&u.ID, &u.PrimaryEmail, &u.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}
