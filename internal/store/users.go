// internal/store/users.go
//
// User rows for the auth layer. Passwords arrive here already hashed;
// hashing and verification live in the HTTP layer.

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/yikes-game/go-server/internal/game"
)

// User matches the users table shape.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ErrUsernameTaken is returned by CreateUser on a duplicate username.
var ErrUsernameTaken = errors.New("username taken")

// CreateUser inserts a new user. Usernames are unique case-insensitively
// (enforced by the schema as well).
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	var exists int
	_ = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, ErrUsernameTaken
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, now.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &User{ID: int(id64), Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// UserByUsername loads a user row or game.ErrNotFound.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE lower(username)=lower(?)`,
		username)
	return scanUser(row)
}

// UserByID loads a user row or game.ErrNotFound.
func (s *Store) UserByID(ctx context.Context, id int) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u       User
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, game.ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}
