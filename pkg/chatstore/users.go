package chatstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/bizchat/bizchat/pkg/auth"
)

var ErrEmailTaken = errors.New("chatstore: email already registered")

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    string
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("chatstore: empty email")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(email, password_hash) VALUES(?, ?)`,
		email, passwordHash)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "chatstore: insert user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "chatstore: user id")
	}
	return s.UserByID(ctx, id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "chatstore: scan user")
	}
	return u, nil
}

// IdentityByEmail adapts user lookup to the auth.SubjectResolver contract.
func (s *Store) IdentityByEmail(ctx context.Context, email string) (auth.Identity, bool, error) {
	u, err := s.UserByEmail(ctx, email)
	if err != nil {
		return auth.Identity{}, false, err
	}
	if u == nil {
		return auth.Identity{}, false, nil
	}
	return auth.Identity{UserID: u.ID, Email: u.Email}, true, nil
}
