package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	TouchLastLogin(ctx context.Context, id int64) error
	UpdateResetToken(ctx context.Context, email, token string, expires time.Time) error
	GetByResetToken(ctx context.Context, token string) (*User, error)
	UpdatePassword(ctx context.Context, id int64, hash []byte) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	err := r.db.QueryRow(ctx, `
INSERT INTO users (email, first_name, last_name, role, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at
`, u.Email, u.FirstName, u.LastName, u.Role, u.Password.Hash()).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userColumns = `id, email, first_name, last_name, role, password_hash, reset_token, reset_token_expires, created_at, last_login`

func (r *Repository) scanUser(row pgx.Row) (*User, error) {
	var u User
	var hash []byte
	var expires *time.Time
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &hash,
		&u.ResetPasswordToken, &expires, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Password.SetHash(hash)
	if expires != nil {
		u.ResetPasswordExpires = *expires
	}
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *Repository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login = now() WHERE id = $1`, id)
	return err
}

func (r *Repository) UpdateResetToken(ctx context.Context, email, token string, expires time.Time) error {
	tag, err := r.db.Exec(ctx, `
UPDATE users SET reset_token = $2, reset_token_expires = $3 WHERE email = $1
`, email, token, expires)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetByResetToken(ctx context.Context, token string) (*User, error) {
	return r.scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token))
}

// UpdatePassword stores the new hash and clears any outstanding reset token.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash []byte) error {
	_, err := r.db.Exec(ctx, `
UPDATE users SET password_hash = $2, reset_token = NULL, reset_token_expires = NULL WHERE id = $1
`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
