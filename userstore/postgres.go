package userstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rateye/authcore"
)

// Schema is the table expected by [Postgres]. Run it with Migrate or through
// the deployment's own migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	roles         TEXT[] NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)
`

const uniqueViolation = "23505"

// Postgres is a pgx-backed [authcore.CredentialStore].
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool. The pool's lifecycle stays
// with the caller.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the users table when it does not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, Schema)
	return err
}

func (p *Postgres) ExistsByID(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := p.pool.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (p *Postgres) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`

	var exists bool
	if err := p.pool.QueryRow(ctx, q, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (p *Postgres) FindByID(ctx context.Context, id string) (*authcore.UserIdentity, error) {
	const q = `SELECT id, email, password_hash, roles FROM users WHERE id = $1`

	var user authcore.UserIdentity
	err := p.pool.QueryRow(ctx, q, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Roles,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (p *Postgres) Save(ctx context.Context, user authcore.UserIdentity) (*authcore.UserIdentity, error) {
	const q = `
INSERT INTO users (id, email, password_hash, roles)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password_hash, roles
`

	var saved authcore.UserIdentity
	err := p.pool.QueryRow(ctx, q, user.ID, user.Email, user.PasswordHash, user.Roles).Scan(
		&saved.ID,
		&saved.Email,
		&saved.PasswordHash,
		&saved.Roles,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Unique index race: both existence checks passed but another
			// writer inserted first.
			return nil, authcore.ErrDuplicateIdentity
		}
		return nil, err
	}
	return &saved, nil
}
