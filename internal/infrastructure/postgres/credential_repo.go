package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seblum/octiv-booker/internal/domain/user"
	"github.com/seblum/octiv-booker/internal/internaltypes"
)

// CredentialRepo stores Octiv logins. The password column holds sealed
// text; callers encrypt and decrypt.
type CredentialRepo struct{ pool *pgxpool.Pool }

func NewCredentialRepo(pool *pgxpool.Pool) *CredentialRepo { return &CredentialRepo{pool: pool} }

func (r *CredentialRepo) Upsert(ctx context.Context, c user.SiteCredentials) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO site_credentials (label, username, password_sealed, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$4)
		ON CONFLICT (label) DO UPDATE
		SET username=EXCLUDED.username, password_sealed=EXCLUDED.password_sealed, updated_at=EXCLUDED.updated_at
	`, c.Label, c.Username, c.Password, now)
	return err
}

func (r *CredentialRepo) Get(ctx context.Context, label string) (user.SiteCredentials, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT label, username, password_sealed, created_at, updated_at
		FROM site_credentials WHERE label=$1
	`, label)
	var c user.SiteCredentials
	if err := row.Scan(&c.Label, &c.Username, &c.Password, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.SiteCredentials{}, internaltypes.ErrNotFound
		}
		return user.SiteCredentials{}, err
	}
	return c, nil
}
