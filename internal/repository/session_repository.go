package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BartuV/telsiz/internal/domain"
)

// SessionRepository is the durable side of per-IP sessions. Put is an
// upsert: one session per IP, last writer wins, no locking.
type SessionRepository interface {
	Get(ctx context.Context, ip string) (string, error)
	Put(ctx context.Context, ip, signedToken string) error
	Delete(ctx context.Context, ip string) error
}

type pgSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed implementation.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &pgSessionRepository{pool: pool}
}

func (r *pgSessionRepository) Get(ctx context.Context, ip string) (string, error) {
	const query = `SELECT token FROM sessions WHERE ip=$1`

	var token string
	if err := r.pool.QueryRow(ctx, query, ip).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return token, nil
}

func (r *pgSessionRepository) Put(ctx context.Context, ip, signedToken string) error {
	const query = `
        INSERT INTO sessions (ip, token)
        VALUES ($1, $2)
        ON CONFLICT (ip) DO UPDATE SET token=EXCLUDED.token, updated_at=NOW()`

	_, err := r.pool.Exec(ctx, query, ip, signedToken)
	return err
}

func (r *pgSessionRepository) Delete(ctx context.Context, ip string) error {
	const query = `DELETE FROM sessions WHERE ip=$1`

	_, err := r.pool.Exec(ctx, query, ip)
	return err
}
