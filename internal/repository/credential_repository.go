package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BartuV/telsiz/internal/domain"
)

// CredentialRepository is the durable side of guild credentials and
// identity mappings. Implementations report the domain sentinels
// (ErrNotFound, ErrAlreadyRegistered, ErrNotRegistered); transport
// errors pass through for the store layer to classify.
type CredentialRepository interface {
	CreateGuild(ctx context.Context, guildID, secretHash string) error
	GetGuildSecretHash(ctx context.Context, guildID string) (string, error)
	ResetGuild(ctx context.Context, guildID, secretHash string) error

	GetIdentityMapping(ctx context.Context, externalUserID string) (string, error)
	SetIdentityMapping(ctx context.Context, externalUserID, discordUserID string) error
}

const pgUniqueViolation = "23505"

type pgCredentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &pgCredentialRepository{pool: pool}
}

func (r *pgCredentialRepository) CreateGuild(ctx context.Context, guildID, secretHash string) error {
	const query = `INSERT INTO guild_credentials (guild_id, secret_hash) VALUES ($1, $2)`

	if _, err := r.pool.Exec(ctx, query, guildID, secretHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *pgCredentialRepository) GetGuildSecretHash(ctx context.Context, guildID string) (string, error) {
	const query = `SELECT secret_hash FROM guild_credentials WHERE guild_id=$1`

	var hash string
	if err := r.pool.QueryRow(ctx, query, guildID).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return hash, nil
}

func (r *pgCredentialRepository) ResetGuild(ctx context.Context, guildID, secretHash string) error {
	const query = `UPDATE guild_credentials SET secret_hash=$1, updated_at=NOW() WHERE guild_id=$2`

	cmd, err := r.pool.Exec(ctx, query, secretHash, guildID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}

func (r *pgCredentialRepository) GetIdentityMapping(ctx context.Context, externalUserID string) (string, error) {
	const query = `SELECT discord_user_id FROM identity_mappings WHERE external_user_id=$1`

	var discordID string
	if err := r.pool.QueryRow(ctx, query, externalUserID).Scan(&discordID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return discordID, nil
}

func (r *pgCredentialRepository) SetIdentityMapping(ctx context.Context, externalUserID, discordUserID string) error {
	const query = `
        INSERT INTO identity_mappings (external_user_id, discord_user_id)
        VALUES ($1, $2)
        ON CONFLICT (external_user_id) DO UPDATE SET discord_user_id=EXCLUDED.discord_user_id`

	_, err := r.pool.Exec(ctx, query, externalUserID, discordUserID)
	return err
}
