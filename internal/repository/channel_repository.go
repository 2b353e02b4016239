package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BartuV/telsiz/internal/domain"
)

// ChannelRepository stores the voice channels registered per guild.
// Add fails with ErrNotRegistered when the guild has no credential;
// the channels table references guild_credentials.
type ChannelRepository interface {
	Add(ctx context.Context, channel *domain.Channel) error
	Remove(ctx context.Context, channelID string) error
	ListByGuild(ctx context.Context, guildID string) ([]domain.Channel, error)
}

const pgForeignKeyViolation = "23503"

type pgChannelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository returns a Postgres-backed implementation.
func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &pgChannelRepository{pool: pool}
}

func (r *pgChannelRepository) Add(ctx context.Context, channel *domain.Channel) error {
	const query = `
        INSERT INTO channels (id, name, guild_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, guild_id=EXCLUDED.guild_id`

	if _, err := r.pool.Exec(ctx, query, channel.ID, channel.Name, channel.GuildID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domain.ErrNotRegistered
		}
		return err
	}
	return nil
}

func (r *pgChannelRepository) Remove(ctx context.Context, channelID string) error {
	const query = `DELETE FROM channels WHERE id=$1`

	_, err := r.pool.Exec(ctx, query, channelID)
	return err
}

func (r *pgChannelRepository) ListByGuild(ctx context.Context, guildID string) ([]domain.Channel, error) {
	const query = `SELECT id, name, guild_id FROM channels WHERE guild_id=$1 ORDER BY name`

	rows, err := r.pool.Query(ctx, query, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.GuildID); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}
