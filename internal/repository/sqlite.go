package repository

import (
	"context"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/BartuV/telsiz/internal/domain"
)

// SQLite-backed implementations of the repository interfaces, used by
// the local-file backend. Each call takes a pooled connection for its
// duration; SQLite serializes the writes.

type sqliteCredentialRepository struct {
	pool *sqlitex.Pool
}

// NewSQLiteCredentialRepository returns a sqlite-backed implementation.
func NewSQLiteCredentialRepository(pool *sqlitex.Pool) CredentialRepository {
	return &sqliteCredentialRepository{pool: pool}
}

func (r *sqliteCredentialRepository) CreateGuild(ctx context.Context, guildID, secretHash string) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO guild_credentials (guild_id, secret_hash) VALUES (?, ?)`,
		&sqlitex.ExecOptions{Args: []any{guildID, secretHash}})
	if err != nil {
		code := sqlite.ErrCode(err)
		if code == sqlite.ResultConstraintPrimaryKey || code == sqlite.ResultConstraintUnique {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *sqliteCredentialRepository) GetGuildSecretHash(ctx context.Context, guildID string) (string, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return "", err
	}
	defer r.pool.Put(conn)

	var hash string
	found := false
	err = sqlitex.Execute(conn,
		`SELECT secret_hash FROM guild_credentials WHERE guild_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{guildID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				hash = stmt.ColumnText(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return "", err
	}
	if !found {
		return "", domain.ErrNotFound
	}
	return hash, nil
}

func (r *sqliteCredentialRepository) ResetGuild(ctx context.Context, guildID, secretHash string) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE guild_credentials SET secret_hash = ?, updated_at = datetime('now') WHERE guild_id = ?`,
		&sqlitex.ExecOptions{Args: []any{secretHash, guildID}})
	if err != nil {
		return err
	}
	if conn.Changes() == 0 {
		return domain.ErrNotRegistered
	}
	return nil
}

func (r *sqliteCredentialRepository) GetIdentityMapping(ctx context.Context, externalUserID string) (string, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return "", err
	}
	defer r.pool.Put(conn)

	var discordID string
	found := false
	err = sqlitex.Execute(conn,
		`SELECT discord_user_id FROM identity_mappings WHERE external_user_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{externalUserID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				discordID = stmt.ColumnText(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return "", err
	}
	if !found {
		return "", domain.ErrNotFound
	}
	return discordID, nil
}

func (r *sqliteCredentialRepository) SetIdentityMapping(ctx context.Context, externalUserID, discordUserID string) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	return sqlitex.Execute(conn,
		`INSERT INTO identity_mappings (external_user_id, discord_user_id) VALUES (?, ?)
         ON CONFLICT (external_user_id) DO UPDATE SET discord_user_id = excluded.discord_user_id`,
		&sqlitex.ExecOptions{Args: []any{externalUserID, discordUserID}})
}

type sqliteSessionRepository struct {
	pool *sqlitex.Pool
}

// NewSQLiteSessionRepository returns a sqlite-backed implementation.
func NewSQLiteSessionRepository(pool *sqlitex.Pool) SessionRepository {
	return &sqliteSessionRepository{pool: pool}
}

func (r *sqliteSessionRepository) Get(ctx context.Context, ip string) (string, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return "", err
	}
	defer r.pool.Put(conn)

	var token string
	found := false
	err = sqlitex.Execute(conn,
		`SELECT token FROM sessions WHERE ip = ?`,
		&sqlitex.ExecOptions{
			Args: []any{ip},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				token = stmt.ColumnText(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return "", err
	}
	if !found {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (r *sqliteSessionRepository) Put(ctx context.Context, ip, signedToken string) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	return sqlitex.Execute(conn,
		`INSERT INTO sessions (ip, token) VALUES (?, ?)
         ON CONFLICT (ip) DO UPDATE SET token = excluded.token, updated_at = datetime('now')`,
		&sqlitex.ExecOptions{Args: []any{ip, signedToken}})
}

func (r *sqliteSessionRepository) Delete(ctx context.Context, ip string) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	return sqlitex.Execute(conn,
		`DELETE FROM sessions WHERE ip = ?`,
		&sqlitex.ExecOptions{Args: []any{ip}})
}

type sqliteChannelRepository struct {
	pool *sqlitex.Pool
}

// NewSQLiteChannelRepository returns a sqlite-backed implementation.
func NewSQLiteChannelRepository(pool *sqlitex.Pool) ChannelRepository {
	return &sqliteChannelRepository{pool: pool}
}

func (r *sqliteChannelRepository) Add(ctx context.Context, channel *domain.Channel) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO channels (id, name, guild_id) VALUES (?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET name = excluded.name, guild_id = excluded.guild_id`,
		&sqlitex.ExecOptions{Args: []any{channel.ID, channel.Name, channel.GuildID}})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintForeignKey {
			return domain.ErrNotRegistered
		}
		return err
	}
	return nil
}

func (r *sqliteChannelRepository) Remove(ctx context.Context, channelID string) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	return sqlitex.Execute(conn,
		`DELETE FROM channels WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{channelID}})
}

func (r *sqliteChannelRepository) ListByGuild(ctx context.Context, guildID string) ([]domain.Channel, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Put(conn)

	var channels []domain.Channel
	err = sqlitex.Execute(conn,
		`SELECT id, name, guild_id FROM channels WHERE guild_id = ? ORDER BY name`,
		&sqlitex.ExecOptions{
			Args: []any{guildID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				channels = append(channels, domain.Channel{
					ID:      stmt.ColumnText(0),
					Name:    stmt.ColumnText(1),
					GuildID: stmt.ColumnText(2),
				})
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	return channels, nil
}
