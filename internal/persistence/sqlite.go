package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/BartuV/telsiz/internal/config"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS guild_credentials (
    guild_id    TEXT PRIMARY KEY,
    secret_hash TEXT NOT NULL,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS identity_mappings (
    external_user_id TEXT PRIMARY KEY,
    discord_user_id  TEXT NOT NULL,
    created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS sessions (
    ip         TEXT PRIMARY KEY,
    token      TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS channels (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    guild_id TEXT NOT NULL REFERENCES guild_credentials(guild_id) ON DELETE CASCADE
);
`

// SQLite wraps a sqlitex connection pool for the local-file backend.
type SQLite struct {
	pool *sqlitex.Pool
}

// NewSQLite opens (and if needed creates) the database file and applies
// the schema.
func NewSQLite(cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, errors.New("SQLITE_PATH is required for the sqlite backend")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteTransient(conn, "PRAGMA foreign_keys = ON;", nil)
		},
	})
	if err != nil {
		return nil, err
	}

	conn, err := pool.Take(context.Background())
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	err = sqlitex.ExecuteScript(conn, sqliteSchema, nil)
	pool.Put(conn)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}

	logger.Info("opened sqlite store", zap.String("path", cfg.Path))
	return &SQLite{pool: pool}, nil
}

// Close releases all pooled connections.
func (s *SQLite) Close() {
	if s != nil && s.pool != nil {
		_ = s.pool.Close()
	}
}

// Ping verifies the pool can hand out a connection.
func (s *SQLite) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("sqlite pool not configured")
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	s.pool.Put(conn)
	return nil
}

// PoolHandle returns the underlying sqlitex pool.
func (s *SQLite) PoolHandle() *sqlitex.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}
