package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store on a single-row blob table, for deployments
// that already run Postgres and no Redis.
type PostgresStore struct {
	db  *sql.DB
	key string
}

// NewPostgresStore opens the database and ensures the state table exists.
func NewPostgresStore(ctx context.Context, databaseURL, key string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	const schema = `
		CREATE TABLE IF NOT EXISTS picksheet_state (
			key        TEXT PRIMARY KEY,
			blob       BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	if key == "" {
		key = DefaultStateKey
	}
	return &PostgresStore{db: db, key: key}, nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM picksheet_state WHERE key = $1`, s.key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("load", err)
	}
	return blob, nil
}

func (s *PostgresStore) Save(ctx context.Context, blob []byte) error {
	const upsert = `
		INSERT INTO picksheet_state (key, blob, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, upsert, s.key, blob); err != nil {
		return storageError("save", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
