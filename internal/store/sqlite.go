package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sells-group/hotleads/internal/cache"
	"github.com/sells-group/hotleads/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, persistErr(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, persistErr(err, "sqlite: exec "+pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id      TEXT PRIMARY KEY,
	outcome TEXT DEFAULT 'Uncalled'
);

CREATE TABLE IF NOT EXISTS response_cache (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return persistErr(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) All(ctx context.Context) (map[string]model.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, outcome FROM leads`)
	if err != nil {
		return nil, persistErr(err, "sqlite: list outcomes")
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]model.Outcome)
	for rows.Next() {
		var id string
		var outcome sql.NullString
		if err := rows.Scan(&id, &outcome); err != nil {
			return nil, persistErr(err, "sqlite: scan outcome")
		}
		out[id] = outcomeOrDefault(outcome)
	}
	return out, persistErr(rows.Err(), "sqlite: list outcomes iterate")
}

func (s *SQLiteStore) Upsert(ctx context.Context, id string, outcome model.Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, outcome) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET outcome = excluded.outcome`,
		id, string(outcome),
	)
	if err != nil {
		return persistErr(err, "sqlite: upsert outcome "+id)
	}
	return nil
}

// Cache returns a cache stored in the response_cache table.
func (s *SQLiteStore) Cache(namespace string) cache.Cache {
	return &sqliteCache{store: s, namespace: namespace}
}

type sqliteCache struct {
	store     *SQLiteStore
	namespace string
}

func (c *sqliteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.store.db.QueryRowContext(ctx,
		`SELECT value FROM response_cache WHERE namespace = ? AND key = ? AND expires_at > ?`,
		c.namespace, key, c.store.now().Unix(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, persistErr(err, "sqlite: get cached response")
	}
	return value, true, nil
}

func (c *sqliteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.store.db.ExecContext(ctx,
		`INSERT INTO response_cache (namespace, key, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		c.namespace, key, value, c.store.now().Add(ttl).Unix(),
	)
	return persistErr(err, "sqlite: set cached response")
}

func (c *sqliteCache) Purge(ctx context.Context) error {
	_, err := c.store.db.ExecContext(ctx, `DELETE FROM response_cache WHERE namespace = ?`, c.namespace)
	return persistErr(err, "sqlite: purge cache "+c.namespace)
}

func outcomeOrDefault(s sql.NullString) model.Outcome {
	if !s.Valid || s.String == "" {
		return model.OutcomeUncalled
	}
	return model.Outcome(s.String)
}
