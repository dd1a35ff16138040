package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sells-group/hotleads/internal/cache"
	"github.com/sells-group/hotleads/internal/model"
)

// Pool is the subset of *pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgx, for operators sharing one
// outcome table across machines.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres connects a pool to connString and pings it.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, persistErr(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, persistErr(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, persistErr(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id      TEXT PRIMARY KEY,
	outcome TEXT DEFAULT 'Uncalled'
);

CREATE TABLE IF NOT EXISTS response_cache (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (namespace, key)
);

CREATE INDEX IF NOT EXISTS idx_response_cache_expires_at ON response_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return persistErr(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) All(ctx context.Context) (map[string]model.Outcome, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, outcome FROM leads`)
	if err != nil {
		return nil, persistErr(err, "postgres: list outcomes")
	}
	defer rows.Close()

	out := make(map[string]model.Outcome)
	for rows.Next() {
		var id string
		var outcome *string
		if err := rows.Scan(&id, &outcome); err != nil {
			return nil, persistErr(err, "postgres: scan outcome")
		}
		if outcome == nil || *outcome == "" {
			out[id] = model.OutcomeUncalled
			continue
		}
		out[id] = model.Outcome(*outcome)
	}
	return out, persistErr(rows.Err(), "postgres: list outcomes iterate")
}

func (s *PostgresStore) Upsert(ctx context.Context, id string, outcome model.Outcome) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, outcome) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET outcome = EXCLUDED.outcome`,
		id, string(outcome),
	)
	return persistErr(err, "postgres: upsert outcome "+id)
}

// Cache returns a cache stored in the response_cache table.
func (s *PostgresStore) Cache(namespace string) cache.Cache {
	return &postgresCache{pool: s.pool, namespace: namespace}
}

type postgresCache struct {
	pool      Pool
	namespace string
}

func (c *postgresCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.pool.QueryRow(ctx,
		`SELECT value FROM response_cache WHERE namespace = $1 AND key = $2 AND expires_at > now()`,
		c.namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, persistErr(err, "postgres: get cached response")
	}
	return value, true, nil
}

func (c *postgresCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO response_cache (namespace, key, value, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		c.namespace, key, value, time.Now().Add(ttl).UTC(),
	)
	return persistErr(err, "postgres: set cached response")
}

func (c *postgresCache) Purge(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `DELETE FROM response_cache WHERE namespace = $1`, c.namespace)
	return persistErr(err, "postgres: purge cache "+c.namespace)
}
