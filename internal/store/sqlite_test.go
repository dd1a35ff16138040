package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hotleads/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Outcomes ---

func TestSQLite_AllEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)

	all, err := st.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLite_UpsertAndAll(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, "node/101", model.OutcomeVoicemail))
	require.NoError(t, st.Upsert(ctx, "way/202", model.OutcomeConnected))

	all, err := st.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Outcome{
		"node/101": model.OutcomeVoicemail,
		"way/202":  model.OutcomeConnected,
	}, all)
}

func TestSQLite_UpsertReplaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, "node/101", model.OutcomeNoAnswer))
	require.NoError(t, st.Upsert(ctx, "node/101", model.OutcomeConnected))
	// Same value again is a no-op in effect.
	require.NoError(t, st.Upsert(ctx, "node/101", model.OutcomeConnected))

	all, err := st.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, model.OutcomeConnected, all["node/101"])
}

func TestSQLite_DefaultOutcomeColumn(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.db.ExecContext(ctx, `INSERT INTO leads (id) VALUES ('node/7')`)
	require.NoError(t, err)

	all, err := st.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUncalled, all["node/7"])
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lead_calls.db")
	ctx := context.Background()

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Upsert(ctx, "node/1", model.OutcomeVoicemail))
	require.NoError(t, st.Close())

	reopened, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() }) //nolint:errcheck
	require.NoError(t, reopened.Migrate(ctx))

	all, err := reopened.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeVoicemail, all["node/1"])
}

func TestSQLite_ClosedStoreIsPersistenceFailure(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Close())

	_, err := st.All(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPersistence))
	assert.False(t, errors.Is(err, model.ErrNoData))

	err = st.Upsert(context.Background(), "node/1", model.OutcomeConnected)
	assert.True(t, errors.Is(err, model.ErrPersistence))
}

// --- Response cache ---

func TestSQLite_Cache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := st.Cache("geocode")

	require.NoError(t, c.Set(ctx, "90210", []byte(`{"lat":34.1}`), time.Hour))

	val, ok, err := c.Get(ctx, "90210")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"lat":34.1}`, string(val))
}

func TestSQLite_Cache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := st.Cache("geocode")

	require.NoError(t, c.Set(ctx, "90210", []byte("old"), -time.Hour))

	_, ok, err := c.Get(ctx, "90210")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_Cache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := st.Cache("overpass")

	require.NoError(t, c.Set(ctx, "k", []byte("original"), time.Hour))
	require.NoError(t, c.Set(ctx, "k", []byte("updated"), time.Hour))

	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "updated", string(val))
}

func TestSQLite_Cache_PurgeIsPerNamespace(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	geo, query := st.Cache("geocode"), st.Cache("overpass")

	require.NoError(t, geo.Set(ctx, "k", []byte("g"), time.Hour))
	require.NoError(t, query.Set(ctx, "k", []byte("q"), time.Hour))

	require.NoError(t, geo.Purge(ctx))

	_, ok, _ := geo.Get(ctx, "k")
	assert.False(t, ok)
	val, ok, _ := query.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "q", string(val))
}

func TestSQLite_Cache_DoesNotTouchOutcomes(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, st.Upsert(ctx, "node/1", model.OutcomeConnected))

	require.NoError(t, st.Cache("geocode").Purge(ctx))

	all, err := st.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
