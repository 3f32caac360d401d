package servers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygate/offline/internal/common"
	"github.com/querygate/offline/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE server_cache (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  host TEXT NOT NULL DEFAULT '',
  port INTEGER NOT NULL DEFAULT 0,
  engine TEXT NOT NULL DEFAULT '',
  cached_at INTEGER NOT NULL,
  metadata TEXT
);
`)
	require.NoError(t, err)

	return db
}

func testServer(id string, cachedAt time.Time) *models.ServerCache {
	return &models.ServerCache{
		ID:       id,
		Name:     "analytics",
		Host:     "db.internal",
		Port:     5432,
		Engine:   "postgres",
		CachedAt: cachedAt,
		Metadata: []byte(`{"tables":["events"]}`),
	}
}

func TestUpsert_InsertThenOverwrite(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	at := time.Date(2025, 4, 3, 8, 0, 0, 0, time.UTC)
	s := testServer("s1", at)
	require.NoError(t, r.Upsert(ctx, s))

	got, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	s.CachedAt = at.Add(time.Hour)
	s.Metadata = []byte(`{"tables":["events","users"]}`)
	require.NoError(t, r.Upsert(ctx, s))

	got, err = r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, at.Add(time.Hour), got.CachedAt)
	assert.JSONEq(t, `{"tables":["events","users"]}`, string(got.Metadata))
}

func TestGet_MissingReturnsNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpsert_NilMetadataStoredAsNull(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	s := testServer("s1", time.Now().UTC().Truncate(time.Millisecond))
	s.Metadata = nil
	require.NoError(t, r.Upsert(ctx, s))

	got, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got.Metadata)
}

func TestDeleteOlderThan_RemovesOnlyStaleRows(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	cutoff := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Upsert(ctx, testServer("old", cutoff.Add(-time.Hour))))
	require.NoError(t, r.Upsert(ctx, testServer("fresh", cutoff.Add(time.Hour))))

	n, err := r.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = r.Get(ctx, "old")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = r.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestListAllAndCount(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, testServer("s1", time.Now())))
	require.NoError(t, r.Upsert(ctx, testServer("s2", time.Now())))

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, r.Delete(ctx, "s1"))
	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
