package queries

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
CREATE TABLE saved_queries (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  sql_text TEXT NOT NULL,
  server_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  favorite INTEGER NOT NULL DEFAULT 0,
  tags TEXT NOT NULL DEFAULT '[]',
  sync_status TEXT NOT NULL DEFAULT 'pending'
);
`)
	require.NoError(t, err)

	return db
}

func testQuery(id, userID string) *models.SavedQuery {
	return &models.SavedQuery{
		ID:         id,
		Name:       "Active sessions",
		SQLText:    "SELECT * FROM pg_stat_activity",
		ServerID:   "s1",
		UserID:     userID,
		CreatedAt:  time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
		Tags:       []string{"ops", "postgres"},
		SyncStatus: models.StatusPending,
	}
}

func TestUpsert_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	q := testQuery("q1", "u1")
	require.NoError(t, r.Upsert(ctx, q))

	got, err := r.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestUpsert_ReplacesExistingRow(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	q := testQuery("q1", "u1")
	require.NoError(t, r.Upsert(ctx, q))

	q.Name = "Active sessions v2"
	q.Favorite = true
	q.SyncStatus = models.StatusSynced
	require.NoError(t, r.Upsert(ctx, q))

	got, err := r.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "Active sessions v2", got.Name)
	assert.True(t, got.Favorite)
	assert.Equal(t, models.StatusSynced, got.SyncStatus)
}

func TestGet_MissingReturnsNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListByUser_FiltersOwner(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, testQuery("q1", "u1")))
	require.NoError(t, r.Upsert(ctx, testQuery("q2", "u1")))
	require.NoError(t, r.Upsert(ctx, testQuery("q3", "u2")))

	got, err := r.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, q := range got {
		assert.Equal(t, "u1", q.UserID)
	}
}

func TestListUnsynced_SkipsSyncedRows(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	pending := testQuery("q1", "u1")
	synced := testQuery("q2", "u1")
	synced.SyncStatus = models.StatusSynced
	failed := testQuery("q3", "u1")
	failed.SyncStatus = models.StatusError

	require.NoError(t, r.Upsert(ctx, pending))
	require.NoError(t, r.Upsert(ctx, synced))
	require.NoError(t, r.Upsert(ctx, failed))

	got, err := r.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{"q1", "q3"}, ids)
}

func TestSetSyncStatus(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, testQuery("q1", "u1")))
	require.NoError(t, r.SetSyncStatus(ctx, "q1", models.StatusSynced))

	got, err := r.Get(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, got.SyncStatus)

	// missing id is a no-op, not an error
	require.NoError(t, r.SetSyncStatus(ctx, "nope", models.StatusSynced))
}

func TestDeleteAndCount(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, testQuery("q1", "u1")))
	require.NoError(t, r.Upsert(ctx, testQuery("q2", "u1")))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, r.Delete(ctx, "q1"))
	require.NoError(t, r.Delete(ctx, "missing"))

	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
