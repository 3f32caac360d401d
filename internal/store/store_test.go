package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/querygate/offline/internal/common"
	"github.com/querygate/offline/internal/logging"
	"github.com/querygate/offline/internal/models"
)

func TestOpen_CreatesAndMigrates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	st, err := Open(ctx, path, logging.NewDiscardLogger())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	assert.False(t, st.Degraded())

	// settings singleton is seeded by the migration
	cfg, err := st.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings().CacheExpiryDays, cfg.CacheExpiryDays)

	size, err := st.SizeBytes(ctx)
	require.NoError(t, err)
	assert.Positive(t, size)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	st, err := Open(ctx, path, logging.NewDiscardLogger())
	require.NoError(t, err)

	q := &models.SavedQuery{
		ID:         "q-1",
		Name:       "survivor",
		SQLText:    "SELECT 1",
		ServerID:   "srv-1",
		UserID:     "user-1",
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
		SyncStatus: models.StatusSynced,
	}
	require.NoError(t, st.Queries.Upsert(ctx, q))
	require.NoError(t, st.Close())

	// second open re-runs migrations against a current schema
	st, err = Open(ctx, path, logging.NewDiscardLogger())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	got, err := st.Queries.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "survivor", got.Name)
}

func TestOpen_UnusablePathDegradesToMemory(t *testing.T) {
	ctx := context.Background()

	// a regular file where a directory is needed makes the path unusable
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o660))

	st, err := Open(ctx, filepath.Join(blocker, "cache.db"), logging.NewDiscardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	require.NotNil(t, st)
	defer func() { _ = st.Close() }()

	assert.True(t, st.Degraded())

	// the fallback store is fully functional for the session
	require.NoError(t, st.Queries.Upsert(ctx, &models.SavedQuery{
		ID:         "q-mem",
		Name:       "ephemeral",
		SQLText:    "SELECT 1",
		ServerID:   "srv-1",
		UserID:     "user-1",
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
		SyncStatus: models.StatusPending,
	}))
	got, err := st.Queries.Get(ctx, "q-mem")
	require.NoError(t, err)
	assert.Equal(t, "ephemeral", got.Name)

	size, err := st.SizeBytes(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}
