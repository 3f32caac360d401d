package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/querygate/offline/internal/common"
	"github.com/querygate/offline/internal/dbx"
	"github.com/querygate/offline/internal/models"
	"github.com/querygate/offline/internal/repositories/history"
	"github.com/querygate/offline/internal/repositories/queries"
	"github.com/querygate/offline/internal/repositories/syncqueue"
)

// SaveQuery persists a new saved query. The record and its queue item commit
// in one transaction before anything is pushed, so a crash mid-push can never
// lose the mutation; while online the push happens immediately and, on
// success, marks the record synced and clears the item. Storage failures are
// returned to the caller, since the data would otherwise silently vanish.
func (s *OfflineService) SaveQuery(ctx context.Context, q *models.SavedQuery) error {
	if q == nil {
		return errors.New("nil query")
	}
	now := s.now().UTC()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now

	return s.writeQuery(ctx, q, models.ActionCreate)
}

// UpdateQuery persists an edit to an existing saved query, following the
// same optimistic write-through pattern as SaveQuery.
func (s *OfflineService) UpdateQuery(ctx context.Context, q *models.SavedQuery) error {
	if q == nil || q.ID == "" {
		return errors.New("query id required")
	}
	q.UpdatedAt = s.now().UTC()

	return s.writeQuery(ctx, q, models.ActionUpdate)
}

func (s *OfflineService) writeQuery(ctx context.Context, q *models.SavedQuery, action models.Action) error {
	q.SyncStatus = models.StatusPending

	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}
	if err := s.persistQueryWithQueueItem(ctx, q, action, payload); err != nil {
		return err
	}

	if !s.monitor.Online() {
		return nil
	}

	if err := s.remote.Upsert(ctx, models.EntityQuery, q.ID, payload); err != nil {
		s.log.Warn(ctx, "push failed, leaving queued for sync", "query_id", q.ID, "error", err)
		return nil
	}

	q.SyncStatus = models.StatusSynced
	return dbx.WithTx(ctx, s.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := queries.NewSQLiteRepository(tx).SetSyncStatus(ctx, q.ID, models.StatusSynced); err != nil {
			return err
		}
		return syncqueue.NewSQLiteRepository(tx).RemoveByEntity(ctx, models.EntityQuery, q.ID)
	})
}

// persistQueryWithQueueItem commits the record and its queue item as one
// transaction, so a crash can never separate them.
func (s *OfflineService) persistQueryWithQueueItem(ctx context.Context, q *models.SavedQuery, action models.Action, payload []byte) error {
	// an edit over a still-queued create stays a create; the remote upsert
	// is idempotent either way, but the distinction keeps delete coalescing
	// honest (see DeleteQuery)
	if action == models.ActionUpdate {
		existing, err := s.store.Queue.GetByEntity(ctx, models.EntityQuery, q.ID)
		switch {
		case err == nil && existing.Action == models.ActionCreate:
			action = models.ActionCreate
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return err
		}
	}

	return dbx.WithTx(ctx, s.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := queries.NewSQLiteRepository(tx).Upsert(ctx, q); err != nil {
			return fmt.Errorf("failed to persist query: %w", err)
		}
		return syncqueue.NewSQLiteRepository(tx).Enqueue(ctx, &models.SyncQueueItem{
			ID:         uuid.NewString(),
			EntityType: models.EntityQuery,
			EntityID:   q.ID,
			Action:     action,
			Payload:    payload,
			CreatedAt:  s.now().UTC(),
		})
	})
}

// DeleteQuery removes a saved query locally and propagates the delete to the
// backend, queueing it when offline or when the push fails. Deleting a query
// that only ever existed locally (a still-queued create) just drops both the
// row and the queue item; the backend never learned about it.
func (s *OfflineService) DeleteQuery(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("query id required")
	}

	existing, err := s.store.Queue.GetByEntity(ctx, models.EntityQuery, id)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if existing != nil && existing.Action == models.ActionCreate {
		return dbx.WithTx(ctx, s.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := queries.NewSQLiteRepository(tx).Delete(ctx, id); err != nil {
				return err
			}
			return syncqueue.NewSQLiteRepository(tx).RemoveByEntity(ctx, models.EntityQuery, id)
		})
	}

	// the local delete and its queue item commit together before any push, so
	// a crash mid-push cannot leave the row gone with the backend uninformed
	err = dbx.WithTx(ctx, s.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := queries.NewSQLiteRepository(tx).Delete(ctx, id); err != nil {
			return err
		}
		return syncqueue.NewSQLiteRepository(tx).Enqueue(ctx, &models.SyncQueueItem{
			ID:         uuid.NewString(),
			EntityType: models.EntityQuery,
			EntityID:   id,
			Action:     models.ActionDelete,
			CreatedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}

	if !s.monitor.Online() {
		return nil
	}

	if err := s.remote.Delete(ctx, models.EntityQuery, id); err != nil {
		s.log.Warn(ctx, "delete push failed, leaving queued for sync", "query_id", id, "error", err)
		return nil
	}
	return s.store.Queue.RemoveByEntity(ctx, models.EntityQuery, id)
}

// AddQueryHistory appends an execution record. History is append-only, so
// the only action ever queued for it is a create.
func (s *OfflineService) AddQueryHistory(ctx context.Context, h *models.QueryHistory) error {
	if h == nil {
		return errors.New("nil history record")
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.ExecutedAt.IsZero() {
		h.ExecutedAt = s.now().UTC()
	}

	h.SyncStatus = models.StatusPending
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	err = dbx.WithTx(ctx, s.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := history.NewSQLiteRepository(tx).Insert(ctx, h); err != nil {
			return fmt.Errorf("failed to persist history: %w", err)
		}
		return syncqueue.NewSQLiteRepository(tx).Enqueue(ctx, &models.SyncQueueItem{
			ID:         uuid.NewString(),
			EntityType: models.EntityHistory,
			EntityID:   h.ID,
			Action:     models.ActionCreate,
			Payload:    payload,
			CreatedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	if !s.monitor.Online() {
		return nil
	}

	if err := s.remote.Upsert(ctx, models.EntityHistory, h.ID, payload); err != nil {
		s.log.Warn(ctx, "push failed, leaving queued for sync", "history_id", h.ID, "error", err)
		return nil
	}

	h.SyncStatus = models.StatusSynced
	return dbx.WithTx(ctx, s.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := history.NewSQLiteRepository(tx).SetSyncStatus(ctx, h.ID, models.StatusSynced); err != nil {
			return err
		}
		return syncqueue.NewSQLiteRepository(tx).RemoveByEntity(ctx, models.EntityHistory, h.ID)
	})
}

// CacheServerMetadata stores (or overwrites) a server's connection
// descriptor and catalog blob, stamped with the current time. The cache is
// not a source of truth, so nothing is queued for it.
func (s *OfflineService) CacheServerMetadata(ctx context.Context, sc *models.ServerCache) error {
	if sc == nil || sc.ID == "" {
		return errors.New("server id required")
	}
	sc.CachedAt = s.now().UTC()
	if err := s.store.Servers.Upsert(ctx, sc); err != nil {
		return fmt.Errorf("failed to cache server metadata: %w", err)
	}
	return nil
}

// GetSavedQueries returns all saved queries owned by userID.
func (s *OfflineService) GetSavedQueries(ctx context.Context, userID string) ([]models.SavedQuery, error) {
	return s.store.Queries.ListByUser(ctx, userID)
}

// GetQueryHistory returns up to limit executions for userID, most recent
// first.
func (s *OfflineService) GetQueryHistory(ctx context.Context, userID string, limit int) ([]models.QueryHistory, error) {
	return s.store.History.ListByUser(ctx, userID, limit)
}

// IsOfflineModeEnabled reads the offline-mode toggle.
func (s *OfflineService) IsOfflineModeEnabled(ctx context.Context) (bool, error) {
	cfg, err := s.store.Settings.Get(ctx)
	if err != nil {
		return false, err
	}
	return cfg.OfflineEnabled, nil
}

// SetOfflineModeEnabled writes the offline-mode toggle.
func (s *OfflineService) SetOfflineModeEnabled(ctx context.Context, enabled bool) error {
	return s.store.Settings.SetOfflineEnabled(ctx, enabled)
}

// GetStorageStats reports per-collection counts, a rough size estimate and
// the last sync time. Diagnostic read, no side effects.
func (s *OfflineService) GetStorageStats(ctx context.Context) (*models.StorageStats, error) {
	stats := &models.StorageStats{}

	var err error
	if stats.SavedQueries, err = s.store.Queries.Count(ctx); err != nil {
		return nil, err
	}
	if stats.QueryHistory, err = s.store.History.Count(ctx); err != nil {
		return nil, err
	}
	if stats.ServerCache, err = s.store.Servers.Count(ctx); err != nil {
		return nil, err
	}
	if stats.QueueItems, err = s.store.Queue.Count(ctx); err != nil {
		return nil, err
	}
	if stats.DeadQueueItems, err = s.store.Queue.CountDead(ctx, s.maxAttempts); err != nil {
		return nil, err
	}
	if stats.SizeBytes, err = s.store.SizeBytes(ctx); err != nil {
		return nil, err
	}

	cfg, err := s.store.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastSync = cfg.LastSync

	return stats, nil
}
