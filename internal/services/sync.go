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

// ForceSync runs a synchronization pass on the caller's behalf. It returns
// common.ErrOfflineRejected when the engine is offline and
// common.ErrSyncInProgress when a pass is already running; both are
// informational conditions for the UI, not failures of the engine.
func (s *OfflineService) ForceSync(ctx context.Context) error {
	return s.runSync(ctx, true)
}

// runSync is the single entry point for all triggers (startup, reconnect,
// timer, manual). Passes are single-flight; background triggers that find
// the engine busy or offline simply skip.
func (s *OfflineService) runSync(ctx context.Context, manual bool) error {
	if !s.monitor.Online() {
		if manual {
			return common.ErrOfflineRejected
		}
		return nil
	}

	if !s.syncing.CompareAndSwap(false, true) {
		if manual {
			return common.ErrSyncInProgress
		}
		return nil
	}
	defer s.syncing.Store(false)

	if err := s.repairQueue(ctx); err != nil {
		s.log.Warn(ctx, "queue repair failed", "error", err)
	}

	items, err := s.store.Queue.ListRunnable(ctx, s.maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to read sync queue: %w", err)
	}

	// Strictly one item at a time: no parallel fan-out, so retry bookkeeping
	// stays simple and the same record is never reconciled twice at once.
	var failed int
	for _, item := range items {
		if err := s.processItem(ctx, &item); err != nil {
			failed++
			s.log.Debug(ctx, "queue item failed",
				"entity_type", string(item.EntityType), "entity_id", item.EntityID, "error", err)
		}
	}

	// last_sync records that a pass completed, regardless of item outcomes
	if err := s.store.Settings.SetLastSync(ctx, s.now().UTC()); err != nil {
		s.log.Error(ctx, "failed to stamp last sync", "error", err)
	}

	s.log.Info(ctx, "sync pass finished", "items", len(items), "failed", failed)
	return nil
}

// processItem replays one queued mutation. Success marks the owning record
// synced and removes the item in one transaction; failure increments the
// item's retry count and flags the record, leaving the item queued for a
// later pass.
func (s *OfflineService) processItem(ctx context.Context, item *models.SyncQueueItem) error {
	if err := s.dispatch(ctx, item); err != nil {
		if qErr := s.store.Queue.RecordFailure(ctx, item.ID, err.Error()); qErr != nil {
			s.log.Error(ctx, "failed to record item failure", "error", qErr)
		}
		s.markRecord(ctx, item, models.StatusError)
		return err
	}

	return dbx.WithTx(ctx, s.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		if item.Action != models.ActionDelete {
			switch item.EntityType {
			case models.EntityQuery:
				if err := queries.NewSQLiteRepository(tx).SetSyncStatus(ctx, item.EntityID, models.StatusSynced); err != nil {
					return err
				}
			case models.EntityHistory:
				if err := history.NewSQLiteRepository(tx).SetSyncStatus(ctx, item.EntityID, models.StatusSynced); err != nil {
					return err
				}
			case models.EntityServer:
				// cache rows carry no sync status
			}
		}
		return syncqueue.NewSQLiteRepository(tx).Remove(ctx, item.ID)
	})
}

func (s *OfflineService) dispatch(ctx context.Context, item *models.SyncQueueItem) error {
	if !item.EntityType.Valid() || !item.Action.Valid() {
		return fmt.Errorf("malformed queue item %s: type=%q action=%q",
			item.ID, string(item.EntityType), string(item.Action))
	}

	if item.Action == models.ActionDelete {
		return s.remote.Delete(ctx, item.EntityType, item.EntityID)
	}
	return s.remote.Upsert(ctx, item.EntityType, item.EntityID, item.Payload)
}

// markRecord flags the owning record after a failed attempt. Best effort:
// the queue item already carries the authoritative retry state.
func (s *OfflineService) markRecord(ctx context.Context, item *models.SyncQueueItem, status models.SyncStatus) {
	if item.Action == models.ActionDelete {
		return
	}
	var err error
	switch item.EntityType {
	case models.EntityQuery:
		err = s.store.Queries.SetSyncStatus(ctx, item.EntityID, status)
	case models.EntityHistory:
		err = s.store.History.SetSyncStatus(ctx, item.EntityID, status)
	}
	if err != nil {
		s.log.Error(ctx, "failed to flag record", "entity_id", item.EntityID, "error", err)
	}
}

// repairQueue restores the invariant between record sync status and queue
// contents: an unsynced record with no queue item is re-enqueued, and a
// queue item whose record is gone or already synced is dropped. Record and
// queue writes normally commit together, so this only acts on databases
// written by older tooling or edited by hand.
func (s *OfflineService) repairQueue(ctx context.Context) error {
	unsyncedQueries, err := s.store.Queries.ListUnsynced(ctx)
	if err != nil {
		return err
	}
	for i := range unsyncedQueries {
		q := &unsyncedQueries[i]
		if err := s.reenqueue(ctx, models.EntityQuery, q.ID, q); err != nil {
			return err
		}
	}

	unsyncedHistory, err := s.store.History.ListUnsynced(ctx)
	if err != nil {
		return err
	}
	for i := range unsyncedHistory {
		h := &unsyncedHistory[i]
		if err := s.reenqueue(ctx, models.EntityHistory, h.ID, h); err != nil {
			return err
		}
	}

	items, err := s.store.Queue.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		item := &items[i]
		if item.Action == models.ActionDelete {
			continue
		}
		stale, err := s.itemIsStale(ctx, item)
		if err != nil {
			return err
		}
		if stale {
			s.log.Warn(ctx, "dropping stale queue item",
				"entity_type", string(item.EntityType), "entity_id", item.EntityID)
			if err := s.store.Queue.Remove(ctx, item.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *OfflineService) reenqueue(ctx context.Context, entityType models.EntityType, id string, record any) error {
	_, err := s.store.Queue.GetByEntity(ctx, entityType, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record for re-enqueue: %w", err)
	}

	s.log.Warn(ctx, "re-enqueueing orphaned record",
		"entity_type", string(entityType), "entity_id", id)
	return s.store.Queue.Enqueue(ctx, &models.SyncQueueItem{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   id,
		Action:     models.ActionCreate,
		Payload:    payload,
		CreatedAt:  s.now().UTC(),
	})
}

func (s *OfflineService) itemIsStale(ctx context.Context, item *models.SyncQueueItem) (bool, error) {
	switch item.EntityType {
	case models.EntityQuery:
		q, err := s.store.Queries.Get(ctx, item.EntityID)
		if errors.Is(err, common.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return q.SyncStatus == models.StatusSynced, nil
	case models.EntityHistory:
		h, err := s.store.History.Get(ctx, item.EntityID)
		if errors.Is(err, common.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return h.SyncStatus == models.StatusSynced, nil
	default:
		// server metadata is a local cache and is never queued
		return true, nil
	}
}
