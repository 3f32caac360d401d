package settings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/querygate/offline/internal/dbx"
	"github.com/querygate/offline/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	query := `SELECT offline_enabled, last_sync, cache_expiry_days, sync_on_startup,
			storage_quota_mb, preferences
		FROM app_settings WHERE id = 1`
	row := r.db.QueryRowContext(ctx, query)

	var (
		s           models.AppSettings
		lastSync    sql.NullInt64
		preferences sql.NullString
	)
	err := row.Scan(&s.OfflineEnabled, &lastSync, &s.CacheExpiryDays, &s.SyncOnStartup,
		&s.StorageQuotaMB, &preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to select settings: %w", err)
	}

	if lastSync.Valid {
		t := time.UnixMilli(lastSync.Int64).UTC()
		s.LastSync = &t
	}
	if preferences.Valid {
		s.Preferences = []byte(preferences.String)
	}
	return &s, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, s *models.AppSettings) error {
	var lastSync any
	if s.LastSync != nil {
		lastSync = s.LastSync.UnixMilli()
	}
	var preferences any
	if len(s.Preferences) > 0 {
		preferences = string(s.Preferences)
	}

	query := `UPDATE app_settings SET
			offline_enabled = ?,
			last_sync = ?,
			cache_expiry_days = ?,
			sync_on_startup = ?,
			storage_quota_mb = ?,
			preferences = ?
		WHERE id = 1`
	_, err := r.db.ExecContext(ctx, query,
		s.OfflineEnabled, lastSync, s.CacheExpiryDays, s.SyncOnStartup,
		s.StorageQuotaMB, preferences)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetLastSync(ctx context.Context, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE app_settings SET last_sync = ? WHERE id = 1`, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetOfflineEnabled(ctx context.Context, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE app_settings SET offline_enabled = ? WHERE id = 1`, enabled)
	if err != nil {
		return fmt.Errorf("failed to set offline mode: %w", err)
	}
	return nil
}
