package services

import (
	"context"
	"fmt"
	"time"

	"github.com/querygate/offline/internal/common"
	"github.com/querygate/offline/internal/models"
)

// GetServerMetadata returns the cached descriptor for a server. Rows past the
// TTL are reported as a miss even before the sweeper physically removes them;
// the read path never deletes.
func (s *OfflineService) GetServerMetadata(ctx context.Context, id string) (*models.ServerCache, error) {
	sc, err := s.store.Servers.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cutoff, err := s.cacheCutoff(ctx)
	if err != nil {
		return nil, err
	}
	if sc.ExpiredAt(cutoff) {
		return nil, fmt.Errorf("server %s: cache expired: %w", id, common.ErrNotFound)
	}
	return sc, nil
}

// ListCachedServers returns the non-expired cache rows.
func (s *OfflineService) ListCachedServers(ctx context.Context) ([]models.ServerCache, error) {
	all, err := s.store.Servers.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	cutoff, err := s.cacheCutoff(ctx)
	if err != nil {
		return nil, err
	}

	fresh := all[:0]
	for _, sc := range all {
		if !sc.ExpiredAt(cutoff) {
			fresh = append(fresh, sc)
		}
	}
	return fresh, nil
}

// CleanupExpiredCache deletes server-metadata rows past the TTL and reports
// how many were removed. The daemon runs it on the periodic sync cadence.
func (s *OfflineService) CleanupExpiredCache(ctx context.Context) (int64, error) {
	cutoff, err := s.cacheCutoff(ctx)
	if err != nil {
		return 0, err
	}

	removed, err := s.store.Servers.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep server cache: %w", err)
	}
	if removed > 0 {
		s.log.Info(ctx, "swept expired server cache", "removed", removed)
	}
	return removed, nil
}

func (s *OfflineService) cacheCutoff(ctx context.Context) (time.Time, error) {
	cfg, err := s.store.Settings.Get(ctx)
	if err != nil {
		return time.Time{}, err
	}
	days := cfg.CacheExpiryDays
	if days <= 0 {
		days = models.DefaultSettings().CacheExpiryDays
	}
	return s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour), nil
}
