package db

import (
	"context"
	"time"

	"github.com/smith3v/ancestral-lingo/pkg/logger"
)

const SnapshotCleanupInterval = time.Hour

// CleanupExpiredSnapshots removes unfinished lessons untouched since cutoff.
func CleanupExpiredSnapshots(cutoff time.Time) (int64, error) {
	if DB == nil {
		return 0, nil
	}
	res := DB.Where("updated_at <= ?", cutoff).Delete(&SessionSnapshot{})
	return res.RowsAffected, res.Error
}

// StartSnapshotCleanup purges snapshots older than retention every interval
// until ctx is done. A zero retention keeps snapshots forever.
func StartSnapshotCleanup(ctx context.Context, interval, retention time.Duration) {
	if retention <= 0 {
		logger.Info("snapshot cleanup disabled")
		return
	}
	if interval <= 0 {
		interval = SnapshotCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := CleanupExpiredSnapshots(time.Now().UTC().Add(-retention))
			if err != nil {
				logger.Error("failed to cleanup expired snapshots", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired snapshots removed", "count", deleted)
			}
		}
	}
}
