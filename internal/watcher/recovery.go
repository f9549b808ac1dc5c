package watcher

import (
	"context"

	"github.com/feichai0017/invoice-extractor/pkg/logger"
	"github.com/feichai0017/invoice-extractor/pkg/storage"
)

// recoverOrphans reconciles claim markers left behind by a crashed run.
// The claimant token is fresh on every start, so any marker found under
// the intake prefix is stale. The marker copy is authoritative: it is
// restored to the base name (overwriting any duplicate original left by
// a crash between claim-copy and original-delete) and then removed, so
// the item re-enters intake and is claimed normally.
func (w *Watcher) recoverOrphans(ctx context.Context) {
	keys, err := w.store.List(ctx, w.cfg.IntakePrefix)
	if err != nil {
		w.logger.Error("Orphan sweep listing failed",
			logger.Error(err),
		)
		return
	}

	for _, key := range keys {
		loc := claimMarkerPattern.FindStringIndex(key)
		if loc == nil {
			continue
		}

		originalKey := key[:loc[0]]

		if err := w.store.Copy(ctx, key, originalKey); err != nil {
			w.logger.Error("Could not restore orphaned marker",
				logger.String("inUseKey", key),
				logger.String("key", originalKey),
				logger.Error(err),
			)
			continue
		}
		if err := w.store.Delete(ctx, key); err != nil && !storage.IsNotFound(err) {
			w.logger.Warn("Could not delete orphaned marker",
				logger.String("inUseKey", key),
				logger.Error(err),
			)
		}

		w.metrics.OrphansRecovered.Inc()
		w.logger.Info("Recovered orphaned claim marker",
			logger.String("inUseKey", key),
			logger.String("key", originalKey),
		)
	}
}
