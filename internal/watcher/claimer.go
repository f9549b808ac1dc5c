package watcher

import (
	"context"
	"io"
	"time"

	"github.com/feichai0017/invoice-extractor/internal/models"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
)

// claimedKey derives the in-use key for a candidate. The claimant token
// keeps two concurrent watchers from colliding on the same destination.
func (w *Watcher) claimedKey(key string) string {
	return key + ClaimMarker + "." + w.claimant
}

// claim attempts exclusive ownership of a candidate:
//
//  1. copy the object to its in-use key
//  2. delete the original
//  3. fetch the body from the in-use key
//
// Copy-then-delete emulates rename on a store without one. The ordering
// means the object is never transiently absent from both locations; the
// tolerated failure mode is brief duplication, never loss.
//
// A nil item means the claim was abandoned: steps 1 or 2 failed, the
// candidate is untouched in intake and will be seen again on a future
// poll. A non-nil item with a non-nil error means ownership was
// established but the body could not be fetched; the caller must still
// route the item and release the marker.
func (w *Watcher) claim(ctx context.Context, key string) (*models.WorkItem, error) {
	inUseKey := w.claimedKey(key)

	w.logger.Info("Marking file as in-use",
		logger.String("key", key),
		logger.String("inUseKey", inUseKey),
	)

	if err := w.store.Copy(ctx, key, inUseKey); err != nil {
		w.logger.Warn("Claim copy failed, abandoning candidate",
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, nil
	}

	if err := w.store.Delete(ctx, key); err != nil {
		// the in-use copy stays behind; the startup sweep reconciles it
		w.logger.Warn("Claim delete failed, abandoning candidate",
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, nil
	}

	w.logger.Info("Removed original file",
		logger.String("key", key),
	)

	item := models.NewWorkItem(key)
	item.ClaimedKey = inUseKey
	item.ClaimedAt = time.Now()
	if err := item.Advance(models.StateClaimed); err != nil {
		// unreachable from a fresh item; keep the invariant loud
		w.logger.Error("Claim state transition rejected",
			logger.String("key", key),
			logger.Error(err),
		)
	}
	w.metrics.ItemsClaimed.Inc()

	reader, err := w.store.Get(ctx, inUseKey)
	if err != nil {
		return item, err
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return item, err
	}
	item.Body = body

	return item, nil
}
