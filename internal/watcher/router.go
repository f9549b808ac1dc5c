package watcher

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/feichai0017/invoice-extractor/internal/converter"
	"github.com/feichai0017/invoice-extractor/internal/models"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
	"github.com/feichai0017/invoice-extractor/pkg/storage"
)

// route moves a claimed item to its terminal prefix and publishes the
// derived artifact if one was produced. The claim marker is released on
// every exit path, whether or not the terminal copy succeeded.
func (w *Watcher) route(ctx context.Context, item *models.WorkItem, out Outcome) itemOutcome {
	defer w.release(ctx, item)

	name := item.Name()

	if !out.Succeeded() {
		_ = item.Advance(models.StateFailed)
		errorKey := w.cfg.ErrorPrefix + name
		w.logger.Error("Processing failed",
			logger.String("inUseKey", item.ClaimedKey),
			logger.Error(out.Err),
		)
		if err := w.store.Copy(ctx, item.ClaimedKey, errorKey); err != nil {
			// swallowed: the claim marker may be gone after an earlier
			// partial failure, and the item is not retried this cycle
			w.logger.Error("Could not move file to error prefix",
				logger.String("inUseKey", item.ClaimedKey),
				logger.String("errorKey", errorKey),
				logger.Error(err),
			)
		} else {
			w.logger.Info("Moved file to error prefix",
				logger.String("errorKey", errorKey),
			)
		}
		w.metrics.ItemsFailed.Inc()
		return itemFailed
	}

	_ = item.Advance(models.StateSucceeded)
	doneKey := w.cfg.DonePrefix + name
	if err := w.store.Copy(ctx, item.ClaimedKey, doneKey); err != nil {
		w.logger.Error("Could not move file to done prefix",
			logger.String("inUseKey", item.ClaimedKey),
			logger.String("doneKey", doneKey),
			logger.Error(err),
		)
	} else {
		w.logger.Info("Processing successful, moved to done prefix",
			logger.String("doneKey", doneKey),
		)
	}

	if out.Artifact != nil {
		w.publish(ctx, item, out.Artifact)
	}

	w.metrics.ItemsSucceeded.Inc()
	return itemSucceeded
}

// publish stores the derived JSON artifact under its deterministic key.
// The key depends only on the original name, so re-publication after a
// retry simply replaces the prior content.
func (w *Watcher) publish(ctx context.Context, item *models.WorkItem, doc *converter.Document) {
	jsonKey := w.cfg.JSONPrefix + item.Stem() + ".json"

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		w.logger.Error("Failed to marshal JSON artifact",
			logger.String("jsonKey", jsonKey),
			logger.Error(err),
		)
		return
	}

	if err := w.store.Put(ctx, jsonKey, bytes.NewReader(data)); err != nil {
		w.logger.Error("Failed to store JSON artifact",
			logger.String("jsonKey", jsonKey),
			logger.Error(err),
		)
		return
	}

	w.metrics.ArtifactsPublished.Inc()
	w.logger.Info("Stored JSON result",
		logger.String("jsonKey", jsonKey),
	)
}

// release deletes the claim marker. It runs unconditionally after
// routing; a missing marker is tolerated, anything else is logged and
// the object stays orphaned for the startup sweep.
func (w *Watcher) release(ctx context.Context, item *models.WorkItem) {
	if err := w.store.Delete(ctx, item.ClaimedKey); err != nil {
		if storage.IsNotFound(err) {
			return
		}
		w.logger.Warn("Could not delete in-use marker",
			logger.String("inUseKey", item.ClaimedKey),
			logger.Error(err),
		)
		return
	}
	w.logger.Info("Released claim marker",
		logger.String("inUseKey", item.ClaimedKey),
	)
}
