// Package watcher implements the intake state machine: poll the intake
// prefix, claim each candidate object via copy-then-delete, hand its
// bytes to the conversion collaborator, and route the object to a
// terminal prefix based on the outcome.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/invoice-extractor/config"
	"github.com/feichai0017/invoice-extractor/internal/converter"
	"github.com/feichai0017/invoice-extractor/internal/metrics"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
	"github.com/feichai0017/invoice-extractor/pkg/storage"
)

// ClaimMarker is the suffix convention signifying an object is owned.
// The full claimed key also carries the claimant token, so concurrent
// watchers never collide on the same destination name.
const ClaimMarker = ".in-use"

// claimMarkerPattern matches only the exact key shape claimedKey
// produces: the marker suffix followed by an 8-char hex claimant token.
// Anchoring here keeps deposits that merely contain ".in-use" in their
// name from being mistaken for claims.
var claimMarkerPattern = regexp.MustCompile(`\.in-use\.[0-9a-f]{8}$`)

// ErrStoreUnavailable is returned by Run when the intake listing has
// failed more consecutive times than the configured threshold allows.
var ErrStoreUnavailable = errors.New("object store unavailable")

// itemOutcome is the per-item result consumed by the poll loop. The
// loop never halts on any of these; they exist so the loop can count
// and log instead of blanket catch-and-continue.
type itemOutcome int

const (
	itemSucceeded itemOutcome = iota
	itemFailed
	itemAbandoned
)

// Stats is a snapshot of the watcher's progress counters
type Stats struct {
	LastPoll  time.Time `json:"lastPoll"`
	Succeeded uint64    `json:"succeeded"`
	Failed    uint64    `json:"failed"`
	Abandoned uint64    `json:"abandoned"`
}

// Watcher drives the pipeline: a single logical worker that polls,
// claims, processes and routes one object at a time.
type Watcher struct {
	store     storage.ObjectStore
	processor *Processor
	cfg       *config.Config
	metrics   *metrics.Metrics
	logger    logger.Logger

	// claimant uniquely identifies this watcher instance inside claim
	// marker keys
	claimant string

	pollFailures int

	lastPoll  atomic.Int64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	abandoned atomic.Uint64
}

func NewWatcher(
	store storage.ObjectStore,
	conv converter.Converter,
	cfg *config.Config,
	m *metrics.Metrics,
	log logger.Logger,
) *Watcher {
	return &Watcher{
		store:     store,
		processor: NewProcessor(conv, log),
		cfg:       cfg,
		metrics:   m,
		logger:    log.Named("watcher"),
		claimant:  strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
	}
}

// Run polls the intake prefix until ctx is cancelled. A tick runs to
// completion before the interval sleep begins; the loop is never
// re-entered concurrently with itself. Cancellation aborts the sleep
// and the loop, never an in-flight item.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Starting intake watcher",
		logger.String("bucket", w.cfg.Bucket),
		logger.String("intakePrefix", w.cfg.IntakePrefix),
		logger.String("donePrefix", w.cfg.DonePrefix),
		logger.String("errorPrefix", w.cfg.ErrorPrefix),
		logger.String("jsonPrefix", w.cfg.JSONPrefix),
		logger.Duration("pollInterval", w.cfg.PollInterval),
		logger.String("claimant", w.claimant),
	)

	if w.cfg.RecoverOrphans {
		w.recoverOrphans(context.WithoutCancel(ctx))
	}

	for {
		if err := w.poll(ctx); err != nil {
			w.pollFailures++
			w.metrics.PollErrors.Inc()
			w.logger.Error("Intake listing failed",
				logger.Int("consecutiveFailures", w.pollFailures),
				logger.Error(err),
			)
			if w.cfg.MaxPollFailures > 0 && w.pollFailures >= w.cfg.MaxPollFailures {
				return fmt.Errorf("%w: %d consecutive listing failures",
					ErrStoreUnavailable, w.pollFailures)
			}
		} else {
			w.pollFailures = 0
		}

		select {
		case <-ctx.Done():
			w.logger.Info("Intake watcher stopping")
			return ctx.Err()
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

// poll runs one tick: list the intake prefix and drain every candidate,
// one at a time, in listing order. Only the listing error is returned;
// item-level outcomes never fail the tick.
func (w *Watcher) poll(ctx context.Context) error {
	keys, err := w.store.List(ctx, w.cfg.IntakePrefix)
	if err != nil {
		return err
	}

	w.lastPoll.Store(time.Now().Unix())

	for _, key := range keys {
		if !w.candidate(key) {
			continue
		}

		// stop claiming new items once shutdown is requested
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		w.logger.Info("Found file to process",
			logger.String("key", key),
		)

		// the claim/route sequence for an item must not be cut short
		// by shutdown once it has begun
		switch w.handle(context.WithoutCancel(ctx), key) {
		case itemSucceeded:
			w.succeeded.Add(1)
		case itemFailed:
			w.failed.Add(1)
		case itemAbandoned:
			w.abandoned.Add(1)
			w.metrics.ClaimsAbandoned.Inc()
		}
	}

	return nil
}

// candidate filters the raw listing: directory markers, objects already
// claimed, and (under the ignore policy) non-convertible files are not
// picked up.
func (w *Watcher) candidate(key string) bool {
	if strings.HasSuffix(key, "/") {
		return false
	}
	if claimMarkerPattern.MatchString(key) {
		return false
	}
	if w.cfg.NonConvertible == config.NonConvertibleIgnore && !w.processor.Convertible(key) {
		return false
	}
	return true
}

// handle moves one candidate through claim, process and route
func (w *Watcher) handle(ctx context.Context, key string) itemOutcome {
	item, err := w.claim(ctx, key)
	if item == nil {
		return itemAbandoned
	}

	var out Outcome
	if err != nil {
		// ownership was established but the body is unreadable; from
		// here on this is a processing failure
		out = Outcome{Err: fmt.Errorf("claimed object unreadable: %w", err)}
	} else {
		out = w.processor.Process(ctx, item)
	}

	return w.route(ctx, item, out)
}

// Snapshot returns the current progress counters
func (w *Watcher) Snapshot() Stats {
	var last time.Time
	if unix := w.lastPoll.Load(); unix != 0 {
		last = time.Unix(unix, 0)
	}
	return Stats{
		LastPoll:  last,
		Succeeded: w.succeeded.Load(),
		Failed:    w.failed.Load(),
		Abandoned: w.abandoned.Load(),
	}
}
