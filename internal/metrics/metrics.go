// Package metrics exposes prometheus counters for the intake pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the pipeline counters so components receive them
// explicitly instead of writing to package globals.
type Metrics struct {
	ItemsClaimed       prometheus.Counter
	ItemsSucceeded     prometheus.Counter
	ItemsFailed        prometheus.Counter
	ClaimsAbandoned    prometheus.Counter
	ArtifactsPublished prometheus.Counter
	PollErrors         prometheus.Counter
	OrphansRecovered   prometheus.Counter
}

// New registers the pipeline counters on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsClaimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "extractor_items_claimed_total",
			Help: "Number of intake objects successfully claimed.",
		}),
		ItemsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "extractor_items_succeeded_total",
			Help: "Number of items routed to the done prefix.",
		}),
		ItemsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "extractor_items_failed_total",
			Help: "Number of items routed to the error prefix.",
		}),
		ClaimsAbandoned: factory.NewCounter(prometheus.CounterOpts{
			Name: "extractor_claims_abandoned_total",
			Help: "Number of claim attempts abandoned before ownership was established.",
		}),
		ArtifactsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "extractor_artifacts_published_total",
			Help: "Number of derived JSON artifacts published.",
		}),
		PollErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "extractor_poll_errors_total",
			Help: "Number of failed intake listing calls.",
		}),
		OrphansRecovered: factory.NewCounter(prometheus.CounterOpts{
			Name: "extractor_orphans_recovered_total",
			Help: "Number of orphaned claim markers returned to intake at startup.",
		}),
	}
}
