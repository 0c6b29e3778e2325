// Package metrics holds the Prometheus collectors for the dashboard fan-out,
// match actions and document extraction.
//
// Collectors live in a private registry so tests can construct handlers and
// boards without colliding with the default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clinsync"

var registry = prometheus.NewRegistry()

var (
	branchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "branch_failures_total",
		Help:      "Absorbed child or leaf fetch failures, by level.",
	}, []string{"level"})

	refreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "refreshes_total",
		Help:      "Dashboard refreshes, by outcome (ok, failed, superseded).",
	}, []string{"outcome"})

	refreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "refresh_duration_seconds",
		Help:      "Wall time of a full trials, matches, candidates aggregation.",
		Buckets:   prometheus.DefBuckets,
	})

	matchActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "match_actions_total",
		Help:      "Approve and reject attempts, by action and result.",
	}, []string{"action", "result"})

	extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "extract",
		Name:      "documents_total",
		Help:      "Documents run through the extraction pipeline, by kind and result.",
	}, []string{"kind", "result"})

	extractionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "extract",
		Name:      "document_duration_seconds",
		Help:      "Per-document extraction time, by kind.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		branchFailures,
		refreshes,
		refreshDuration,
		matchActions,
		extractions,
		extractionDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// BranchFailure counts one absorbed fetch failure at level.
func BranchFailure(level string) {
	branchFailures.WithLabelValues(level).Inc()
}

// Refresh records a finished dashboard refresh.
func Refresh(outcome string, took time.Duration) {
	refreshes.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(took.Seconds())
}

// MatchAction counts an approve/reject attempt.
func MatchAction(action string, ok bool) {
	matchActions.WithLabelValues(action, result(ok)).Inc()
}

// Extraction records one document run through the pipeline.
func Extraction(kind string, ok bool, took time.Duration) {
	extractions.WithLabelValues(kind, result(ok)).Inc()
	extractionDuration.WithLabelValues(kind).Observe(took.Seconds())
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
