package objstore

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is a subsystem shared by all metrics exposed by this
// package.
const MetricsSubsystem = "fetch"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Checkpoints fetched and decoded.
	Fetched metrics.Counter
	// Retries of failed reads.
	Retries metrics.Counter
	// Fetches that gave up, labelled by reason.
	Failures metrics.Counter
	// Time spent on one fetch, retries included.
	FetchSeconds metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Fetched: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "checkpoints_fetched",
			Help:      "Number of checkpoints fetched from the object store.",
		}, labels).With(labelsAndValues...),
		Retries: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "retries",
			Help:      "Number of retried object store reads.",
		}, labels).With(labelsAndValues...),
		Failures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failures",
			Help:      "Number of fetches that gave up.",
		}, append(labels, "reason")).With(labelsAndValues...),
		FetchSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "fetch_seconds",
			Help:      "Time spent fetching one checkpoint, retries included.",
			Buckets:   stdprometheus.ExponentialBuckets(0.01, 3, 10),
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Fetched:      discard.NewCounter(),
		Retries:      discard.NewCounter(),
		Failures:     discard.NewCounter(),
		FetchSeconds: discard.NewHistogram(),
	}
}
