package bridge

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is a subsystem shared by all metrics exposed by this
// package.
const MetricsSubsystem = "bridge"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Highest epoch registered on the target chain.
	HighestRegisteredEpoch metrics.Gauge
	// Committees handed over to the submitter.
	RelaysSubmitted metrics.Counter
	// Submitted committees seen registered.
	RelaysConfirmed metrics.Counter
	// Submitted committees that never showed up.
	RelaysUnconfirmed metrics.Counter
	// Time between submission and confirmation.
	ConfirmSeconds metrics.Histogram
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
		HighestRegisteredEpoch: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "highest_registered_epoch",
			Help:      "Highest epoch registered on the target chain.",
		}, labels).With(labelsAndValues...),
		RelaysSubmitted: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "relays_submitted",
			Help:      "Number of committees submitted to the target chain.",
		}, labels).With(labelsAndValues...),
		RelaysConfirmed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "relays_confirmed",
			Help:      "Number of submitted committees seen registered.",
		}, labels).With(labelsAndValues...),
		RelaysUnconfirmed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "relays_unconfirmed",
			Help:      "Number of submitted committees not registered before the timeout.",
		}, labels).With(labelsAndValues...),
		ConfirmSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "confirm_seconds",
			Help:      "Time between submitting a committee and seeing it registered.",
			Buckets:   stdprometheus.ExponentialBuckets(1, 2, 10),
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		HighestRegisteredEpoch: discard.NewGauge(),
		RelaysSubmitted:        discard.NewCounter(),
		RelaysConfirmed:        discard.NewCounter(),
		RelaysUnconfirmed:      discard.NewCounter(),
		ConfirmSeconds:         discard.NewHistogram(),
	}
}
