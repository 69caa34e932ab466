package light

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "light"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Epoch of the committee currently trusted.
	TrustedEpoch metrics.Gauge
	// Length of the checkpoint list.
	ListLength metrics.Gauge
	// Checkpoints that advanced the trust chain.
	CheckpointsVerified metrics.Counter
	// Checkpoints rejected by the trust chain.
	VerificationFailures metrics.Counter
	// End-of-epoch checkpoints appended by gap sync.
	CheckpointsAppended metrics.Counter
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
		TrustedEpoch: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "trusted_epoch",
			Help:      "Epoch of the committee currently trusted.",
		}, labels).With(labelsAndValues...),
		ListLength: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "checkpoint_list_length",
			Help:      "Number of end-of-epoch checkpoints in the local list.",
		}, labels).With(labelsAndValues...),
		CheckpointsVerified: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "checkpoints_verified",
			Help:      "Number of checkpoints that advanced the trusted committee.",
		}, labels).With(labelsAndValues...),
		VerificationFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "verification_failures",
			Help:      "Number of checkpoints rejected by the trust chain.",
		}, labels).With(labelsAndValues...),
		CheckpointsAppended: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "checkpoints_appended",
			Help:      "Number of end-of-epoch checkpoints appended while catching up.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		TrustedEpoch:         discard.NewGauge(),
		ListLength:           discard.NewGauge(),
		CheckpointsVerified:  discard.NewCounter(),
		VerificationFailures: discard.NewCounter(),
		CheckpointsAppended:  discard.NewCounter(),
	}
}
