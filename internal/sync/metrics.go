package sync

import (
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the sync engine's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	mutationsPushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gnd",
			Subsystem: "sync",
			Name:      "mutations_pushed_total",
			Help:      "LOI mutations written to the remote store.",
		},
		[]string{"type"},
	)

	mutationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gnd",
			Subsystem: "sync",
			Name:      "mutations_failed_total",
			Help:      "LOI mutation pushes that failed.",
		},
		[]string{"type"},
	)

	pushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gnd",
			Subsystem: "sync",
			Name:      "push_duration_seconds",
			Help:      "Time to apply one mutation remotely.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"type"},
	)

	pendingMutations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gnd",
			Subsystem: "sync",
			Name:      "pending_mutations",
			Help:      "Mutations not yet written to the remote store.",
		},
	)
)

func init() {
	Registry.MustRegister(
		mutationsPushed,
		mutationsFailed,
		pushDuration,
		pendingMutations,
	)
}

// RecordPush records one push attempt.
func RecordPush(t models.MutationType, duration time.Duration, err error) {
	label := string(t)
	if label == "" {
		label = string(models.MutationUnknown)
	}
	pushDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		mutationsFailed.WithLabelValues(label).Inc()
		return
	}
	mutationsPushed.WithLabelValues(label).Inc()
}

// SetPending updates the pending mutation gauge.
func SetPending(n int) {
	pendingMutations.Set(float64(n))
}

// WriteMetrics writes the registry in the node_exporter textfile format.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
