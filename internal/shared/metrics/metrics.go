// Package metrics owns the Prometheus collectors for command ingestion and
// the simulation loop.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "empires"

var (
	Registry = prometheus.NewRegistry()

	inboxDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "inbox",
		Name:      "depth",
		Help:      "Commands waiting in an empire inbox.",
	}, []string{"empire"})

	commandsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inbox",
		Name:      "submitted_total",
		Help:      "Commands accepted into an empire inbox.",
	}, []string{"empire"})

	commandsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inbox",
		Name:      "rejected_total",
		Help:      "Commands refused by an empire inbox, by reason.",
	}, []string{"empire", "reason"})

	commandsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "commands",
		Name:      "applied_total",
		Help:      "Commands applied by the simulation loop, by kind and result.",
	}, []string{"kind", "result"})

	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "simulation",
		Name:      "tick_duration_seconds",
		Help:      "Wall time spent applying one simulation tick.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
)

func init() {
	Registry.MustRegister(
		inboxDepth,
		commandsSubmitted,
		commandsRejected,
		commandsApplied,
		tickDuration,
		collectors.NewGoCollector(),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func label(empireID int) string {
	return strconv.Itoa(empireID)
}

func CommandSubmitted(empireID, depth int) {
	commandsSubmitted.WithLabelValues(label(empireID)).Inc()
	inboxDepth.WithLabelValues(label(empireID)).Set(float64(depth))
}

func CommandRejected(empireID int, reason string) {
	commandsRejected.WithLabelValues(label(empireID), reason).Inc()
}

func InboxDrained(empireID, depth int) {
	inboxDepth.WithLabelValues(label(empireID)).Set(float64(depth))
}

func CommandApplied(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	commandsApplied.WithLabelValues(kind, result).Inc()
}

func ObserveTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}
