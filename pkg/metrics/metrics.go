// Package metrics exposes Prometheus collectors for signing sessions,
// signature-collection polls and verifications.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "typed_signer"

// Poll results
const (
	PollResult_Pending  = "pending"
	PollResult_Complete = "complete"
	PollResult_Error    = "error"
)

var (
	metricsOnce sync.Once

	sessionsSubmitted  *prometheus.CounterVec
	sessionsFinished   *prometheus.CounterVec
	collectionPolls    *prometheus.CounterVec
	verifications      *prometheus.CounterVec
	collectionDuration prometheus.Histogram
)

func ensureMetrics() {
	metricsOnce.Do(func() {
		sessionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "submitted_total",
			Help:      "Signing sessions accepted, by account kind",
		}, []string{"account_kind"})

		sessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "finished_total",
			Help:      "Signing sessions that left the active slot, by final phase",
		}, []string{"phase"})

		collectionPolls = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "polls_total",
			Help:      "Signature collection polls, by result",
		}, []string{"result"})

		verifications = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "checks_total",
			Help:      "Signature verifications, by method and outcome",
		}, []string{"method", "valid"})

		collectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "duration_seconds",
			Help:      "Time from the first poll until collection stopped",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		})
	})
}

func ObserveSessionSubmitted(accountKind string) {
	ensureMetrics()
	sessionsSubmitted.WithLabelValues(accountKind).Inc()
}

func ObserveSessionFinished(phase string) {
	ensureMetrics()
	sessionsFinished.WithLabelValues(phase).Inc()
}

func ObservePoll(result string) {
	ensureMetrics()
	collectionPolls.WithLabelValues(result).Inc()
}

func ObserveVerification(method string, valid bool) {
	ensureMetrics()
	verifications.WithLabelValues(method, strconv.FormatBool(valid)).Inc()
}

func ObserveCollectionDuration(duration time.Duration) {
	if duration <= 0 {
		return
	}
	ensureMetrics()
	collectionDuration.Observe(duration.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	ensureMetrics()
	return promhttp.Handler()
}
