package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement holds the collectors of the settlement engine. A nil
// *Settlement records nothing.
type Settlement struct {
	wagers        *prometheus.CounterVec
	wagerVolume   prometheus.Counter
	claims        *prometheus.CounterVec
	claimedAmount *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	errors        *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	relayBacklog  prometheus.Gauge
	relayed       prometheus.Counter
}

// NewSettlement creates the collectors and registers them with reg
func NewSettlement(reg prometheus.Registerer) *Settlement {
	m := &Settlement{
		wagers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "wagers_total",
			Help:      "Wagers placed, by side.",
		}, []string{"side"}),
		wagerVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "wager_volume_lamports_total",
			Help:      "Gross lamports wagered.",
		}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "claims_total",
			Help:      "Payouts and refunds claimed.",
		}, []string{"kind"}),
		claimedAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "claimed_lamports_total",
			Help:      "Lamports paid out, by claim kind.",
		}, []string{"kind"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "resolutions_total",
			Help:      "Markets resolved, by outcome.",
		}, []string{"outcome"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "cancellations_total",
			Help:      "Markets cancelled, by trigger.",
		}, []string{"trigger"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "errors_total",
			Help:      "Rejected settlement operations, by operation and error code.",
		}, []string{"operation", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "settlement",
			Name:      "operation_duration_seconds",
			Help:      "Duration of settlement operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		relayBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "settlement",
			Name:      "event_relay_backlog",
			Help:      "Outbox events waiting to be published.",
		}),
		relayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "events_relayed_total",
			Help:      "Outbox events published to Kafka.",
		}),
	}

	reg.MustRegister(
		m.wagers, m.wagerVolume, m.claims, m.claimedAmount, m.resolutions,
		m.cancellations, m.errors, m.latency, m.relayBacklog, m.relayed,
	)
	return m
}

func (m *Settlement) Wager(side string, amount uint64) {
	if m == nil {
		return
	}
	m.wagers.WithLabelValues(side).Inc()
	m.wagerVolume.Add(float64(amount))
}

func (m *Settlement) Claim(kind string, amount uint64) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(kind).Inc()
	m.claimedAmount.WithLabelValues(kind).Add(float64(amount))
}

func (m *Settlement) Resolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Settlement) Cancellation(trigger string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(trigger).Inc()
}

func (m *Settlement) Error(operation, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(operation, code).Inc()
}

// Observe records the duration of operation since start
func (m *Settlement) Observe(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Settlement) RelayBacklog(n int64) {
	if m == nil {
		return
	}
	m.relayBacklog.Set(float64(n))
}

func (m *Settlement) Relayed(n int) {
	if m == nil {
		return
	}
	m.relayed.Add(float64(n))
}
