package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Registry *prometheus.Registry

	dispatch      *prometheus.CounterVec
	relay         *prometheus.CounterVec
	relayDuration prometheus.Histogram
	breakerState  prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		dispatch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askrelay_dispatch_total",
				Help: "Incoming messages by dispatch outcome",
			},
			[]string{"outcome"},
		),
		relay: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askrelay_relay_requests_total",
				Help: "Completion relay calls by result kind",
			},
			[]string{"kind"},
		),
		relayDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "askrelay_relay_duration_seconds",
				Help:    "Completion relay latency in seconds, slot wait and retries included",
				Buckets: prometheus.DefBuckets,
			},
		),
		breakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "askrelay_breaker_state",
				Help: "Provider circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
		),
	}

	m.Registry.MustRegister(m.dispatch, m.relay, m.relayDuration, m.breakerState)
	return m
}

// ObserveDispatch counts one handled message.
func (m *Metrics) ObserveDispatch(outcome string) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(outcome).Inc()
}

// ObserveRelay counts one relay call and records its latency.
func (m *Metrics) ObserveRelay(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.relay.WithLabelValues(kind).Inc()
	m.relayDuration.Observe(d.Seconds())
}

// SetBreakerState records the provider circuit breaker state.
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.breakerState.Set(float64(state))
}

// NewRouter exposes /metrics and /healthz.
func NewRouter(m *Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}
