// Package metrics provides Prometheus-based metrics recording for the brief bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder records wizard, delivery and webhook metrics on its own
// registry.
type PrometheusRecorder struct {
	registry        *prometheus.Registry
	eventsTotal     *prometheus.CounterVec
	briefsTotal     *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
	throttledTotal  prometheus.Counter
	reapedTotal     prometheus.Counter
	webhookDuration prometheus.Histogram
}

// NewPrometheusRecorder creates a recorder with a fresh registry that also
// carries the Go runtime and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefbot_events_total",
				Help: "Inbound wizard events by kind and outcome (ok, rejected, error)",
			},
			[]string{"kind", "outcome"},
		),
		briefsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefbot_briefs_finalized_total",
				Help: "Finalized briefs by mode (new, resend)",
			},
			[]string{"mode"},
		),
		deliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefbot_brief_deliveries_total",
				Help: "Operator channel deliveries by status",
			},
			[]string{"status"},
		),
		throttledTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "briefbot_updates_throttled_total",
			Help: "Updates dropped by the per-user rate limiter",
		}),
		reapedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "briefbot_sessions_reaped_total",
			Help: "Finished sessions removed after their edit window",
		}),
		webhookDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "briefbot_webhook_duration_seconds",
			Help:    "Time spent handling one webhook update",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveEvent counts one handled event.
func (p *PrometheusRecorder) ObserveEvent(kind, outcome string) {
	p.eventsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveFinalize counts a finalized brief.
func (p *PrometheusRecorder) ObserveFinalize(resend bool) {
	mode := "new"
	if resend {
		mode = "resend"
	}
	p.briefsTotal.WithLabelValues(mode).Inc()
}

// ObserveDelivery counts an operator channel delivery attempt.
func (p *PrometheusRecorder) ObserveDelivery(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	p.deliveriesTotal.WithLabelValues(status).Inc()
}

// IncThrottle counts an update rejected by the rate limiter.
func (p *PrometheusRecorder) IncThrottle() {
	p.throttledTotal.Inc()
}

// IncReaped counts a session removed by the reaper. Its signature matches
// cleanup.ReapCallback.
func (p *PrometheusRecorder) IncReaped(string) {
	p.reapedTotal.Inc()
}

// ObserveWebhook records how long one update took to handle.
func (p *PrometheusRecorder) ObserveWebhook(d time.Duration) {
	p.webhookDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
