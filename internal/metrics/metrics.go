// Package metrics holds the domain Prometheus collectors. A nil *Metrics records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"docexpiry/internal/model"
)

// Metrics groups the dispatch and sweep collectors.
type Metrics struct {
	alerts        *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	deferredSent  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docexpiry_alerts_total",
				Help: "Alerts dispatched, by alert type.",
			},
			[]string{"alert_type"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docexpiry_deliveries_total",
				Help: "Channel delivery attempts, by channel and outcome.",
			},
			[]string{"channel", "status"},
		),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docexpiry_sweep_duration_seconds",
			Help:    "Duration of full expiry sweeps.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		deferredSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docexpiry_deferred_sent_total",
			Help: "Scheduled notifications marked as sent by the poller.",
		}),
	}
	for _, c := range []prometheus.Collector{m.alerts, m.deliveries, m.sweepDuration, m.deferredSent} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) AlertDispatched(t model.AlertType) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) Delivery(channel, status string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) SweepFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func (m *Metrics) DeferredSent() {
	if m == nil {
		return
	}
	m.deferredSent.Inc()
}
