package broadcast

import "github.com/prometheus/client_golang/prometheus"

// Metrics are created by the composition root and registered there.
type Metrics struct {
	Connections prometheus.Gauge
	Published   prometheus.Counter
	Delivered   prometheus.Counter
	Dropped     prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workbox_active_connections",
			Help: "Number of currently registered subscriber connections.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workbox_events_published_total",
			Help: "Total number of events accepted by the broadcast hub.",
		}),
		Delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workbox_event_deliveries_total",
			Help: "Total number of per-subscriber event deliveries.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workbox_subscribers_dropped_total",
			Help: "Subscribers dropped for exceeding the send budget.",
		}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.Connections, m.Published, m.Delivered, m.Dropped)
}
