package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the service's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	mutations     *prometheus.CounterVec
	guestsTotal   prometheus.Gauge
	tagsTotal     prometheus.Gauge
	queryDuration prometheus.Histogram
}

// NewMetrics registers the service collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rumor_mutations_total",
			Help: "Guest and tag mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		guestsTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "rumor_guests",
			Help: "Current number of guests in the collection",
		}),
		tagsTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "rumor_tags",
			Help: "Current number of tags in the catalog",
		}),
		queryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rumor_query_duration_seconds",
			Help:    "Duration of guest queries",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}
}

func (m *Metrics) mutation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) sizes(guests, tags int) {
	if m == nil {
		return
	}
	m.guestsTotal.Set(float64(guests))
	m.tagsTotal.Set(float64(tags))
}

func (m *Metrics) observeQuery(seconds float64) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(seconds)
}
