package wellness

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garminbridge_vendor_fetch_total",
			Help: "Consultas al vendor por métrica y resultado (ok, empty, error).",
		},
		[]string{"metric", "outcome"},
	)
)

// registerMetrics registra los colectores una sola vez (los tests crean
// varios aggregators).
func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(fetchTotal)
	})
}

func observeFetch(metric, outcome string) {
	fetchTotal.WithLabelValues(metric, outcome).Inc()
}
