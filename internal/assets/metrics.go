package assets

import "github.com/prometheus/client_golang/prometheus"

const (
	resultOK    = "ok"
	resultError = "error"
)

type loaderMetrics struct {
	loads    *prometheus.CounterVec
	duration prometheus.Histogram
	shared   prometheus.Counter
}

// newLoaderMetrics создает метрики; при reg == nil они не регистрируются
func newLoaderMetrics(reg prometheus.Registerer) *loaderMetrics {
	m := &loaderMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monument",
			Name:      "asset_loads_total",
			Help:      "Завершенные загрузки ассетов по результату.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monument",
			Name:      "asset_load_seconds",
			Help:      "Длительность успешной загрузки и разбора ассета.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		shared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monument",
			Name:      "asset_loads_shared_total",
			Help:      "Запросы, получившие уже запущенную загрузку того же ассета.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.loads, m.duration, m.shared)
	}
	return m
}
