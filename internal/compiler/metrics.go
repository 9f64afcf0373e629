package compiler

import "github.com/prometheus/client_golang/prometheus"

type compilerMetrics struct {
	objects  *prometheus.CounterVec
	duration prometheus.Histogram
	failures prometheus.Counter
}

func newCompilerMetrics(reg prometheus.Registerer) *compilerMetrics {
	m := &compilerMetrics{
		objects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monument",
			Name:      "objects_constructed_total",
			Help:      "Объекты сцены, созданные компилятором, по виду ячейки.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monument",
			Name:      "compile_seconds",
			Help:      "Длительность компиляции планировки.",
			Buckets:   prometheus.DefBuckets,
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monument",
			Name:      "compile_failures_total",
			Help:      "Компиляции, отклоненные до изменения сцены.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.objects, m.duration, m.failures)
	}
	return m
}
