package explosion

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics инкапсулирует Prometheus-метрики взрывов
type Metrics struct {
	explosions *prometheus.CounterVec
	destroyed  prometheus.Counter
	affected   prometheus.Counter
	cacheCells prometheus.Histogram
	duration   prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil — глобальный регистр)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		explosions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "explosion",
			Name:      "total",
			Help:      "Количество взрывов по исходу.",
		}, []string{"outcome"}),
		destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "explosion",
			Name:      "blocks_removed_total",
			Help:      "Сколько блоков удалили взрывы.",
		}),
		affected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "explosion",
			Name:      "entities_affected_total",
			Help:      "Сколько сущностей получили урон или отдачу.",
		}),
		cacheCells: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "explosion",
			Name:      "cached_cells",
			Help:      "Размер кэша клеток одного взрыва.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "explosion",
			Name:      "duration_seconds",
			Help:      "Время расчёта взрыва.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	reg.MustRegister(m.explosions, m.destroyed, m.affected, m.cacheCells, m.duration)
	return m
}

func (m *Metrics) observe(res *Result, seconds float64) {
	if m == nil || res == nil {
		return
	}
	outcome := "committed"
	switch {
	case res.NoOp:
		outcome = "noop"
	case res.Cancelled:
		outcome = "cancelled"
	}
	m.explosions.WithLabelValues(outcome).Inc()
	m.destroyed.Add(float64(res.Removed))
	m.affected.Add(float64(len(res.Knockback)))
	m.cacheCells.Observe(float64(res.CachedCells))
	m.duration.Observe(seconds)
}
