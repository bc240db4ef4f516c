package collision

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics инкапсулирует Prometheus-метрики запросов столкновений
type Metrics struct {
	queries      *prometheus.CounterVec
	cellsVisited prometheus.Histogram
	unknown      prometheus.Counter
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil — глобальный регистр)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collision",
			Name:      "queries_total",
			Help:      "Количество запросов столкновений по операциям.",
		}, []string{"op"}),
		cellsVisited: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "collision",
			Name:      "cells_visited",
			Help:      "Сколько клеток проверил один запрос.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		unknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "collision",
			Name:      "unknown_total",
			Help:      "Запросы, прерванные из-за незагруженных чанков.",
		}),
	}
	reg.MustRegister(m.queries, m.cellsVisited, m.unknown)
	return m
}

func (m *Metrics) observe(op string, w *walker) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(op).Inc()
	if w != nil {
		m.cellsVisited.Observe(float64(w.visited))
		if w.unknown {
			m.unknown.Inc()
		}
	}
}
