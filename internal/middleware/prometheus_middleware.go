package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute подставляется в метку path для запросов мимо маршрутов
const unmatchedRoute = "unmatched"

// PrometheusMiddleware собирает HTTP-метрики API.
//
// Метрики (с префиксом service):
// * http_request_duration_seconds{method,route,status}
// * http_response_size_bytes{route}
// * http_requests_inflight
// * http_region_rejections_total{route,reason}: 503 (регион остановлен) и 504 (таймаут тика)
type PrometheusMiddleware struct {
	duration   *prometheus.HistogramVec
	size       *prometheus.HistogramVec
	inflight   prometheus.Gauge
	rejections *prometheus.CounterVec
}

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики в reg
// (nil — регистр по умолчанию).
func NewPrometheusMiddleware(service string, reg prometheus.Registerer) *PrometheusMiddleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	pm := &PrometheusMiddleware{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"method", "route", "status"}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_response_size_bytes",
			Help:      "Размер тела ответа. Ответ на взрыв растёт с числом разрушенных клеток.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: service,
			Name:      "http_requests_inflight",
			Help:      "Текущее количество обрабатываемых HTTP-запросов.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "http_region_rejections_total",
			Help:      "Запросы, которые регион мира не принял.",
		}, []string{"route", "reason"}),
	}

	reg.MustRegister(pm.duration, pm.size, pm.inflight, pm.rejections)
	return pm
}

func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return unmatchedRoute
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.inflight.Inc()
		defer pm.inflight.Dec()

		c.Next()

		route := routeOf(c)
		code := c.Writer.Status()
		pm.duration.WithLabelValues(c.Request.Method, route, strconv.Itoa(code)).Observe(time.Since(start).Seconds())
		if n := c.Writer.Size(); n >= 0 {
			pm.size.WithLabelValues(route).Observe(float64(n))
		}

		switch code {
		case http.StatusServiceUnavailable:
			pm.rejections.WithLabelValues(route, "stopped").Inc()
		case http.StatusGatewayTimeout:
			pm.rejections.WithLabelValues(route, "timeout").Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics, отдающий метрики из g
// (nil — регистр по умолчанию).
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r *gin.Engine, g prometheus.Gatherer) {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}
