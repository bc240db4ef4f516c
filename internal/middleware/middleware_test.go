package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	pm := NewPrometheusMiddleware("test_api", reg)

	r := gin.New()
	r.Use(NewRequestLogger(time.Second).Handler())
	r.Use(pm.Handler())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })
	r.GET("/stopped", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.GET("/slow", func(c *gin.Context) { c.Status(http.StatusGatewayTimeout) })
	pm.RegisterMetricsEndpoint(r, reg)
	return r, pm, reg
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRequestLogger_TraceHeader(t *testing.T) {
	r, _, _ := newRouter(t)

	a := get(r, "/ok")
	b := get(r, "/ok")
	require.Equal(t, http.StatusOK, a.Code)
	assert.NotEmpty(t, a.Header().Get("X-Trace-Id"))
	assert.NotEqual(t, a.Header().Get("X-Trace-Id"), b.Header().Get("X-Trace-Id"))
}

func TestPrometheusMiddleware_Rejections(t *testing.T) {
	r, pm, _ := newRouter(t)

	get(r, "/ok")
	get(r, "/stopped")
	get(r, "/stopped")
	get(r, "/slow")
	get(r, "/nowhere")

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.rejections.WithLabelValues("/stopped", "stopped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.rejections.WithLabelValues("/slow", "timeout")))
	assert.Equal(t, 0.0, testutil.ToFloat64(pm.inflight))
	assert.Equal(t, 4, testutil.CollectAndCount(pm.duration), "Серии: /ok, /stopped, /slow, unmatched")
}

func TestPrometheusMiddleware_MetricsEndpoint(t *testing.T) {
	r, _, _ := newRouter(t)
	get(r, "/ok")

	w := get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `test_api_http_request_duration_seconds_count{method="GET",route="/ok",status="200"} 1`))
	assert.Contains(t, body, "test_api_http_response_size_bytes")
}
