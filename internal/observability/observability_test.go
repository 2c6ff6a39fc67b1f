package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xob0t/GoPoster/internal/config"
)

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	cfg.Log = config.LogConfig{Level: "debug", Development: true, Encoding: "console"}
	logger, err = NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.Log.Level = "chatty"
	_, err = NewLogger(cfg)
	require.ErrorContains(t, err, "log level")
}

func newEngine(log *zap.Logger, m *HTTPMetrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log), TracingMiddleware("gopostr"), MetricsMiddleware(m))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	return r
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m, err := NewHTTPMetricsWith(config.Default(), noop.NewMeterProvider())
	require.NoError(t, err)
	r := newEngine(zap.New(core), m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(200), entries[1].ContextMap()["status"])
	assert.Equal(t, "abc123", entries[1].ContextMap()["request_id"])
}

func TestRequestLoggerErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newEngine(zap.New(core), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

// gaugeProvider hands out no-op instruments except for up/down counters,
// whose running total it keeps.
type gaugeProvider struct {
	noop.MeterProvider
	total atomic.Int64
}

func (p *gaugeProvider) Meter(string, ...metric.MeterOption) metric.Meter {
	return gaugeMeter{total: &p.total}
}

type gaugeMeter struct {
	noop.Meter
	total *atomic.Int64
}

func (m gaugeMeter) Int64UpDownCounter(string, ...metric.Int64UpDownCounterOption) (metric.Int64UpDownCounter, error) {
	return gaugeCounter{total: m.total}, nil
}

type gaugeCounter struct {
	noop.Int64UpDownCounter
	total *atomic.Int64
}

func (c gaugeCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	c.total.Add(incr)
}

func TestInFlightSurvivesPanics(t *testing.T) {
	provider := &gaugeProvider{}
	m, err := NewHTTPMetricsWith(config.Default(), provider)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery(), MetricsMiddleware(m))
	r.GET("/panic", func(*gin.Context) { panic("handler blew up") })
	r.GET("/ok", func(c *gin.Context) {
		assert.Equal(t, int64(1), provider.total.Load())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, int64(0), provider.total.Load())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(0), provider.total.Load())
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "unknown", normalizeEndpoint("  "))
	assert.Equal(t, "/api/render", normalizeEndpoint("/api/render"))
}
