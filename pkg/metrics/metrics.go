// Package metrics defines prometheus metrics for tool calls and the
// optional HTTP listener that exposes them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the collectors recorded by the dispatcher.
type Metrics struct {
	CallDuration    *prometheus.HistogramVec
	CallCount       *prometheus.CounterVec
	StreamFragments *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ollama_mcp_call_duration_seconds",
				Help:    "Time taken by tool calls in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"tool"},
		),
		CallCount: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ollama_mcp_call_count_total",
				Help: "Total number of tool calls by outcome",
			},
			[]string{"tool", "code"},
		),
		StreamFragments: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ollama_mcp_stream_fragments_total",
				Help: "Total number of streamed fragments forwarded to clients",
			},
			[]string{"tool"},
		),
	}
}

// Observe records one finished call. code is "ok" on success.
func (m *Metrics) Observe(tool, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallDuration.WithLabelValues(tool).Observe(d.Seconds())
	m.CallCount.WithLabelValues(tool, code).Inc()
}

// Fragment records one forwarded stream fragment.
func (m *Metrics) Fragment(tool string) {
	if m == nil {
		return
	}
	m.StreamFragments.WithLabelValues(tool).Inc()
}

// NewEcho builds the listener exposing /metrics and /ping. Its banner and
// logs go to stderr because stdout carries the MCP channel.
func NewEcho(g prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetOutput(os.Stderr)
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	return e
}

// Serve runs the listener on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *zap.SugaredLogger) error {
	e := NewEcho(g)
	errCh := make(chan error, 1)
	go func() {
		log.Infow("metrics listener started", "addr", addr)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
