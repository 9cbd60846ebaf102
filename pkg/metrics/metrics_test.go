package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("list", "ok", 10*time.Millisecond)
	m.Observe("list", "ok", 20*time.Millisecond)
	m.Observe("run", "backend-error", time.Second)
	m.Fragment("run")

	if got := testutil.ToFloat64(m.CallCount.WithLabelValues("list", "ok")); got != 2 {
		t.Errorf("list ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CallCount.WithLabelValues("run", "backend-error")); got != 1 {
		t.Errorf("run backend-error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StreamFragments.WithLabelValues("run")); got != 1 {
		t.Errorf("fragments = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Observe("list", "ok", time.Millisecond)
	m.Fragment("run")
}

func TestEchoRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Observe("list", "ok", time.Millisecond)
	e := NewEcho(reg)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/ping status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ollama_mcp_call_count_total") {
		t.Error("/metrics missing call counter")
	}
}
