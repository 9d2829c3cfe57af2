package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("ottovoice", reg)

	m.Resolved("cached")
	m.Resolved("cached")
	m.Resolved("fallback")
	m.ProviderError("timeout")
	m.Played("interrupted")
	m.QueueDepth(3)
	m.ObserveSynthesis(250 * time.Millisecond)

	if got := testutil.ToFloat64(m.Resolutions.WithLabelValues("cached")); got != 2 {
		t.Fatalf("cached resolutions = %v", got)
	}
	if got := testutil.ToFloat64(m.ProviderErrors.WithLabelValues("timeout")); got != 1 {
		t.Fatalf("provider errors = %v", got)
	}
	if got := testutil.ToFloat64(m.QueueLength); got != 3 {
		t.Fatalf("queue length = %v", got)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `ottovoice_playbacks_total{outcome="interrupted"} 1`) {
		t.Fatalf("playbacks missing from exposition:\n%s", body)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Resolved("cached")
	m.ProviderError("x")
	m.Played("played")
	m.QueueDepth(1)
	m.ObserveSynthesis(time.Second)
}
