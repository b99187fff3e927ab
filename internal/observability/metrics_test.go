package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestInstrumentRecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewChartCollector(reg)
	if err != nil {
		t.Fatalf("NewChartCollector: %v", err)
	}

	h := collector.Instrument("/api/selection", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown sensor", http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/selection", nil))

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/selection", "400")); got != 1 {
		t.Fatalf("bandchart_http_requests_total{code=400} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "bandchart_http_request_duration_seconds", map[string]string{
		"route": "/api/selection",
	}); count != 1 {
		t.Fatalf("bandchart_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestInstrumentDefaultsToOK(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewChartCollector(reg)
	if err != nil {
		t.Fatalf("NewChartCollector: %v", err)
	}

	h := collector.Instrument("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/healthz", "200")); got != 1 {
		t.Fatalf("bandchart_http_requests_total{code=200} = %v, want 1", got)
	}
}

func TestStatusRecorderForwardsFlush(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr, status: http.StatusOK}
	rec.Flush()
	if !rr.Flushed {
		t.Fatal("Flush did not reach the underlying writer")
	}
}

func TestObserveComposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewChartCollector(reg)
	if err != nil {
		t.Fatalf("NewChartCollector: %v", err)
	}

	collector.ObserveComposition("all", 2*time.Millisecond, nil)
	collector.ObserveComposition("MODIS", 0, errors.New("unknown sensor"))

	if got := testutil.ToFloat64(collector.Compositions.WithLabelValues("all", "ok")); got != 1 {
		t.Fatalf("compositions{all,ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Compositions.WithLabelValues("MODIS", "error")); got != 1 {
		t.Fatalf("compositions{MODIS,error} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "bandchart_scene_composition_duration_seconds", nil); count != 1 {
		t.Fatalf("composition duration sample_count = %d, want 1", count)
	}
}

func TestMetricsHandlerExposesSceneGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewChartCollector(reg)
	if err != nil {
		t.Fatalf("NewChartCollector: %v", err)
	}
	collector.SetSceneBands("Visible to SWIR", 21)
	collector.SetSceneBands("Thermal Infrared", 3)
	collector.SetGeneration(7)
	collector.SetDroppedBands(map[string]int{"straddling": 0, "gapped": 2})
	collector.SubscriberAdded()
	collector.SubscriberAdded()
	collector.SubscriberRemoved()

	if got := testutil.ToFloat64(collector.SceneBands.WithLabelValues("Thermal Infrared")); got != 3 {
		t.Fatalf("scene_bands{Thermal Infrared} = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.DroppedBands.WithLabelValues("gapped")); got != 2 {
		t.Fatalf("catalog_bands_dropped{gapped} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.EventSubscribers); got != 1 {
		t.Fatalf("event_subscribers = %v, want 1", got)
	}

	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"bandchart_scene_bands",
		"bandchart_scene_generation 7",
		"bandchart_catalog_bands_dropped",
		"bandchart_event_subscribers 1",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestNewChartCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewChartCollector(reg)
	if err != nil {
		t.Fatalf("first NewChartCollector: %v", err)
	}
	second, err := NewChartCollector(reg)
	if err != nil {
		t.Fatalf("second NewChartCollector: %v", err)
	}
	first.SetGeneration(3)
	if got := testutil.ToFloat64(second.SceneGeneration); got != 3 {
		t.Fatalf("second collector should share gauges, got %v", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *ChartCollector
	c.ObserveComposition("all", time.Millisecond, nil)
	c.SetSceneBands("x", 1)
	c.SetDroppedBands(map[string]int{"gapped": 1})
	c.SubscriberAdded()

	called := false
	h := c.Instrument("/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("nil collector should pass requests through")
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
