package observability

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChartCollector bundles the Prometheus metrics for scene composition and
// the page server.
type ChartCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	Compositions        *prometheus.CounterVec
	CompositionDuration prometheus.Histogram
	SceneBands          *prometheus.GaugeVec
	SceneGeneration     prometheus.Gauge
	DroppedBands        *prometheus.GaugeVec
	EventSubscribers    prometheus.Gauge
}

// NewChartCollector registers the metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewChartCollector(reg prometheus.Registerer) (*ChartCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bandchart_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route and status code.",
	}, []string{"route", "code"}), "bandchart_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bandchart_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"route"}), "bandchart_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	compositions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bandchart_scene_compositions_total",
		Help: "Scene compositions, labeled by selection and result.",
	}, []string{"selection", "result"}), "bandchart_scene_compositions_total")
	if err != nil {
		return nil, err
	}

	composeDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bandchart_scene_composition_duration_seconds",
		Help:    "Duration of scene compositions.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}), "bandchart_scene_composition_duration_seconds")
	if err != nil {
		return nil, err
	}

	sceneBands, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bandchart_scene_bands",
		Help: "Band rectangles drawn in the current scene, per panel.",
	}, []string{"panel"}), "bandchart_scene_bands")
	if err != nil {
		return nil, err
	}

	generation, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bandchart_scene_generation",
		Help: "Generation number of the published scene.",
	}), "bandchart_scene_generation")
	if err != nil {
		return nil, err
	}

	dropped, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bandchart_catalog_bands_dropped",
		Help: "Catalog bands not drawn in any window, labeled by containment.",
	}, []string{"containment"}), "bandchart_catalog_bands_dropped")
	if err != nil {
		return nil, err
	}

	subscribers, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bandchart_event_subscribers",
		Help: "Open server-sent event streams.",
	}), "bandchart_event_subscribers")
	if err != nil {
		return nil, err
	}

	return &ChartCollector{
		gatherer:            gatherer,
		HTTPRequests:        requests,
		HTTPDurations:       durations,
		Compositions:        compositions,
		CompositionDuration: composeDuration,
		SceneBands:          sceneBands,
		SceneGeneration:     generation,
		DroppedBands:        dropped,
		EventSubscribers:    subscribers,
	}, nil
}

// Instrument wraps h so every request is counted and timed under route.
func (c *ChartCollector) Instrument(route string, h http.Handler) http.Handler {
	if c == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// ObserveComposition records one composition attempt.
func (c *ChartCollector) ObserveComposition(selection string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	if c.Compositions != nil {
		c.Compositions.WithLabelValues(selection, result).Inc()
	}
	if c.CompositionDuration != nil && err == nil {
		c.CompositionDuration.Observe(elapsed.Seconds())
	}
}

// SetSceneBands sets the band count drawn in one panel.
func (c *ChartCollector) SetSceneBands(panel string, bands int) {
	if c == nil || c.SceneBands == nil {
		return
	}
	c.SceneBands.WithLabelValues(panel).Set(float64(bands))
}

// SetGeneration records the published scene generation.
func (c *ChartCollector) SetGeneration(gen uint64) {
	if c == nil || c.SceneGeneration == nil {
		return
	}
	c.SceneGeneration.Set(float64(gen))
}

// SetDroppedBands replaces the dropped-band gauges. Keys are containment names.
func (c *ChartCollector) SetDroppedBands(counts map[string]int) {
	if c == nil || c.DroppedBands == nil {
		return
	}
	c.DroppedBands.Reset()
	for containment, n := range counts {
		c.DroppedBands.WithLabelValues(containment).Set(float64(n))
	}
}

// SubscriberAdded and SubscriberRemoved track open event streams.
func (c *ChartCollector) SubscriberAdded() {
	if c == nil || c.EventSubscribers == nil {
		return
	}
	c.EventSubscribers.Inc()
}

func (c *ChartCollector) SubscriberRemoved() {
	if c == nil || c.EventSubscribers == nil {
		return
	}
	c.EventSubscribers.Dec()
}

// Gatherer returns the gatherer associated with the collector.
func (c *ChartCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ChartCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Flush keeps streaming handlers working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// register adds col to reg, returning the already-registered collector of
// the same type when one exists under name.
func register[C prometheus.Collector](reg prometheus.Registerer, col C, name string) (C, error) {
	if err := reg.Register(col); err != nil {
		var zero C
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return zero, err
	}
	return col, nil
}
