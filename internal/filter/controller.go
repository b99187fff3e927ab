// Package filter owns the active sensor selection and the cached scene.
package filter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/bandchart/core"
	"github.com/signalsfoundry/bandchart/internal/logging"
	"github.com/signalsfoundry/bandchart/internal/observability"
	"github.com/signalsfoundry/bandchart/kb"
	"github.com/signalsfoundry/bandchart/model"
)

// State is the controller's composition state.
type State int32

const (
	// Idle means the cached scene is current.
	Idle State = iota
	// Rebuilding means a composition is in flight.
	Rebuilding
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// MetricsRecorder receives composition metrics. *observability.ChartCollector
// satisfies it.
type MetricsRecorder interface {
	ObserveComposition(selection string, elapsed time.Duration, err error)
	SetSceneBands(panel string, bands int)
	SetGeneration(gen uint64)
}

// RejectedSelection is the metrics label recorded for every selection the
// catalog does not know.
const RejectedSelection = "unknown"

type nopRecorder struct{}

func (nopRecorder) ObserveComposition(string, time.Duration, error) {}
func (nopRecorder) SetSceneBands(string, int)                       {}
func (nopRecorder) SetGeneration(uint64)                            {}

// Option configures a Controller.
type Option func(*Controller)

// WithMetricsRecorder sets where composition metrics go.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithComposeOptions forwards options to every core.Compose call.
func WithComposeOptions(opts ...core.ComposeOption) Option {
	return func(c *Controller) {
		c.composeOpts = append(c.composeOpts, opts...)
	}
}

// WithInitialSelection sets the selection composed at construction.
// Defaults to all sensors.
func WithInitialSelection(raw string) Option {
	return func(c *Controller) {
		c.initial = raw
	}
}

// Controller serializes scene compositions and publishes each finished
// scene atomically. Readers only ever see complete scenes.
type Controller struct {
	catalog     *kb.Catalog
	assignment  *core.Assignment
	log         logging.Logger
	metrics     MetricsRecorder
	composeOpts []core.ComposeOption
	initial     string

	// mu admits one composition at a time; gen is guarded by it.
	mu  sync.Mutex
	gen uint64

	// notifyMu keeps subscriber delivery in generation order.
	notifyMu sync.Mutex

	state atomic.Int32
	scene atomic.Pointer[model.Scene]

	subMu   sync.Mutex
	subs    map[uint64]func(*model.Scene)
	nextSub uint64
}

// NewController composes the initial scene from the cached assignment. The
// assignment is selection-independent and is reused for every later Select.
func NewController(catalog *kb.Catalog, assignment *core.Assignment, log logging.Logger, opts ...Option) (*Controller, error) {
	if log == nil {
		log = logging.Noop()
	}
	c := &Controller{
		catalog:    catalog,
		assignment: assignment,
		log:        log,
		metrics:    nopRecorder{},
		initial:    model.AllSensors,
		subs:       make(map[uint64]func(*model.Scene)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logDropped(context.Background())

	if _, err := c.Select(context.Background(), c.initial); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) logDropped(ctx context.Context) {
	if c.assignment == nil {
		return
	}
	for _, p := range c.assignment.Dropped() {
		fields := []logging.Field{
			logging.String("sensor", p.Band.Sensor),
			logging.String("band", p.Band.Code),
			logging.String("range", p.Band.Range.String()),
			logging.String("containment", p.Containment.String()),
		}
		if p.Containment == model.Straddling {
			fields = append(fields, logging.Any("windows", c.assignment.WindowsOverlapping(p.Band.Range)))
		}
		c.log.Warn(ctx, "band omitted from every window", fields...)
	}
}

// Select replaces the selection and publishes the recomposed scene. An
// unknown sensor returns kb.ErrUnknownSensor and leaves the scene unchanged.
func (c *Controller) Select(ctx context.Context, raw string) (*model.Scene, error) {
	sel := model.ParseSelection(raw)
	ctx, span := observability.StartSpan(ctx, "filter.Select",
		attribute.String("selection", sel.String()),
	)
	defer span.End()

	if err := c.catalog.Validate(sel); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.ObserveComposition(RejectedSelection, 0, err)
		c.log.Warn(ctx, "selection rejected", logging.String("selection", sel.String()), logging.Err(err))
		return nil, err
	}

	c.mu.Lock()
	c.state.Store(int32(Rebuilding))
	start := time.Now()

	scene := core.Compose(c.assignment, sel, c.composeOpts...)
	c.gen++
	scene.Generation = c.gen
	c.scene.Store(scene)

	elapsed := time.Since(start)
	c.state.Store(int32(Idle))
	c.notifyMu.Lock()
	c.mu.Unlock()

	c.metrics.ObserveComposition(sel.String(), elapsed, nil)
	c.metrics.SetGeneration(scene.Generation)
	for _, p := range scene.Panels {
		c.metrics.SetSceneBands(p.Title, len(p.Bands))
	}
	span.SetAttributes(
		attribute.Int64("scene.generation", int64(scene.Generation)),
		attribute.Int("scene.bands", len(scene.BandKeys())),
	)
	c.log.Debug(ctx, "scene composed",
		logging.String("selection", sel.String()),
		logging.Uint64("generation", scene.Generation),
		logging.Int("bands", len(scene.BandKeys())),
		logging.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000),
	)

	c.notify(scene)
	c.notifyMu.Unlock()
	return scene, nil
}

// Scene returns the last published scene. Callers must not modify it.
func (c *Controller) Scene() *model.Scene {
	return c.scene.Load()
}

// Selection returns the selection of the published scene.
func (c *Controller) Selection() model.Selection {
	if s := c.scene.Load(); s != nil {
		return model.ParseSelection(s.Selection)
	}
	return model.SelectAll()
}

// State reports whether a composition is in flight.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Sensors lists the selectable sensors in catalog order.
func (c *Controller) Sensors() []string {
	return c.catalog.Sensors()
}

// Subscribe registers fn to receive every published scene, in generation
// order. fn runs on the publishing goroutine and must not call Select.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(*model.Scene)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) notify(scene *model.Scene) {
	c.subMu.Lock()
	fns := make([]func(*model.Scene), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(scene)
	}
}
