// Package host serves the live band chart page and its JSON, event and
// static image endpoints.
package host

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/signalsfoundry/bandchart/internal/logging"
	"github.com/signalsfoundry/bandchart/internal/observability"
	"github.com/signalsfoundry/bandchart/internal/render"
	"github.com/signalsfoundry/bandchart/model"
)

//go:embed page.html
var pageFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageFS, "page.html"))

// SceneController is the part of the filter controller the host drives.
type SceneController interface {
	Scene() *model.Scene
	Select(ctx context.Context, raw string) (*model.Scene, error)
	Sensors() []string
	Subscribe(fn func(*model.Scene)) (unsubscribe func())
}

// Option configures a Server.
type Option func(*Server)

// WithCollector instruments every route with the given collector.
func WithCollector(c *observability.ChartCollector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithExporter sets the renderer behind /chart.png and /chart.svg.
func WithExporter(e *render.Exporter) Option {
	return func(s *Server) {
		if e != nil {
			s.exporter = e
		}
	}
}

// WithKeepAlive sets how often idle event streams receive a comment line.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepAlive = d
		}
	}
}

// WithShutdownTimeout bounds the graceful shutdown Start performs when its
// context ends.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// Server is the presentation host. Every scene the controller publishes is
// pushed to open event streams; the page redraws from it.
type Server struct {
	addr            string
	ctrl            SceneController
	exporter        *render.Exporter
	log             logging.Logger
	metrics         *observability.ChartCollector
	keepAlive       time.Duration
	shutdownTimeout time.Duration

	srv     *http.Server
	ready   chan struct{}
	bound   net.Addr
	closing chan struct{}
	once    sync.Once
}

// NewServer builds a Server listening on addr once started.
func NewServer(addr string, ctrl SceneController, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		addr:            addr,
		ctrl:            ctrl,
		exporter:        render.NewExporter(0, 0),
		log:             log,
		keepAlive:       15 * time.Second,
		shutdownTimeout: 5 * time.Second,
		ready:           make(chan struct{}),
		closing:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed, instrumented handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /{$}", "/", http.HandlerFunc(s.handlePage))
	s.route(mux, "GET /api/scene", "/api/scene", http.HandlerFunc(s.handleScene))
	s.route(mux, "GET /api/selection", "/api/selection", http.HandlerFunc(s.handleGetSelection))
	s.route(mux, "POST /api/selection", "/api/selection", http.HandlerFunc(s.handlePostSelection))
	s.route(mux, "GET /api/events", "/api/events", http.HandlerFunc(s.handleEvents))
	s.route(mux, "GET /chart.png", "/chart.png", s.handleChart(render.FormatPNG))
	s.route(mux, "GET /chart.svg", "/chart.svg", s.handleChart(render.FormatSVG))
	s.route(mux, "GET /healthz", "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	}))
	return withRequestID(mux)
}

func (s *Server) route(mux *http.ServeMux, pattern, route string, h http.Handler) {
	mux.Handle(pattern, withTracing(route, s.metrics.Instrument(route, withAccessLog(s.log, route, h))))
}

// Start listens on the configured address and serves until ctx is done or
// the server is shut down. A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.bound = lis.Addr()
	close(s.ready)
	s.log.Info(ctx, "serving band chart", logging.String("addr", lis.Addr().String()))

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.log.Warn(shutdownCtx, "page server shutdown failed", logging.Err(err))
		}
	})
	defer stop()

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready is closed once Start has bound its listener.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address, or nil before Start has listened.
func (s *Server) Addr() net.Addr {
	select {
	case <-s.ready:
		return s.bound
	default:
		return nil
	}
}

// Shutdown ends open event streams and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.closing) })
	return s.srv.Shutdown(ctx)
}

type pageData struct {
	Title    string
	Sensors  []string
	Selected string
	All      string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	scene := s.ctrl.Scene()
	data := pageData{
		Title:    "Satellite Band Comparison",
		Sensors:  s.ctrl.Sensors(),
		Selected: model.AllSensors,
		All:      model.AllSensors,
	}
	if scene != nil {
		data.Title = scene.Title
		data.Selected = scene.Selection
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	scene := s.ctrl.Scene()
	if scene == nil {
		s.fail(w, r, render.ErrNoScene)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

type selectionBody struct {
	Selection  string   `json:"selection"`
	Sensors    []string `json:"sensors,omitempty"`
	Generation uint64   `json:"generation,omitempty"`
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	body := selectionBody{Selection: model.AllSensors, Sensors: s.ctrl.Sensors()}
	if scene := s.ctrl.Scene(); scene != nil {
		body.Selection = scene.Selection
		body.Generation = scene.Generation
	}
	writeJSON(w, http.StatusOK, body)
}

// handlePostSelection accepts {"selection": "..."} or a form field of the
// same name and answers with the new scene.
func (s *Server) handlePostSelection(w http.ResponseWriter, r *http.Request) {
	raw, err := readSelection(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	scene, err := s.ctrl.Select(r.Context(), raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

func readSelection(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body selectionBody
		if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return body.Selection, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return r.Form.Get("selection"), nil
}

func (s *Server) handleChart(format render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := s.exporter.Render(&buf, s.ctrl.Scene(), format); err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	}
}

// handleEvents streams every published scene as a server-sent event. The
// current scene is sent first; superseded scenes may be skipped, but each
// event carries a complete scene.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, r, errors.New("streaming unsupported"))
		return
	}

	notify := make(chan struct{}, 1)
	unsubscribe := s.ctrl.Subscribe(func(*model.Scene) {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()
	s.metrics.SubscriberAdded()
	defer s.metrics.SubscriberRemoved()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var last uint64
	send := func() bool {
		scene := s.ctrl.Scene()
		if scene == nil || (last != 0 && scene.Generation <= last) {
			return true
		}
		if err := writeEvent(w, scene); err != nil {
			s.log.Debug(r.Context(), "event stream closed", logging.Err(err))
			return false
		}
		last = scene.Generation
		flusher.Flush()
		return true
	}
	if !send() {
		return
	}

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case <-notify:
			if !send() {
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, scene *model.Scene) error {
	data, err := json.Marshal(scene)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: scene\nid: %d\ndata: %s\n\n", scene.Generation, data)
	return err
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := toHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", logging.String("path", r.URL.Path), logging.Err(err))
	} else {
		s.log.Info(r.Context(), "request rejected", logging.String("path", r.URL.Path), logging.Err(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error(), RequestID: logging.RequestIDFromContext(r.Context())})
}
