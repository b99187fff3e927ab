package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/bandchart/internal/filter"
	"github.com/signalsfoundry/bandchart/internal/host"
	"github.com/signalsfoundry/bandchart/internal/logging"
	"github.com/signalsfoundry/bandchart/internal/observability"
	"github.com/signalsfoundry/bandchart/internal/render"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live, filterable band chart",
		Long: `Start the local page server. The page offers one sensor selector; every
selection change recomposes the chart and is pushed to open pages.

Prometheus metrics are served separately on --metrics-addr unless disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "listen address of the page server (default 127.0.0.1:8050)")
	f.String("metrics-addr", "", "listen address of the Prometheus endpoint (default 127.0.0.1:9090)")
	f.Bool("metrics", true, "serve Prometheus metrics")
	f.String("selection", "", "initial sensor selection (default all)")
	_ = a.v.BindPFlag("server.addr", f.Lookup("addr"))
	_ = a.v.BindPFlag("metrics.addr", f.Lookup("metrics-addr"))
	_ = a.v.BindPFlag("metrics.enabled", f.Lookup("metrics"))
	_ = a.v.BindPFlag("server.initial_selection", f.Lookup("selection"))
	return cmd
}

func (a *app) runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	log := a.log

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.WithoutCancel(ctx), shutdownTracing, log)

	collector, err := observability.NewChartCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	p, err := a.buildPipeline(ctx)
	if err != nil {
		return err
	}
	collector.SetDroppedBands(p.droppedByContainment())

	ctrl, err := p.controller(log,
		filter.WithMetricsRecorder(collector),
		filter.WithInitialSelection(cfg.Server.InitialSelection),
	)
	if err != nil {
		return err
	}

	srv := host.NewServer(cfg.Server.Addr, ctrl, log,
		host.WithCollector(collector),
		host.WithExporter(render.NewExporter(cfg.Export.Width, cfg.Export.Height)),
		host.WithShutdownTimeout(time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Metrics.Addr, collector, log)
		})
	}

	err = g.Wait()
	log.Info(context.WithoutCancel(ctx), "band chart stopped")
	return err
}

// serveMetrics exposes /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, collector *observability.ChartCollector, log logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics %s: %w", addr, err)
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	log.Info(ctx, "serving Prometheus metrics", logging.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
