package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/signalsfoundry/bandchart/core"
	"github.com/signalsfoundry/bandchart/internal/filter"
	"github.com/signalsfoundry/bandchart/internal/logging"
	"github.com/signalsfoundry/bandchart/kb"
)

// loadCatalog returns the built-in catalog, or the YAML catalog at path.
func loadCatalog(path string) (*kb.Catalog, error) {
	if path == "" {
		return kb.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return kb.LoadCatalog(f)
}

// pipeline is the selection-independent part of a chart: the catalog and
// the cached window assignment built from it.
type pipeline struct {
	catalog    *kb.Catalog
	assignment *core.Assignment
}

func (a *app) buildPipeline(ctx context.Context) (*pipeline, error) {
	catalog, err := loadCatalog(a.cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	assignment, err := a.cfg.CoreLayout().Build(catalog.All(), core.DefaultCurve())
	if err != nil {
		return nil, fmt.Errorf("build layout: %w", err)
	}
	a.log.Debug(ctx, "pipeline ready",
		logging.Int("bands", catalog.Len()),
		logging.Int("windows", len(assignment.Windows)),
		logging.Int("dropped", len(assignment.Dropped())),
	)
	return &pipeline{catalog: catalog, assignment: assignment}, nil
}

func (p *pipeline) controller(log logging.Logger, opts ...filter.Option) (*filter.Controller, error) {
	return filter.NewController(p.catalog, p.assignment, log, opts...)
}

// droppedByContainment keys the assignment's dropped counts by name.
func (p *pipeline) droppedByContainment() map[string]int {
	out := make(map[string]int)
	for c, n := range p.assignment.DroppedCounts() {
		out[c.String()] = n
	}
	return out
}
