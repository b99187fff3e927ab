package core

import (
	"reflect"
	"strings"
	"testing"

	"github.com/signalsfoundry/bandchart/kb"
	"github.com/signalsfoundry/bandchart/model"
)

func TestComposeIsIdempotent(t *testing.T) {
	a := defaultAssignment(t)
	for _, sel := range []model.Selection{model.SelectAll(), {Sensor: kb.SensorLandsat9}} {
		first := Compose(a, sel)
		second := Compose(a, sel)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("Compose(%s) not idempotent", sel)
		}
	}
}

func TestComposeSingleSensorExcludesOthers(t *testing.T) {
	a := defaultAssignment(t)
	scene := Compose(a, model.Selection{Sensor: kb.SensorSentinel2})

	keys := scene.BandKeys()
	if len(keys) != 13 {
		t.Fatalf("Sentinel-2 scene has %d bands, want 13", len(keys))
	}
	for _, k := range keys {
		if k.Sensor == kb.SensorLandsat9 {
			t.Fatalf("Landsat 9 band %s present in Sentinel-2 scene", k.Code)
		}
	}
	if scene.Title != "Sentinel-2 Bands vs Atmospheric Transmission" {
		t.Fatalf("title = %q", scene.Title)
	}
	if len(scene.Panels[1].Bands) != 0 {
		t.Fatalf("Sentinel-2 has no thermal bands, got %d", len(scene.Panels[1].Bands))
	}
}

func TestComposeAllIsUnionWithoutDuplicates(t *testing.T) {
	a := defaultAssignment(t)
	scene := Compose(a, model.SelectAll())

	seen := make(map[model.BandKey]bool)
	for _, k := range scene.BandKeys() {
		if seen[k] {
			t.Fatalf("duplicate band %v", k)
		}
		seen[k] = true
	}
	if len(seen) != kb.DefaultCatalog().Len() {
		t.Fatalf("scene has %d bands, want %d", len(seen), kb.DefaultCatalog().Len())
	}
	if scene.Title != DefaultAllTitle {
		t.Fatalf("title = %q", scene.Title)
	}
	if len(scene.Legend) != len(seen) {
		t.Fatalf("legend has %d entries, want %d", len(scene.Legend), len(seen))
	}
	if scene.Legend[0].Label != "Landsat 9 B1 (30 m)" {
		t.Fatalf("legend[0] = %q", scene.Legend[0].Label)
	}
}

func TestComposeBandRectsInCatalogOrderWithTooltips(t *testing.T) {
	a := defaultAssignment(t)
	scene := Compose(a, model.Selection{Sensor: kb.SensorLandsat9})

	visible := scene.Panels[0]
	wantCodes := []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B9"}
	if len(visible.Bands) != len(wantCodes) {
		t.Fatalf("visible bands = %d, want %d", len(visible.Bands), len(wantCodes))
	}
	for i, rect := range visible.Bands {
		if rect.Tooltip.Band != wantCodes[i] {
			t.Fatalf("band %d = %s, want %s", i, rect.Tooltip.Band, wantCodes[i])
		}
		if rect.Y0 != TransmissionMin || rect.Y1 != TransmissionMax {
			t.Fatalf("rect %s spans %v-%v, want full axis", rect.Label, rect.Y0, rect.Y1)
		}
	}
	pan := visible.Bands[7]
	if pan.X0 != 0.50 || pan.X1 != 0.68 || pan.Tooltip.Resolution != "15 m" || pan.Tooltip.Description != "Panchromatic" {
		t.Fatalf("unexpected panchromatic rect: %+v", pan)
	}
	if pan.Label != "B8 (15 m)" {
		t.Fatalf("single-sensor label = %q, want %q", pan.Label, "B8 (15 m)")
	}
}

func TestComposeFillClosedToBaseline(t *testing.T) {
	a := defaultAssignment(t)
	scene := Compose(a, model.SelectAll())

	fill := scene.Panels[1].Fill
	if len(fill) != 6+2 {
		t.Fatalf("thermal fill has %d points, want 8", len(fill))
	}
	if fill[0] != (model.Point{X: 10, Y: 0}) || fill[len(fill)-1] != (model.Point{X: 12.5, Y: 0}) {
		t.Fatalf("fill not closed to baseline: first=%v last=%v", fill[0], fill[len(fill)-1])
	}
	if fill[1] != (model.Point{X: 10, Y: 50}) {
		t.Fatalf("fill[1] = %v, want (10, 50)", fill[1])
	}
}

func TestComposeBoundaryMarkersAndAnnotation(t *testing.T) {
	a := defaultAssignment(t)
	scene := Compose(a, model.SelectAll())

	left := scene.Panels[0].Markers
	if len(left) != 1 || left[0].X != 2.5 || left[0].Side != model.MarkerRight {
		t.Fatalf("visible panel markers = %+v", left)
	}
	right := scene.Panels[1].Markers
	if len(right) != 1 || right[0].X != 10 || right[0].Side != model.MarkerLeft {
		t.Fatalf("thermal panel markers = %+v", right)
	}
	if scene.Annotation != "Wavelength continuity (2.5-10 μm not shown)" {
		t.Fatalf("annotation = %q", scene.Annotation)
	}
}

func TestComposeEmptyWindowCarriesWarning(t *testing.T) {
	layout := Layout{
		Domain: model.Range{Low: 0.4, High: 12.5},
		Gaps:   []model.Range{{Low: 2.5, High: 5}, {Low: 6, High: 10}},
	}
	a, err := layout.Build(kb.DefaultCatalog().All(), DefaultCurve())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	scene := Compose(a, model.SelectAll())
	if len(scene.Panels) != 3 {
		t.Fatalf("panels = %d, want 3", len(scene.Panels))
	}
	middle := scene.Panels[1]
	if middle.Warning == "" || !strings.Contains(middle.Warning, "no transmission samples") {
		t.Fatalf("middle panel warning = %q", middle.Warning)
	}
	if len(middle.Fill) != 0 {
		t.Fatalf("empty window has fill %v", middle.Fill)
	}
	if len(middle.Markers) != 2 {
		t.Fatalf("middle panel should have markers on both edges, got %+v", middle.Markers)
	}
	if !strings.Contains(scene.Annotation, "2.5-5 μm, 6-10 μm") {
		t.Fatalf("annotation = %q", scene.Annotation)
	}
}

func TestComposeOptions(t *testing.T) {
	a := defaultAssignment(t)
	scene := Compose(a, model.SelectAll(), WithAllTitle("Bands"), WithAxisTitles("λ", "T"))
	if scene.Title != "Bands" || scene.XAxisTitle != "λ" || scene.YAxisTitle != "T" {
		t.Fatalf("options not applied: %+v", scene)
	}
}
