package core

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/bandchart/model"
)

const (
	DefaultAllTitle   = "Satellite Band Comparison with Atmospheric Transmission"
	DefaultXAxisTitle = "Wavelength (μm)"
	DefaultYAxisTitle = "Atmospheric Transmission (%)"

	// Rectangles and fills span the full transmission axis.
	TransmissionMin = 0.0
	TransmissionMax = 100.0
)

// ComposeOptions tunes scene text. The zero value uses the defaults above.
type ComposeOptions struct {
	AllTitle   string
	XAxisTitle string
	YAxisTitle string
}

// ComposeOption customises a composition.
type ComposeOption func(*ComposeOptions)

// WithAllTitle overrides the chart title used when every sensor is selected.
func WithAllTitle(title string) ComposeOption {
	return func(o *ComposeOptions) { o.AllTitle = title }
}

// WithAxisTitles overrides the axis titles.
func WithAxisTitles(x, y string) ComposeOption {
	return func(o *ComposeOptions) {
		o.XAxisTitle = x
		o.YAxisTitle = y
	}
}

func resolveOptions(opts []ComposeOption) ComposeOptions {
	o := ComposeOptions{
		AllTitle:   DefaultAllTitle,
		XAxisTitle: DefaultXAxisTitle,
		YAxisTitle: DefaultYAxisTitle,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Compose builds the scene for sel from a cached assignment. It has no side
// effects: equal inputs give equal scenes. The Generation field is left zero
// for the caller to stamp.
//
// Within a panel the transmission fill comes first, then band rectangles in
// catalog order, so later bands are drawn over earlier ones where they
// overlap. Empty windows still produce a panel, with Warning set.
func Compose(a *Assignment, sel model.Selection, opts ...ComposeOption) *model.Scene {
	o := resolveOptions(opts)

	scene := &model.Scene{
		Selection:  sel.String(),
		Title:      sceneTitle(sel, o),
		XAxisTitle: o.XAxisTitle,
		YAxisTitle: o.YAxisTitle,
		YMin:       TransmissionMin,
		YMax:       TransmissionMax,
	}
	if a == nil {
		return scene
	}

	scene.Panels = make([]model.Panel, 0, len(a.Windows))
	for _, wa := range a.Windows {
		panel := model.Panel{
			Window: wa.Window,
			Title:  wa.Window.Label(),
			XMin:   wa.Window.Low,
			XMax:   wa.Window.High,
			Fill:   fillPolygon(wa.Samples),
			Bands:  []model.BandRect{},
		}
		if err := wa.Err(); err != nil {
			panel.Warning = err.Error()
		}
		for _, b := range wa.Bands {
			if !sel.Matches(b) {
				continue
			}
			rect := bandRect(b, sel)
			panel.Bands = append(panel.Bands, rect)
			scene.Legend = append(scene.Legend, model.LegendEntry{Label: rect.Label, Color: rect.Color})
		}
		scene.Panels = append(scene.Panels, panel)
	}

	for i := range scene.Panels {
		scene.Panels[i].Markers = boundaryMarkers(scene.Panels[i].Window, a.Gaps)
	}
	scene.Annotation = GapAnnotation(a.Gaps)
	return scene
}

func sceneTitle(sel model.Selection, o ComposeOptions) string {
	if sel.IsAll() {
		return o.AllTitle
	}
	return fmt.Sprintf("%s Bands vs Atmospheric Transmission", sel.Sensor)
}

// fillPolygon closes the sampled curve down to the 0% baseline.
func fillPolygon(samples []model.TransmissionSample) []model.Point {
	if len(samples) == 0 {
		return nil
	}
	pts := make([]model.Point, 0, len(samples)+2)
	pts = append(pts, model.Point{X: samples[0].Wavelength, Y: TransmissionMin})
	for _, s := range samples {
		pts = append(pts, model.Point{X: s.Wavelength, Y: s.Transmission})
	}
	pts = append(pts, model.Point{X: samples[len(samples)-1].Wavelength, Y: TransmissionMin})
	return pts
}

// LegendLabel names a band the way the legend shows it: the sensor prefix is
// dropped when a single sensor is selected.
func LegendLabel(b model.Band, sel model.Selection) string {
	if sel.IsAll() {
		return fmt.Sprintf("%s %s (%s)", b.Sensor, b.Code, b.Resolution)
	}
	return fmt.Sprintf("%s (%s)", b.Code, b.Resolution)
}

func bandRect(b model.Band, sel model.Selection) model.BandRect {
	return model.BandRect{
		Key:   b.Key(),
		Label: LegendLabel(b, sel),
		Color: b.Color,
		X0:    b.Range.Low,
		X1:    b.Range.High,
		Y0:    TransmissionMin,
		Y1:    TransmissionMax,
		Tooltip: model.Tooltip{
			Sensor:      b.Sensor,
			Band:        b.Code,
			Low:         b.Range.Low,
			High:        b.Range.High,
			Resolution:  b.Resolution,
			Description: b.Description,
		},
	}
}

func boundaryMarkers(w model.Window, gaps []model.Range) []model.BoundaryMarker {
	markers := []model.BoundaryMarker{}
	for _, g := range gaps {
		if g.High == w.Low {
			markers = append(markers, model.BoundaryMarker{X: w.Low, Side: model.MarkerLeft})
		}
	}
	for _, g := range gaps {
		if g.Low == w.High {
			markers = append(markers, model.BoundaryMarker{X: w.High, Side: model.MarkerRight})
		}
	}
	return markers
}

// GapAnnotation returns the single note explaining which wavelengths are
// intentionally left out, or "" when nothing is excluded.
func GapAnnotation(gaps []model.Range) string {
	if len(gaps) == 0 {
		return ""
	}
	parts := make([]string, len(gaps))
	for i, g := range gaps {
		parts[i] = g.String()
	}
	return fmt.Sprintf("Wavelength continuity (%s not shown)", strings.Join(parts, ", "))
}
