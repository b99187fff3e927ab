// Package render turns a composed scene into a static PNG or SVG chart.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/signalsfoundry/bandchart/model"
)

var (
	// ErrUnsupportedFormat is returned for formats other than png and svg.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrNoScene is returned when there is nothing to render.
	ErrNoScene = errors.New("no scene to render")
)

// Format is a static export format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

const (
	DefaultWidth  = 1400
	DefaultHeight = 600

	headerHeight   = 36
	minPanelHeight = 100
	lineHeight     = 16
	swatchSize     = 10
	charWidth      = 7 // basicfont.Face7x13 advance
)

var (
	transmissionFill   = drawing.Color{R: 176, G: 196, B: 222, A: 160} // lightsteelblue
	transmissionStroke = drawing.Color{R: 70, G: 130, B: 180, A: 255}  // steelblue
	markerColor        = drawing.Color{R: 105, G: 105, B: 105, A: 255}
	fallbackBandColor  = drawing.Color{R: 128, G: 128, B: 128, A: 255}
)

// Exporter renders scenes at a fixed canvas width. Panels share the width
// equally and are laid out left to right. The canvas grows below Height when
// the legend footer would otherwise squeeze panels under minPanelHeight.
type Exporter struct {
	Width  int
	Height int
}

// NewExporter returns an Exporter, substituting defaults for non-positive
// dimensions.
func NewExporter(width, height int) *Exporter {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Exporter{Width: width, Height: height}
}

// Render writes scene to w in the given format.
func (e *Exporter) Render(w io.Writer, scene *model.Scene, format Format) error {
	if scene == nil {
		return ErrNoScene
	}
	switch format {
	case FormatPNG:
		return e.renderPNG(w, scene)
	case FormatSVG:
		return e.renderSVG(w, scene)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

type frame struct {
	height      int
	panelWidth  int
	panelHeight int
	footerTop   int
	legend      []legendItem
}

type legendItem struct {
	X, Y  int
	Label string
	Color drawing.Color
}

func (e *Exporter) frame(scene *model.Scene) frame {
	legend, rows := layoutLegend(scene.Legend, e.Width)
	footer := lineHeight + rows*lineHeight + 8
	f := frame{
		height:      e.Height,
		panelHeight: e.Height - headerHeight - footer,
	}
	if f.panelHeight < minPanelHeight {
		f.panelHeight = minPanelHeight
		f.height = headerHeight + minPanelHeight + footer
	}
	f.footerTop = headerHeight + f.panelHeight
	if n := len(scene.Panels); n > 0 {
		f.panelWidth = e.Width / n
	}
	for i := range legend {
		legend[i].Y += f.footerTop + lineHeight
	}
	f.legend = legend
	return f
}

// layoutLegend flows legend entries into rows across width and returns the
// items with row-relative Y offsets.
func layoutLegend(entries []model.LegendEntry, width int) ([]legendItem, int) {
	if len(entries) == 0 {
		return nil, 0
	}
	const margin = 12
	items := make([]legendItem, 0, len(entries))
	x, row := margin, 0
	for _, le := range entries {
		w := swatchSize + 4 + len(le.Label)*charWidth + 14
		if x+w > width-margin && x > margin {
			x = margin
			row++
		}
		items = append(items, legendItem{X: x, Y: row * lineHeight, Label: le.Label, Color: resolveColor(le.Color)})
		x += w
	}
	return items, row + 1
}

func panelChart(scene *model.Scene, p model.Panel, first bool, width, height int) chart.Chart {
	series := []chart.Series{
		// baseline keeps every panel renderable, including empty ones
		chart.ContinuousSeries{
			XValues: []float64{p.XMin, p.XMax},
			YValues: []float64{scene.YMin, scene.YMin},
			Style:   chart.Style{StrokeColor: markerColor, StrokeWidth: 1},
		},
	}
	if len(p.Fill) > 0 {
		xs := make([]float64, len(p.Fill))
		ys := make([]float64, len(p.Fill))
		for i, pt := range p.Fill {
			xs[i], ys[i] = pt.X, pt.Y
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "Atmospheric Transmission",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: transmissionStroke,
				StrokeWidth: 1.5,
				FillColor:   transmissionFill,
			},
		})
	}
	for _, b := range p.Bands {
		c := resolveColor(b.Color)
		series = append(series, chart.ContinuousSeries{
			Name:    b.Label,
			XValues: []float64{b.X0, b.X0, b.X1, b.X1},
			YValues: []float64{b.Y0, b.Y1, b.Y1, b.Y0},
			Style: chart.Style{
				StrokeColor: c,
				StrokeWidth: 1,
				FillColor:   drawing.Color{R: c.R, G: c.G, B: c.B, A: 110},
			},
		})
	}
	for _, m := range p.Markers {
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{m.X, m.X},
			YValues: []float64{scene.YMin, scene.YMax},
			Style: chart.Style{
				StrokeColor:     markerColor,
				StrokeWidth:     2,
				StrokeDashArray: []float64{6, 4},
			},
		})
	}
	if p.Warning != "" {
		series = append(series, chart.AnnotationSeries{
			Annotations: []chart.Value2{{
				XValue: (p.XMin + p.XMax) / 2,
				YValue: (scene.YMin + scene.YMax) / 2,
				Label:  p.Warning,
			}},
		})
	}

	yAxis := chart.YAxis{
		Range: &chart.ContinuousRange{Min: scene.YMin, Max: scene.YMax},
		Ticks: linearTicks(scene.YMin, scene.YMax, 20),
	}
	if first {
		yAxis.Name = scene.YAxisTitle
	}

	return chart.Chart{
		Title:  p.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 28, Left: 16, Right: 16, Bottom: 12},
		},
		XAxis: chart.XAxis{
			Name:  scene.XAxisTitle,
			Range: &chart.ContinuousRange{Min: p.XMin, Max: p.XMax},
			Ticks: linearTicks(p.XMin, p.XMax, niceStep(p.XMax-p.XMin)),
		},
		YAxis:  yAxis,
		Series: series,
	}
}

// niceStep picks a tick spacing giving at most eight intervals.
func niceStep(span float64) float64 {
	for _, step := range []float64{0.1, 0.2, 0.25, 0.5, 1, 2, 5, 10, 20, 50} {
		if span/step <= 8 {
			return step
		}
	}
	return span / 8
}

// linearTicks places ticks at multiples of step inside [lo, hi] and always
// includes both ends.
func linearTicks(lo, hi, step float64) []chart.Tick {
	ticks := []chart.Tick{{Value: lo, Label: formatTick(lo)}}
	for v := math.Ceil(lo/step) * step; v < hi-step/4; v += step {
		if v-lo < step/4 {
			continue
		}
		v = math.Round(v*1000) / 1000
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
	}
	return append(ticks, chart.Tick{Value: hi, Label: formatTick(hi)})
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// resolveColor maps a CSS colour name or #rrggbb string to a drawing colour.
func resolveColor(name string) drawing.Color {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "#") {
		hex := name[1:]
		if len(hex) == 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return drawing.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
			}
		}
		return fallbackBandColor
	}
	if c, ok := colornames.Map[strings.ToLower(name)]; ok {
		return drawing.Color{R: c.R, G: c.G, B: c.B, A: 255}
	}
	return fallbackBandColor
}

func (e *Exporter) renderPNG(w io.Writer, scene *model.Scene) error {
	f := e.frame(scene)
	canvas := image.NewRGBA(image.Rect(0, 0, e.Width, f.height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i, p := range scene.Panels {
		ch := panelChart(scene, p, i == 0, f.panelWidth, f.panelHeight)
		var buf bytes.Buffer
		if err := ch.Render(chart.PNG, &buf); err != nil {
			return fmt.Errorf("render panel %q: %w", p.Title, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("decode panel %q: %w", p.Title, err)
		}
		origin := image.Pt(i*f.panelWidth, headerHeight)
		draw.Draw(canvas, image.Rectangle{Min: origin, Max: origin.Add(img.Bounds().Size())}, img, img.Bounds().Min, draw.Over)
	}

	black := image.NewUniform(color.Black)
	drawText(canvas, centeredX(scene.Title, e.Width), 24, scene.Title, black)
	if scene.Annotation != "" {
		drawText(canvas, centeredX(scene.Annotation, e.Width), f.footerTop+12, scene.Annotation, black)
	}
	for _, it := range f.legend {
		sw := image.Rect(it.X, it.Y-swatchSize+1, it.X+swatchSize, it.Y+1)
		draw.Draw(canvas, sw, image.NewUniform(it.Color), image.Point{}, draw.Src)
		drawText(canvas, it.X+swatchSize+4, it.Y, it.Label, black)
	}

	return png.Encode(w, canvas)
}

func centeredX(text string, width int) int {
	x := (width - len([]rune(text))*charWidth) / 2
	if x < 4 {
		return 4
	}
	return x
}

func drawText(dst draw.Image, x, y int, text string, src image.Image) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func (e *Exporter) renderSVG(w io.Writer, scene *model.Scene) error {
	f := e.frame(scene)
	var out bytes.Buffer

	fmt.Fprintf(&out, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		e.Width, f.height, e.Width, f.height)
	out.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")
	fmt.Fprintf(&out, `<text x="%d" y="24" text-anchor="middle" font-family="sans-serif" font-size="16">%s</text>`+"\n",
		e.Width/2, html.EscapeString(scene.Title))

	for i, p := range scene.Panels {
		ch := panelChart(scene, p, i == 0, f.panelWidth, f.panelHeight)
		var buf bytes.Buffer
		if err := ch.Render(chart.SVG, &buf); err != nil {
			return fmt.Errorf("render panel %q: %w", p.Title, err)
		}
		fmt.Fprintf(&out, `<g class="panel" transform="translate(%d,%d)">`+"\n", i*f.panelWidth, headerHeight)
		out.Write(stripXMLHeader(buf.Bytes()))
		out.WriteString("\n</g>\n")
	}

	if scene.Annotation != "" {
		fmt.Fprintf(&out, `<text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" font-size="12" font-style="italic">%s</text>`+"\n",
			e.Width/2, f.footerTop+12, html.EscapeString(scene.Annotation))
	}
	for _, it := range f.legend {
		fmt.Fprintf(&out, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
			it.X, it.Y-swatchSize+1, swatchSize, swatchSize, hexColor(it.Color))
		fmt.Fprintf(&out, `<text x="%d" y="%d" font-family="sans-serif" font-size="11">%s</text>`+"\n",
			it.X+swatchSize+4, it.Y, html.EscapeString(it.Label))
	}
	out.WriteString("</svg>\n")

	_, err := w.Write(out.Bytes())
	return err
}

func stripXMLHeader(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if bytes.HasPrefix(b, []byte("<?xml")) {
		if i := bytes.Index(b, []byte("?>")); i >= 0 {
			b = bytes.TrimSpace(b[i+2:])
		}
	}
	return b
}

func hexColor(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
