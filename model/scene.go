package model

// Point is a chart coordinate: X in micrometres, Y in percent.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tooltip is the hover payload attached to a band rectangle.
type Tooltip struct {
	Sensor      string  `json:"sensor"`
	Band        string  `json:"band"`
	Low         float64 `json:"low"`
	High        float64 `json:"high"`
	Resolution  string  `json:"resolution"`
	Description string  `json:"description"`
}

// BandRect is the rectangle drawn for one band inside a panel.
type BandRect struct {
	Key     BandKey `json:"-"`
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	X0      float64 `json:"x0"`
	X1      float64 `json:"x1"`
	Y0      float64 `json:"y0"`
	Y1      float64 `json:"y1"`
	Tooltip Tooltip `json:"tooltip"`
}

// MarkerSide tells which edge of a panel a boundary marker sits on.
type MarkerSide string

const (
	MarkerLeft  MarkerSide = "left"
	MarkerRight MarkerSide = "right"
)

// BoundaryMarker is a vertical line drawn at a window edge that adjoins an
// excluded gap.
type BoundaryMarker struct {
	X    float64    `json:"x"`
	Side MarkerSide `json:"side"`
}

// Panel is one window of the chart.
type Panel struct {
	Window  Window           `json:"-"`
	Title   string           `json:"title"`
	XMin    float64          `json:"x_min"`
	XMax    float64          `json:"x_max"`
	Fill    []Point          `json:"fill"`
	Bands   []BandRect       `json:"bands"`
	Markers []BoundaryMarker `json:"markers"`
	Warning string           `json:"warning,omitempty"`
}

// LegendEntry is one row of the chart legend.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Scene is the fully composed chart for one selection. A Scene is never
// mutated after it has been published; a new selection produces a new Scene.
type Scene struct {
	Generation uint64        `json:"generation"`
	Selection  string        `json:"selection"`
	Title      string        `json:"title"`
	XAxisTitle string        `json:"x_axis_title"`
	YAxisTitle string        `json:"y_axis_title"`
	YMin       float64       `json:"y_min"`
	YMax       float64       `json:"y_max"`
	Panels     []Panel       `json:"panels"`
	Legend     []LegendEntry `json:"legend"`
	Annotation string        `json:"annotation,omitempty"`
}

// BandKeys returns the keys of every band rectangle in the scene, in panel
// order.
func (s *Scene) BandKeys() []BandKey {
	if s == nil {
		return nil
	}
	var out []BandKey
	for _, p := range s.Panels {
		for _, b := range p.Bands {
			out = append(out, b.Key)
		}
	}
	return out
}
