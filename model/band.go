package model

import "fmt"

// Range is a closed wavelength interval in micrometres.
type Range struct {
	Low  float64
	High float64
}

// Width returns High-Low.
func (r Range) Width() float64 { return r.High - r.Low }

// Contains reports whether w lies within [Low, High].
func (r Range) Contains(w float64) bool {
	return w >= r.Low && w <= r.High
}

// ContainsRange reports whether o is fully inside r. Bounds are inclusive, so
// a range that touches an edge is still contained.
func (r Range) ContainsRange(o Range) bool {
	return o.Low >= r.Low && o.High <= r.High
}

// Overlaps reports whether the two closed ranges share at least one point.
func (r Range) Overlaps(o Range) bool {
	return o.Low <= r.High && o.High >= r.Low
}

func (r Range) String() string {
	return fmt.Sprintf("%g-%g μm", r.Low, r.High)
}

// Band is one spectral channel of a sensor. Bands are built once when the
// catalog is loaded and never mutated afterwards.
type Band struct {
	Sensor      string
	Code        string
	Range       Range
	Resolution  string // display only, e.g. "30 m"
	Color       string // CSS colour name or #rrggbb
	Description string
}

// BandKey identifies a band inside a catalog.
type BandKey struct {
	Sensor string
	Code   string
}

// Key returns the (sensor, code) identity of the band.
func (b Band) Key() BandKey {
	return BandKey{Sensor: b.Sensor, Code: b.Code}
}

func (b Band) String() string {
	return fmt.Sprintf("%s %s (%s)", b.Sensor, b.Code, b.Range)
}
