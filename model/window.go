package model

import "fmt"

// Window is a contiguous wavelength range chosen for display. Windows produced
// by the partitioner are pairwise disjoint and sorted by Lo.
type Window struct {
	Index int
	Title string
	Range
}

// Label returns the title with the range appended, e.g.
// "Visible to SWIR (0.4-2.5 μm)". Untitled windows return just the range.
func (w Window) Label() string {
	if w.Title == "" {
		return w.Range.String()
	}
	return fmt.Sprintf("%s (%s)", w.Title, w.Range)
}

// Containment describes how a band relates to the display windows.
type Containment int

const (
	// Contained means the band lies fully inside exactly one window.
	Contained Containment = iota
	// Straddling means the band overlaps a window but crosses one of its edges.
	Straddling
	// Gapped means the band lies entirely inside an excluded gap.
	Gapped
	// OutsideDomain means the band is not covered by the transmission curve.
	OutsideDomain
)

func (c Containment) String() string {
	switch c {
	case Contained:
		return "contained"
	case Straddling:
		return "straddling"
	case Gapped:
		return "gapped"
	case OutsideDomain:
		return "outside_domain"
	default:
		return "unknown"
	}
}

// Placement records where a band ended up after partitioning. WindowIndex is
// -1 unless the band is Contained.
type Placement struct {
	Band        Band
	Containment Containment
	WindowIndex int
}
