package core

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/bandchart/model"
)

var (
	// ErrInvalidWindow indicates a malformed domain or gap definition.
	ErrInvalidWindow = errors.New("invalid window")
	// ErrEmptyWindow indicates a window holds no transmission samples. It is
	// rendered as a warning panel, never as a failure.
	ErrEmptyWindow = errors.New("window contains no transmission samples")
)

func validRange(r model.Range) bool {
	if math.IsNaN(r.Low) || math.IsNaN(r.High) || math.IsInf(r.Low, 0) || math.IsInf(r.High, 0) {
		return false
	}
	return r.Low > 0 && r.Low < r.High
}

// NormalizeGaps clips gaps to domain, drops the ones that miss it and merges
// overlapping or touching gaps. The result is sorted by Low.
func NormalizeGaps(domain model.Range, gaps ...model.Range) ([]model.Range, error) {
	if !validRange(domain) {
		return nil, fmt.Errorf("%w: domain %v", ErrInvalidWindow, domain)
	}

	clipped := make([]model.Range, 0, len(gaps))
	for _, g := range gaps {
		if !validRange(g) {
			return nil, fmt.Errorf("%w: gap %v", ErrInvalidWindow, g)
		}
		if g.High <= domain.Low || g.Low >= domain.High {
			continue
		}
		clipped = append(clipped, model.Range{
			Low:  math.Max(g.Low, domain.Low),
			High: math.Min(g.High, domain.High),
		})
	}
	sort.Slice(clipped, func(i, j int) bool { return clipped[i].Low < clipped[j].Low })

	var merged []model.Range
	for _, g := range clipped {
		if n := len(merged); n > 0 && g.Low <= merged[n-1].High {
			merged[n-1].High = math.Max(merged[n-1].High, g.High)
			continue
		}
		merged = append(merged, g)
	}
	return merged, nil
}

// Partition splits domain into the maximal sub-ranges left over once the gaps
// are excluded, in ascending order. Gaps are open intervals: their end points
// stay with the neighbouring windows, so a gap (2.5, 10) over [0.4, 12.5]
// yields [0.4, 2.5] and [10, 12.5]. Zero-width leftovers are discarded.
func Partition(domain model.Range, gaps ...model.Range) ([]model.Window, error) {
	merged, err := NormalizeGaps(domain, gaps...)
	if err != nil {
		return nil, err
	}

	var windows []model.Window
	add := func(lo, hi float64) {
		if hi > lo {
			windows = append(windows, model.Window{
				Index: len(windows),
				Range: model.Range{Low: lo, High: hi},
			})
		}
	}

	cursor := domain.Low
	for _, g := range merged {
		add(cursor, g.Low)
		cursor = math.Max(cursor, g.High)
	}
	add(cursor, domain.High)
	return windows, nil
}

// ApplyTitles returns a copy of windows with titles assigned by position.
// Windows beyond len(titles) keep an empty title.
func ApplyTitles(windows []model.Window, titles []string) []model.Window {
	out := append([]model.Window(nil), windows...)
	for i := range out {
		if i < len(titles) {
			out[i].Title = titles[i]
		}
	}
	return out
}

// WindowAssignment holds what belongs to one window.
type WindowAssignment struct {
	Window  model.Window
	Bands   []model.Band               // catalog order
	Samples []model.TransmissionSample // ascending wavelength
}

// Err reports ErrEmptyWindow when the window has no transmission samples.
func (wa WindowAssignment) Err() error {
	if len(wa.Samples) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyWindow, wa.Window.Label())
	}
	return nil
}

// Assignment is the selection-independent result of partitioning the catalog
// and curve. It is computed once and reused for every composition.
type Assignment struct {
	Windows    []WindowAssignment
	Gaps       []model.Range
	Placements []model.Placement // one per input band, input order
}

// Assign places every band and sample into the windows.
//
// A band belongs to a window only when its range is fully inside it, bounds
// inclusive. Bands that cross a window edge are tagged Straddling and bands
// that miss every window are tagged Gapped; neither is clipped or drawn. Bands
// not covered by the curve's sample domain are tagged OutsideDomain. A sample
// goes to the single window containing its wavelength, if any.
func Assign(windows []model.Window, gaps []model.Range, bands []model.Band, curve *Curve) *Assignment {
	a := &Assignment{
		Windows:    make([]WindowAssignment, len(windows)),
		Gaps:       append([]model.Range(nil), gaps...),
		Placements: make([]model.Placement, 0, len(bands)),
	}
	for i, w := range windows {
		a.Windows[i] = WindowAssignment{Window: w}
	}

	var domain model.Range
	if curve != nil && curve.Len() > 0 {
		domain = curve.Domain()
	}

	for _, b := range bands {
		a.Placements = append(a.Placements, place(b, windows, domain))
		if p := a.Placements[len(a.Placements)-1]; p.Containment == model.Contained {
			a.Windows[p.WindowIndex].Bands = append(a.Windows[p.WindowIndex].Bands, b)
		}
	}

	if curve != nil {
		for _, s := range curve.samples {
			for i := range a.Windows {
				if a.Windows[i].Window.Contains(s.Wavelength) {
					a.Windows[i].Samples = append(a.Windows[i].Samples, s)
					break
				}
			}
		}
	}
	return a
}

func place(b model.Band, windows []model.Window, domain model.Range) model.Placement {
	p := model.Placement{Band: b, WindowIndex: -1}
	if !domain.ContainsRange(b.Range) {
		p.Containment = model.OutsideDomain
		return p
	}
	for i, w := range windows {
		if w.ContainsRange(b.Range) {
			p.Containment = model.Contained
			p.WindowIndex = i
			return p
		}
	}
	p.Containment = model.Gapped
	for _, w := range windows {
		if w.Overlaps(b.Range) {
			p.Containment = model.Straddling
			break
		}
	}
	return p
}

// Dropped returns the placements of bands that appear in no window.
func (a *Assignment) Dropped() []model.Placement {
	var out []model.Placement
	for _, p := range a.Placements {
		if p.Containment != model.Contained {
			out = append(out, p)
		}
	}
	return out
}

// DroppedCounts tallies dropped bands by containment.
func (a *Assignment) DroppedCounts() map[model.Containment]int {
	out := map[model.Containment]int{
		model.Straddling:    0,
		model.Gapped:        0,
		model.OutsideDomain: 0,
	}
	for _, p := range a.Dropped() {
		out[p.Containment]++
	}
	return out
}

// Placement returns where the band with the given key was placed.
func (a *Assignment) Placement(key model.BandKey) (model.Placement, bool) {
	for _, p := range a.Placements {
		if p.Band.Key() == key {
			return p, true
		}
	}
	return model.Placement{}, false
}

// WindowsContaining returns the indexes of every window whose band set holds
// key. A well-formed assignment returns at most one index.
func (a *Assignment) WindowsContaining(key model.BandKey) []int {
	var out []int
	for i, wa := range a.Windows {
		for _, b := range wa.Bands {
			if b.Key() == key {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// WindowsOverlapping returns the indexes of every window that shares at least
// one wavelength with r, contained or not.
func (a *Assignment) WindowsOverlapping(r model.Range) []int {
	var out []int
	for i, wa := range a.Windows {
		if wa.Window.Overlaps(r) {
			out = append(out, i)
		}
	}
	return out
}
