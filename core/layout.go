package core

import "github.com/signalsfoundry/bandchart/model"

// Layout describes how the wavelength domain is cut into display windows.
type Layout struct {
	Domain model.Range
	Gaps   []model.Range
	Titles []string // by window position
}

// DefaultLayout shows 0.4–2.5 μm and 10–12.5 μm side by side and leaves out
// the mid-infrared between them.
func DefaultLayout() Layout {
	return Layout{
		Domain: model.Range{Low: 0.4, High: 12.5},
		Gaps:   []model.Range{{Low: 2.5, High: 10}},
		Titles: []string{"Visible to SWIR", "Thermal Infrared"},
	}
}

// Windows partitions the layout's domain and applies its titles.
func (l Layout) Windows() ([]model.Window, []model.Range, error) {
	gaps, err := NormalizeGaps(l.Domain, l.Gaps...)
	if err != nil {
		return nil, nil, err
	}
	windows, err := Partition(l.Domain, gaps...)
	if err != nil {
		return nil, nil, err
	}
	return ApplyTitles(windows, l.Titles), gaps, nil
}

// Build partitions the layout and assigns bands and curve samples to it.
func (l Layout) Build(bands []model.Band, curve *Curve) (*Assignment, error) {
	windows, gaps, err := l.Windows()
	if err != nil {
		return nil, err
	}
	return Assign(windows, gaps, bands, curve), nil
}
