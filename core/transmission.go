package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/bandchart/model"
)

// ErrInvalidCurve indicates a malformed transmission table.
var ErrInvalidCurve = errors.New("invalid transmission curve")

// Curve is an illustrative atmospheric transmission curve: an ordered list of
// samples, strictly increasing in wavelength. It is not a fitted atmospheric
// model and carries no accuracy guarantee.
type Curve struct {
	samples []model.TransmissionSample
}

// NewCurve validates and copies samples.
func NewCurve(samples []model.TransmissionSample) (*Curve, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidCurve)
	}
	for i, s := range samples {
		if math.IsNaN(s.Wavelength) || s.Wavelength <= 0 {
			return nil, fmt.Errorf("%w: sample %d wavelength %v must be positive", ErrInvalidCurve, i, s.Wavelength)
		}
		if math.IsNaN(s.Transmission) || s.Transmission < 0 || s.Transmission > 100 {
			return nil, fmt.Errorf("%w: sample %d transmission %v outside [0,100]", ErrInvalidCurve, i, s.Transmission)
		}
		if i > 0 && s.Wavelength <= samples[i-1].Wavelength {
			return nil, fmt.Errorf("%w: sample %d wavelength %v not above %v", ErrInvalidCurve, i, s.Wavelength, samples[i-1].Wavelength)
		}
	}
	return &Curve{samples: append([]model.TransmissionSample(nil), samples...)}, nil
}

// Samples returns a copy of every sample.
func (c *Curve) Samples() []model.TransmissionSample {
	return append([]model.TransmissionSample(nil), c.samples...)
}

// Len returns the number of samples.
func (c *Curve) Len() int { return len(c.samples) }

// Domain returns the wavelength span covered by the samples.
func (c *Curve) Domain() model.Range {
	return model.Range{Low: c.samples[0].Wavelength, High: c.samples[len(c.samples)-1].Wavelength}
}

// SamplesIn returns the samples whose wavelength lies in [w.Lo, w.Hi],
// inclusive, in ascending order.
//
// No interpolation is done. When a window edge falls between two samples the
// result stops at the last enclosed sample, so the drawn fill may end short of
// the window edge.
func (c *Curve) SamplesIn(w model.Window) []model.TransmissionSample {
	var out []model.TransmissionSample
	for _, s := range c.samples {
		if w.Contains(s.Wavelength) {
			out = append(out, s)
		}
	}
	return out
}

var defaultWavelengths = []float64{
	0.4, 0.45, 0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0,
	1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9, 2.0, 2.1, 2.2, 2.3, 2.4, 2.5,
	10.0, 10.5, 11.0, 11.5, 12.0, 12.5,
}

var defaultTransmission = []float64{
	75, 80, 85, 88, 90, 88, 85, 80, 75, 70, 65, 60, 55,
	50, 45, 40, 35, 30, 25, 20, 15, 10, 15, 20, 25, 30, 35, 40,
	50, 55, 60, 65, 70, 75,
}

// DefaultSamples is the compiled-in transmission table.
func DefaultSamples() []model.TransmissionSample {
	out := make([]model.TransmissionSample, len(defaultWavelengths))
	for i, w := range defaultWavelengths {
		out[i] = model.TransmissionSample{Wavelength: w, Transmission: defaultTransmission[i]}
	}
	return out
}

// DefaultCurve builds a Curve from DefaultSamples.
func DefaultCurve() *Curve {
	c, err := NewCurve(DefaultSamples())
	if err != nil {
		panic(err)
	}
	return c
}
