package model

// TransmissionSample is one point of the atmospheric transmission curve.
// Transmission is a percentage in [0, 100].
type TransmissionSample struct {
	Wavelength   float64
	Transmission float64
}
