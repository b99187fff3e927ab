package kb

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/bandchart/model"
)

var (
	// ErrInvalidBandDefinition indicates a malformed catalog entry. It is fatal
	// at load time: corrupt catalog data never reaches the composer.
	ErrInvalidBandDefinition = errors.New("invalid band definition")
	// ErrUnknownSensor indicates a selection names a sensor absent from the
	// catalog.
	ErrUnknownSensor = errors.New("unknown sensor")
)

// Catalog is a registry of sensor bands, grouped by sensor. Sensor and band
// order follow registration order. A Catalog is never modified after
// NewCatalog returns, so it is safe for concurrent readers without locking.
type Catalog struct {
	sensors []string
	bands   map[string][]model.Band
	index   map[model.BandKey]int
}

// NewCatalog validates and registers the given bands. The first malformed
// entry aborts construction.
func NewCatalog(bands ...model.Band) (*Catalog, error) {
	c := &Catalog{
		bands: make(map[string][]model.Band),
		index: make(map[model.BandKey]int),
	}
	for _, b := range bands {
		if err := c.add(b); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ValidateBand checks a single band definition.
func ValidateBand(b model.Band) error {
	if strings.TrimSpace(b.Sensor) == "" {
		return fmt.Errorf("%w: sensor name is required", ErrInvalidBandDefinition)
	}
	if strings.TrimSpace(b.Code) == "" {
		return fmt.Errorf("%w: %s band code is required", ErrInvalidBandDefinition, b.Sensor)
	}
	lo, hi := b.Range.Low, b.Range.High
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return fmt.Errorf("%w: %s %s range is not finite", ErrInvalidBandDefinition, b.Sensor, b.Code)
	}
	if lo <= 0 || hi <= 0 {
		return fmt.Errorf("%w: %s %s range %v must be positive", ErrInvalidBandDefinition, b.Sensor, b.Code, b.Range)
	}
	if lo >= hi {
		return fmt.Errorf("%w: %s %s range %v is empty or inverted", ErrInvalidBandDefinition, b.Sensor, b.Code, b.Range)
	}
	return nil
}

func (c *Catalog) add(b model.Band) error {
	if err := ValidateBand(b); err != nil {
		return err
	}
	key := b.Key()
	if _, exists := c.index[key]; exists {
		return fmt.Errorf("%w: duplicate band %s %s", ErrInvalidBandDefinition, key.Sensor, key.Code)
	}
	if _, known := c.bands[b.Sensor]; !known {
		c.sensors = append(c.sensors, b.Sensor)
	}
	c.index[key] = len(c.bands[b.Sensor])
	c.bands[b.Sensor] = append(c.bands[b.Sensor], b)
	return nil
}

// Sensors returns the sensor names in registration order.
func (c *Catalog) Sensors() []string {
	return append([]string(nil), c.sensors...)
}

// HasSensor reports whether name is a registered sensor.
func (c *Catalog) HasSensor(name string) bool {
	_, ok := c.bands[name]
	return ok
}

// Len returns the total number of bands.
func (c *Catalog) Len() int {
	return len(c.index)
}

// Lookup returns the band with the given identity.
func (c *Catalog) Lookup(sensor, code string) (model.Band, bool) {
	i, ok := c.index[model.BandKey{Sensor: sensor, Code: code}]
	if !ok {
		return model.Band{}, false
	}
	return c.bands[sensor][i], true
}

// BandsFor returns the bands matching sel in catalog order. The returned slice
// is a copy and may be modified by the caller.
func (c *Catalog) BandsFor(sel model.Selection) ([]model.Band, error) {
	if sel.IsAll() {
		out := make([]model.Band, 0, len(c.index))
		for _, s := range c.sensors {
			out = append(out, c.bands[s]...)
		}
		return out, nil
	}

	bands, ok := c.bands[sel.Sensor]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSensor, sel.Sensor)
	}
	return append([]model.Band(nil), bands...), nil
}

// All is shorthand for BandsFor(model.SelectAll()).
func (c *Catalog) All() []model.Band {
	out, _ := c.BandsFor(model.SelectAll())
	return out
}

// Validate checks that sel names a known sensor or "all".
func (c *Catalog) Validate(sel model.Selection) error {
	if sel.IsAll() || c.HasSensor(sel.Sensor) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownSensor, sel.Sensor)
}
