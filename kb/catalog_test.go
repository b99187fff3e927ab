package kb

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/signalsfoundry/bandchart/model"
)

func TestDefaultCatalogBandsArePositiveAndNonDegenerate(t *testing.T) {
	c := DefaultCatalog()
	if got := c.Len(); got != 24 {
		t.Fatalf("Len() = %d, want 24", got)
	}
	for _, b := range c.All() {
		if b.Range.Low <= 0 || b.Range.High <= 0 {
			t.Fatalf("band %s has non-positive range", b)
		}
		if !(b.Range.Low < b.Range.High) {
			t.Fatalf("band %s has degenerate range", b)
		}
	}
}

func TestSensorsKeepRegistrationOrder(t *testing.T) {
	got := DefaultCatalog().Sensors()
	if len(got) != 2 || got[0] != SensorLandsat9 || got[1] != SensorSentinel2 {
		t.Fatalf("Sensors() = %v, want [%s %s]", got, SensorLandsat9, SensorSentinel2)
	}
}

func TestBandsForSingleSensor(t *testing.T) {
	c := DefaultCatalog()
	bands, err := c.BandsFor(model.Selection{Sensor: SensorSentinel2})
	if err != nil {
		t.Fatalf("BandsFor error: %v", err)
	}
	if len(bands) != 13 {
		t.Fatalf("len(bands) = %d, want 13", len(bands))
	}
	for _, b := range bands {
		if b.Sensor != SensorSentinel2 {
			t.Fatalf("unexpected sensor %q in Sentinel-2 selection", b.Sensor)
		}
	}
	if bands[0].Code != "B1" || bands[8].Code != "B8A" {
		t.Fatalf("catalog order not preserved: first=%s ninth=%s", bands[0].Code, bands[8].Code)
	}
}

func TestBandsForAllIsUnionWithoutDuplicates(t *testing.T) {
	c := DefaultCatalog()
	all, err := c.BandsFor(model.SelectAll())
	if err != nil {
		t.Fatalf("BandsFor(all) error: %v", err)
	}
	seen := make(map[model.BandKey]bool)
	for _, b := range all {
		if seen[b.Key()] {
			t.Fatalf("duplicate band %v", b.Key())
		}
		seen[b.Key()] = true
	}
	if len(all) != c.Len() {
		t.Fatalf("len(all) = %d, want %d", len(all), c.Len())
	}
}

func TestBandsForUnknownSensor(t *testing.T) {
	c := DefaultCatalog()
	_, err := c.BandsFor(model.Selection{Sensor: "MODIS"})
	if !errors.Is(err, ErrUnknownSensor) {
		t.Fatalf("BandsFor(MODIS) err = %v, want ErrUnknownSensor", err)
	}
	if err := c.Validate(model.Selection{Sensor: "MODIS"}); !errors.Is(err, ErrUnknownSensor) {
		t.Fatalf("Validate(MODIS) err = %v, want ErrUnknownSensor", err)
	}
	if err := c.Validate(model.SelectAll()); err != nil {
		t.Fatalf("Validate(all) err = %v", err)
	}
}

func TestBandsForReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	bands, _ := c.BandsFor(model.Selection{Sensor: SensorLandsat9})
	bands[0].Code = "mutated"
	if b, ok := c.Lookup(SensorLandsat9, "B1"); !ok || b.Code != "B1" {
		t.Fatalf("catalog mutated through BandsFor result: %+v", b)
	}
}

func TestNewCatalogRejectsMalformedBands(t *testing.T) {
	valid := model.Band{Sensor: "S", Code: "B1", Range: model.Range{Low: 0.4, High: 0.5}}

	cases := []struct {
		name string
		band model.Band
	}{
		{"empty sensor", model.Band{Code: "B1", Range: valid.Range}},
		{"empty code", model.Band{Sensor: "S", Range: valid.Range}},
		{"zero low", model.Band{Sensor: "S", Code: "B1", Range: model.Range{Low: 0, High: 0.5}}},
		{"negative high", model.Band{Sensor: "S", Code: "B1", Range: model.Range{Low: 0.4, High: -1}}},
		{"degenerate", model.Band{Sensor: "S", Code: "B1", Range: model.Range{Low: 0.5, High: 0.5}}},
		{"inverted", model.Band{Sensor: "S", Code: "B1", Range: model.Range{Low: 0.6, High: 0.5}}},
		{"nan", model.Band{Sensor: "S", Code: "B1", Range: model.Range{Low: math.NaN(), High: 0.5}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(valid, tc.band)
			if !errors.Is(err, ErrInvalidBandDefinition) {
				t.Fatalf("NewCatalog err = %v, want ErrInvalidBandDefinition", err)
			}
		})
	}
}

func TestNewCatalogRejectsDuplicateKey(t *testing.T) {
	b := model.Band{Sensor: "S", Code: "B1", Range: model.Range{Low: 0.4, High: 0.5}}
	_, err := NewCatalog(b, b)
	if !errors.Is(err, ErrInvalidBandDefinition) {
		t.Fatalf("duplicate band err = %v, want ErrInvalidBandDefinition", err)
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("error %q does not mention duplicate", err)
	}
}
