package kb

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/bandchart/model"
)

// internal YAML shapes; unexported so the file format can evolve freely.
type catalogYAML struct {
	Sensors []sensorYAML `yaml:"sensors"`
}

type sensorYAML struct {
	Name  string     `yaml:"name"`
	Bands []bandYAML `yaml:"bands"`
}

type bandYAML struct {
	Code        string    `yaml:"code"`
	Range       []float64 `yaml:"range"` // [low, high] in μm
	Resolution  string    `yaml:"resolution"`
	Color       string    `yaml:"color"`
	Description string    `yaml:"description"`
}

// LoadCatalog decodes a YAML catalog from r:
//
//	sensors:
//	  - name: Landsat 9
//	    bands:
//	      - code: B2
//	        range: [0.45, 0.51]
//	        resolution: 30 m
//	        color: blue
//	        description: Blue
//
// Every band is validated exactly as NewCatalog does; any malformed entry
// fails the whole load with ErrInvalidBandDefinition.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var payload catalogYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadCatalog: decode failed: %w", err)
	}
	if len(payload.Sensors) == 0 {
		return nil, fmt.Errorf("LoadCatalog: %w: no sensors defined", ErrInvalidBandDefinition)
	}

	var bands []model.Band
	for _, s := range payload.Sensors {
		if len(s.Bands) == 0 {
			return nil, fmt.Errorf("LoadCatalog: %w: sensor %q has no bands", ErrInvalidBandDefinition, s.Name)
		}
		for _, b := range s.Bands {
			if len(b.Range) != 2 {
				return nil, fmt.Errorf("LoadCatalog: %w: %s %s range needs exactly two values, got %d",
					ErrInvalidBandDefinition, s.Name, b.Code, len(b.Range))
			}
			bands = append(bands, model.Band{
				Sensor:      s.Name,
				Code:        b.Code,
				Range:       model.Range{Low: b.Range[0], High: b.Range[1]},
				Resolution:  b.Resolution,
				Color:       b.Color,
				Description: b.Description,
			})
		}
	}

	c, err := NewCatalog(bands...)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: %w", err)
	}
	return c, nil
}
