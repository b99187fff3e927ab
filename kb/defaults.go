package kb

import "github.com/signalsfoundry/bandchart/model"

// Sensor names of the built-in catalog.
const (
	SensorLandsat9  = "Landsat 9"
	SensorSentinel2 = "Sentinel-2"
)

func landsat9(code string, lo, hi float64, res, color, desc string) model.Band {
	return model.Band{Sensor: SensorLandsat9, Code: code, Range: model.Range{Low: lo, High: hi}, Resolution: res, Color: color, Description: desc}
}

func sentinel2(code string, lo, hi float64, res, color, desc string) model.Band {
	return model.Band{Sensor: SensorSentinel2, Code: code, Range: model.Range{Low: lo, High: hi}, Resolution: res, Color: color, Description: desc}
}

// DefaultBands is the compiled-in Landsat 9 OLI/TIRS and Sentinel-2 MSI band
// table.
func DefaultBands() []model.Band {
	return []model.Band{
		landsat9("B1", 0.43, 0.45, "30 m", "lightblue", "Coastal aerosol"),
		landsat9("B2", 0.45, 0.51, "30 m", "blue", "Blue"),
		landsat9("B3", 0.53, 0.59, "30 m", "green", "Green"),
		landsat9("B4", 0.64, 0.67, "30 m", "red", "Red"),
		landsat9("B5", 0.85, 0.88, "30 m", "lightgreen", "NIR"),
		landsat9("B6", 1.57, 1.65, "30 m", "orange", "SWIR 1"),
		landsat9("B7", 2.11, 2.29, "30 m", "brown", "SWIR 2"),
		landsat9("B8", 0.50, 0.68, "15 m", "purple", "Panchromatic"),
		landsat9("B9", 1.36, 1.38, "30 m", "navy", "Cirrus"),
		landsat9("B10", 10.6, 11.2, "100 m", "crimson", "TIRS 1"),
		landsat9("B11", 11.5, 12.5, "100 m", "crimson", "TIRS 2"),

		sentinel2("B1", 0.433, 0.453, "60 m", "lightblue", "Coastal aerosol"),
		sentinel2("B2", 0.458, 0.523, "10 m", "blue", "Blue"),
		sentinel2("B3", 0.543, 0.578, "10 m", "green", "Green"),
		sentinel2("B4", 0.650, 0.680, "10 m", "red", "Red"),
		sentinel2("B5", 0.698, 0.713, "20 m", "lightgreen", "Red edge 1"),
		sentinel2("B6", 0.733, 0.748, "20 m", "yellow", "Red edge 2"),
		sentinel2("B7", 0.773, 0.793, "20 m", "orange", "Red edge 3"),
		sentinel2("B8", 0.785, 0.900, "10 m", "purple", "NIR"),
		sentinel2("B8A", 0.855, 0.875, "20 m", "forestgreen", "NIR narrow"),
		sentinel2("B9", 0.935, 0.955, "60 m", "navy", "Water vapour"),
		sentinel2("B10", 1.365, 1.385, "60 m", "navy", "Cirrus"),
		sentinel2("B11", 1.565, 1.655, "20 m", "brown", "SWIR 1"),
		sentinel2("B12", 2.100, 2.280, "20 m", "saddlebrown", "SWIR 2"),
	}
}

// DefaultCatalog builds a catalog from DefaultBands. The table is a compiled-in
// constant, so a failure here is a programming error.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultBands()...)
	if err != nil {
		panic(err)
	}
	return c
}
