package kb

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogPopulatesBands(t *testing.T) {
	doc := `
sensors:
  - name: MODIS
    bands:
      - code: "1"
        range: [0.620, 0.670]
        resolution: 250 m
        color: red
        description: Land/cloud boundaries
      - code: "31"
        range: [10.780, 11.280]
        resolution: 1 km
        color: crimson
        description: Surface temperature
  - name: Landsat 9
    bands:
      - code: B2
        range: [0.45, 0.51]
        resolution: 30 m
        color: blue
        description: Blue
`
	c, err := LoadCatalog(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"MODIS", "Landsat 9"}, c.Sensors())
	assert.Equal(t, 3, c.Len())

	b, ok := c.Lookup("MODIS", "31")
	require.True(t, ok)
	assert.Equal(t, 10.78, b.Range.Low)
	assert.Equal(t, 11.28, b.Range.High)
	assert.Equal(t, "1 km", b.Resolution)
	assert.Equal(t, "Surface temperature", b.Description)
}

func TestLoadCatalogFailsFastOnMalformedBand(t *testing.T) {
	doc := `
sensors:
  - name: Broken
    bands:
      - code: B1
        range: [0.5, 0.4]
`
	_, err := LoadCatalog(strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBandDefinition), "err = %v", err)
}

func TestLoadCatalogRejectsBadRangeArity(t *testing.T) {
	doc := `
sensors:
  - name: Broken
    bands:
      - code: B1
        range: [0.5]
`
	_, err := LoadCatalog(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrInvalidBandDefinition)
}

func TestLoadCatalogRejectsEmptyDocument(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("sensors: []\n"))
	assert.ErrorIs(t, err, ErrInvalidBandDefinition)
}

func TestLoadCatalogRejectsUnknownFields(t *testing.T) {
	doc := `
sensors:
  - name: S
    wavelength_unit: nm
    bands:
      - code: B1
        range: [0.4, 0.5]
`
	_, err := LoadCatalog(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode failed")
}
