package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/bandchart/kb"
)

// isolate keeps stray bandchart.yaml files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

// executeCommand runs a fresh command tree with args and returns stdout and
// stderr separately.
func executeCommand(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	isolate(t)
	return runCommand(ctx, args...)
}

func runCommand(ctx context.Context, args ...string) (string, string, error) {
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "bandchart", root.Use)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "export", "bands"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestBandsTable(t *testing.T) {
	out, _, err := executeCommand(t, context.Background(), "bands")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 25, "header plus 24 bands")
	assert.True(t, strings.HasPrefix(lines[0], "SENSOR"))
	assert.Contains(t, out, "Thermal Infrared (10-12.5 μm)")
	assert.Contains(t, out, "B8A")
}

func TestBandsJSONForSensor(t *testing.T) {
	out, _, err := executeCommand(t, context.Background(), "bands", "--sensor", "Landsat 9", "--json")
	require.NoError(t, err)

	var rows []bandRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 11)
	for _, r := range rows {
		assert.Equal(t, kb.SensorLandsat9, r.Sensor)
		assert.Equal(t, "contained", r.Placement)
	}
	assert.Equal(t, "Thermal Infrared (10-12.5 μm)", rows[9].Window)
}

func TestBandsUnknownSensor(t *testing.T) {
	_, _, err := executeCommand(t, context.Background(), "bands", "--sensor", "MODIS")
	assert.True(t, errors.Is(err, kb.ErrUnknownSensor), "got %v", err)
}

func TestBandsFromYAMLCatalog(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`
sensors:
  - name: MODIS
    bands:
      - code: "1"
        range: [0.62, 0.67]
        resolution: "250 m"
        color: red
        description: Land/cloud boundaries
      - code: "20"
        range: [3.66, 3.84]
        resolution: "1 km"
        color: orange
        description: Surface temperature
`), 0o644))

	out, _, err := executeCommand(t, context.Background(), "bands", "--catalog", catalog, "--json")
	require.NoError(t, err)

	var rows []bandRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "contained", rows[0].Placement)
	assert.Equal(t, "gapped", rows[1].Placement)
	assert.Empty(t, rows[1].Window)
}

func TestExportSVGToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.svg")
	_, stderr, err := executeCommand(t, context.Background(),
		"export", "--format", "svg", "--output", path, "--selection", "Sentinel-2", "--log-format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	svg := string(data)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "Sentinel-2 Bands vs Atmospheric Transmission")
	assert.Contains(t, stderr, `"msg":"chart exported"`)
}

func TestExportPNGToStdout(t *testing.T) {
	out, _, err := executeCommand(t, context.Background(),
		"export", "-o", "-", "--width", "800", "--height", "400")
	require.NoError(t, err)

	img, err := png.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestExportRejectsBadFormat(t *testing.T) {
	_, _, err := executeCommand(t, context.Background(), "export", "--format", "gif", "-o", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.format")
}

func TestInvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))

	_, _, err := executeCommand(t, context.Background(), "bands", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestServeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	isolate(t)
	done := make(chan error, 1)
	go func() {
		_, _, err := runCommand(ctx, "serve", "--addr", "127.0.0.1:0", "--metrics-addr", "127.0.0.1:0")
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop after its context ended")
	}
}
