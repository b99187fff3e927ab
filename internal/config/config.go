package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/bandchart/core"
	"github.com/signalsfoundry/bandchart/model"
)

// EnvPrefix is prepended to environment overrides, e.g. BANDCHART_SERVER_ADDR.
const EnvPrefix = "BANDCHART"

// Config is the complete bandchart configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Layout  LayoutConfig  `mapstructure:"layout"`
	Export  ExportConfig  `mapstructure:"export"`
}

// ServerConfig controls the live page server.
type ServerConfig struct {
	// Addr is the listen address of the interactive page (default: 127.0.0.1:8050)
	Addr string `mapstructure:"addr"`
	// ShutdownTimeoutSeconds bounds graceful shutdown
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
	// InitialSelection is the sensor filter shown when the page first loads
	InitialSelection string `mapstructure:"initial_selection"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format is text or json
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"` // stdout | otlp
	Endpoint    string  `mapstructure:"endpoint"` // used when exporter is otlp
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// CatalogConfig selects the band catalog source.
type CatalogConfig struct {
	// Path to a YAML catalog; empty uses the compiled-in Landsat 9 / Sentinel-2 table
	Path string `mapstructure:"path"`
}

// GapConfig is one excluded wavelength range in μm.
type GapConfig struct {
	Low  float64 `mapstructure:"low"`
	High float64 `mapstructure:"high"`
}

// LayoutConfig describes the display windows.
type LayoutConfig struct {
	DomainLow  float64     `mapstructure:"domain_low"`
	DomainHigh float64     `mapstructure:"domain_high"`
	Gaps       []GapConfig `mapstructure:"gaps"`
	// Titles are applied to windows by position
	Titles []string `mapstructure:"titles"`
}

// ExportConfig controls static chart export.
type ExportConfig struct {
	// Format is png or svg
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	Selection string `mapstructure:"selection"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	layout := core.DefaultLayout()
	gaps := make([]GapConfig, len(layout.Gaps))
	for i, g := range layout.Gaps {
		gaps[i] = GapConfig{Low: g.Low, High: g.High}
	}
	return &Config{
		Server: ServerConfig{
			Addr:                   "127.0.0.1:8050",
			ShutdownTimeoutSeconds: 5,
			InitialSelection:       model.AllSensors,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "stdout",
			ServiceName: "bandchart",
			SampleRatio: 1.0,
		},
		Layout: LayoutConfig{
			DomainLow:  layout.Domain.Low,
			DomainHigh: layout.Domain.High,
			Gaps:       gaps,
			Titles:     layout.Titles,
		},
		Export: ExportConfig{
			Format:    "png",
			Output:    "band_chart.png",
			Width:     1400,
			Height:    600,
			Selection: model.AllSensors,
		},
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout_seconds", d.Server.ShutdownTimeoutSeconds)
	v.SetDefault("server.initial_selection", d.Server.InitialSelection)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.add_source", d.Logging.AddSource)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_ratio", d.Tracing.SampleRatio)

	v.SetDefault("catalog.path", d.Catalog.Path)

	v.SetDefault("layout.domain_low", d.Layout.DomainLow)
	v.SetDefault("layout.domain_high", d.Layout.DomainHigh)
	v.SetDefault("layout.gaps", d.Layout.Gaps)
	v.SetDefault("layout.titles", d.Layout.Titles)

	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.output", d.Export.Output)
	v.SetDefault("export.width", d.Export.Width)
	v.SetDefault("export.height", d.Export.Height)
	v.SetDefault("export.selection", d.Export.Selection)
}

// Init prepares v: defaults, config file search path and environment
// overrides. A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("bandchart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return err
	}
	return nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bandchart")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bandchart"
	}
	return filepath.Join(home, ".config", "bandchart")
}

// CoreLayout converts the layout section into a core.Layout.
func (c *Config) CoreLayout() core.Layout {
	gaps := make([]model.Range, len(c.Layout.Gaps))
	for i, g := range c.Layout.Gaps {
		gaps[i] = model.Range{Low: g.Low, High: g.High}
	}
	return core.Layout{
		Domain: model.Range{Low: c.Layout.DomainLow, High: c.Layout.DomainHigh},
		Gaps:   gaps,
		Titles: append([]string(nil), c.Layout.Titles...),
	}
}
