package config

import (
	"fmt"
	"math"
	"net"
	"slices"
	"strings"

	"github.com/signalsfoundry/bandchart/internal/observability"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // config key, e.g. "layout.domain_low"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted logging.format values.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// ValidTraceExporters returns the accepted tracing.exporter values.
func ValidTraceExporters() []string {
	return []string{observability.ExporterStdout, observability.ExporterOTLP}
}

// ValidExportFormats returns the accepted export.format values.
func ValidExportFormats() []string {
	return []string{"png", "svg"}
}

// Validate checks the Config and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateTracing()...)
	errors = append(errors, c.validateLayout()...)
	errors = append(errors, c.validateExport()...)
	return errors
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError
	if err := validateAddr(c.Server.Addr); err != "" {
		errors = append(errors, ValidationError{Field: "server.addr", Value: c.Server.Addr, Message: err})
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.shutdown_timeout_seconds",
			Value:   c.Server.ShutdownTimeoutSeconds,
			Message: "must be positive",
		})
	}
	return errors
}

func (c *Config) validateMetrics() []ValidationError {
	if !c.Metrics.Enabled {
		return nil
	}
	if err := validateAddr(c.Metrics.Addr); err != "" {
		return []ValidationError{{Field: "metrics.addr", Value: c.Metrics.Addr, Message: err}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}
	return errors
}

func (c *Config) validateTracing() []ValidationError {
	if !c.Tracing.Enabled {
		return nil
	}
	var errors []ValidationError
	if !slices.Contains(ValidTraceExporters(), strings.ToLower(c.Tracing.Exporter)) {
		errors = append(errors, ValidationError{
			Field:   "tracing.exporter",
			Value:   c.Tracing.Exporter,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidTraceExporters(), ", ")),
		})
	}
	if strings.EqualFold(c.Tracing.Exporter, observability.ExporterOTLP) && c.Tracing.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "tracing.endpoint",
			Value:   c.Tracing.Endpoint,
			Message: "required when exporter is otlp",
		})
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errors = append(errors, ValidationError{
			Field:   "tracing.sample_ratio",
			Value:   c.Tracing.SampleRatio,
			Message: "must be between 0 and 1",
		})
	}
	return errors
}

func (c *Config) validateLayout() []ValidationError {
	var errors []ValidationError
	l := c.Layout
	if !positiveFinite(l.DomainLow) || !positiveFinite(l.DomainHigh) || l.DomainLow >= l.DomainHigh {
		errors = append(errors, ValidationError{
			Field:   "layout.domain_low",
			Value:   fmt.Sprintf("[%g, %g]", l.DomainLow, l.DomainHigh),
			Message: "domain must satisfy 0 < domain_low < domain_high",
		})
	}
	for i, g := range l.Gaps {
		if !positiveFinite(g.Low) || !positiveFinite(g.High) || g.Low >= g.High {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("layout.gaps[%d]", i),
				Value:   fmt.Sprintf("[%g, %g]", g.Low, g.High),
				Message: "gap must satisfy 0 < low < high",
			})
		}
	}
	return errors
}

func (c *Config) validateExport() []ValidationError {
	var errors []ValidationError
	if !slices.Contains(ValidExportFormats(), strings.ToLower(c.Export.Format)) {
		errors = append(errors, ValidationError{
			Field:   "export.format",
			Value:   c.Export.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidExportFormats(), ", ")),
		})
	}
	if c.Export.Width < 200 {
		errors = append(errors, ValidationError{Field: "export.width", Value: c.Export.Width, Message: "must be at least 200"})
	}
	if c.Export.Height < 150 {
		errors = append(errors, ValidationError{Field: "export.height", Value: c.Export.Height, Message: "must be at least 150"})
	}
	return errors
}

func validateAddr(addr string) string {
	if addr == "" {
		return "must not be empty"
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "must be host:port"
	}
	return ""
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
