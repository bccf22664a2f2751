// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8050".
	Addr string `koanf:"addr"`

	// DatasetPath points at the indicators CSV. Empty uses the embedded sample.
	DatasetPath string `koanf:"dataset_path"`

	// TopN is the number of countries in the top view.
	TopN int `koanf:"top_n"`

	// HistogramBins is the default bin count for the histogram view.
	HistogramBins int `koanf:"histogram_bins"`

	// MaxHistogramBins caps the bins query parameter.
	MaxHistogramBins int `koanf:"max_histogram_bins"`

	// DefaultIndicator is preselected in the dashboard controls.
	DefaultIndicator string `koanf:"default_indicator"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8050",
		DatasetPath:      "",
		TopN:             3,
		HistogramBins:    20,
		MaxHistogramBins: 200,
		DefaultIndicator: "Life expectancy",
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidConfig, c.TopN)
	case c.MaxHistogramBins < 1:
		return fmt.Errorf("%w: max_histogram_bins must be positive, got %d", ErrInvalidConfig, c.MaxHistogramBins)
	case c.HistogramBins < 1 || c.HistogramBins > c.MaxHistogramBins:
		return fmt.Errorf("%w: histogram_bins must be in [1, %d], got %d", ErrInvalidConfig, c.MaxHistogramBins, c.HistogramBins)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
