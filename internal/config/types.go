// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nextmap/nextmap/internal/builddir"
	"github.com/nextmap/nextmap/internal/discovery"
	"github.com/nextmap/nextmap/pkg/nextpage"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// OutputTable renders a styled table.
	OutputTable OutputFormat = "table"
	// OutputJSON renders indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML renders YAML.
	OutputYAML OutputFormat = "yaml"
	// OutputTOML renders TOML with a [[pages]] array.
	OutputTOML OutputFormat = "toml"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultNextBuildDir is the Next.js build output directory.
	DefaultNextBuildDir = ".next"
	// DefaultDebounce is the watch debounce window.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultWatchPattern matches compiled page bundles.
	DefaultWatchPattern = "**/*.js"
	// DefaultWatchIgnore skips source maps.
	DefaultWatchIgnore = "**/*.map"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidWatchPattern is returned when a watch glob does not parse.
	ErrInvalidWatchPattern = errors.New("invalid watch pattern")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects how discovered pages are printed.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidWatchPatternError is returned for a malformed doublestar pattern.
	InvalidWatchPatternError struct {
		Field   string
		Pattern string
	}

	// InvalidConfigError collects field-level validation errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// BuildDir is the plugin build directory scanned for pages.
		BuildDir string `json:"build_dir" mapstructure:"build_dir"`
		// NextBuildDir is the Next.js build output copied by 'nextmap package'.
		NextBuildDir string `json:"next_build_dir" mapstructure:"next_build_dir"`
		// AdditionalExcludes are extra file base names never treated as pages.
		AdditionalExcludes []string `json:"additional_excludes" mapstructure:"additional_excludes"`
		// Output configures rendering
		Output OutputConfig `json:"output" mapstructure:"output"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Watch configures 'nextmap watch'
		Watch WatchConfig `json:"watch" mapstructure:"watch"`

		// PageConfig and Routes are decoded from CUE directly. Viper lower-cases
		// map keys and splits them on dots, which would corrupt page ids.
		PageConfig nextpage.PageConfig `json:"page_config" mapstructure:"-"`
		Routes     []nextpage.Route    `json:"-" mapstructure:"-"`

		// Source is the file the configuration was read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// OutputConfig configures rendering of discovery results.
	OutputConfig struct {
		Format OutputFormat `json:"format" mapstructure:"format"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging and error chains
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// ColorScheme sets the glamour style used for issue pages
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}

	// WatchConfig configures the build directory watcher.
	WatchConfig struct {
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		Patterns []string      `json:"patterns" mapstructure:"patterns"`
		Ignore   []string      `json:"ignore" mapstructure:"ignore"`
	}
)

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: table, json, yaml, toml)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is recognized, and the validation
// errors if it is not.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case OutputTable, OutputJSON, OutputYAML, OutputTOML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// GlamourStyle maps the scheme to a glamour standard style name.
func (cs ColorScheme) GlamourStyle() string {
	switch cs {
	case ColorSchemeDark:
		return "dark"
	case ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

// Error implements the error interface.
func (e *InvalidWatchPatternError) Error() string {
	return fmt.Sprintf("%s: invalid pattern %q", e.Field, e.Pattern)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidWatchPatternError) Unwrap() error { return ErrInvalidWatchPattern }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes ErrInvalidConfig and every field error to errors.Is().
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid checks the constraints the CUE schema cannot express, which also
// covers values supplied through environment variables.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.BuildDir) == "" {
		errs = append(errs, errors.New("build_dir must not be empty"))
	}
	if strings.TrimSpace(c.NextBuildDir) == "" {
		errs = append(errs, errors.New("next_build_dir must not be empty"))
	}
	if ok, fieldErrs := c.Output.Format.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	for _, p := range c.Watch.Patterns {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, &InvalidWatchPatternError{Field: "watch.patterns", Pattern: p})
		}
	}
	for _, p := range c.Watch.Ignore {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, &InvalidWatchPatternError{Field: "watch.ignore", Pattern: p})
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DiscoveryOptions maps the configuration onto a discovery invocation.
func (c *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		PageConfig:         c.PageConfig,
		AdditionalExcludes: c.AdditionalExcludes,
		Routes:             c.Routes,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BuildDir:           builddir.BuildDirName,
		NextBuildDir:       DefaultNextBuildDir,
		AdditionalExcludes: []string{},
		Output:             OutputConfig{Format: OutputTable},
		UI: UIConfig{
			Verbose:     false,
			ColorScheme: ColorSchemeAuto,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
			Patterns: []string{DefaultWatchPattern},
			Ignore:   []string{DefaultWatchIgnore},
		},
		PageConfig: nextpage.PageConfig{},
		Routes:     []nextpage.Route{},
	}
}
