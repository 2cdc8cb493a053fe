// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nextmap/nextmap/internal/issue"
	"github.com/nextmap/nextmap/pkg/cueutil"
	"github.com/nextmap/nextmap/pkg/nextpage"

	"cuelang.org/go/cue"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "nextmap"
	// ProjectFileName is the project config file looked up in the working directory.
	ProjectFileName = "nextmap.cue"
	// UserFileName is the user config file inside ConfigDir.
	UserFileName = "config.cue"
	// EnvPrefix prefixes environment overrides, e.g. NEXTMAP_BUILD_DIR.
	EnvPrefix = "NEXTMAP"
	// EnvFileName is the project dotenv file read for NEXTMAP_* overrides.
	EnvFileName = ".env"

	pageConfigKey = "page_config"
	routesKey     = "routes"
)

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the nextmap user configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(dir, AppName), nil
}

// newViper returns a Viper instance seeded with defaults and env bindings.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("build_dir", defaults.BuildDir)
	v.SetDefault("next_build_dir", defaults.NextBuildDir)
	v.SetDefault("additional_excludes", defaults.AdditionalExcludes)
	v.SetDefault("output.format", string(defaults.Output.Format))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("watch.debounce", defaults.Watch.Debounce.String())
	v.SetDefault("watch.patterns", defaults.Watch.Patterns)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// resolvePath picks the config file to read. An empty result means defaults.
func resolvePath(fs afero.Fs, opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(fs, opts.ConfigFilePath) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}

	project := filepath.Join(opts.BaseDir, ProjectFileName)
	if fileExists(fs, project) {
		return project, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	user := filepath.Join(cfgDir, UserFileName)
	if fileExists(fs, user) {
		return user, nil
	}
	return "", nil
}

// loadWithOptions resolves, validates and decodes the configuration.
func loadWithOptions(ctx context.Context, fs afero.Fs, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}

	path, err := resolvePath(fs, opts)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'nextmap config init' to create a configuration file").
			Wrap(err).
			BuildError()
	}

	v := newViper()
	pageConfig := nextpage.PageConfig{}
	routes := []nextpage.Route{}

	if path != "" {
		value, err := loadCUEIntoViper(fs, v, path)
		if err == nil {
			pageConfig, routes, err = decodeTables(value, path)
		}
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'nextmap config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	if err := applyEnvFile(fs, v, opts); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load environment file").
			WithResource(opts.EnvFilePath).
			WithSuggestion("Use KEY=value lines, e.g. NEXTMAP_BUILD_DIR=out").
			Wrap(err).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.PageConfig = pageConfig
	cfg.Routes = routes
	cfg.Source = path

	if ok, errs := cfg.IsValid(); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check NEXTMAP_* environment variables for typos").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

// loadCUEIntoViper validates the file at path against #Config and merges its
// scalar and list settings into v. The unified value is returned so callers
// can decode the fields Viper cannot hold faithfully.
func loadCUEIntoViper(fs afero.Fs, v *viper.Viper, path string) (cue.Value, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config file: %w", err)
	}

	unified, err := cueutil.Compile(configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return cue.Value{}, err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cue.Value{}, cueutil.FormatError(err, path)
	}
	delete(configMap, pageConfigKey)
	delete(configMap, routesKey)

	if err := v.MergeConfigMap(configMap); err != nil {
		return cue.Value{}, fmt.Errorf("failed to merge config: %w", err)
	}
	return unified, nil
}

func decodeTables(value cue.Value, path string) (nextpage.PageConfig, []nextpage.Route, error) {
	pageConfig, err := cueutil.DecodePath[nextpage.PageConfig](value, pageConfigKey, path)
	if err != nil {
		return nil, nil, err
	}
	if pageConfig == nil {
		pageConfig = nextpage.PageConfig{}
	}

	raw, err := cueutil.DecodePath[[]map[string]any](value, routesKey, path)
	if err != nil {
		return nil, nil, err
	}
	routes, err := nextpage.RoutesFromMaps(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return pageConfig, routes, nil
}

// applyEnvFile sets every NEXTMAP_* key of the dotenv file that the process
// environment does not already define. The file sits between the process
// environment and the config file in precedence.
func applyEnvFile(fs afero.Fs, v *viper.Viper, opts LoadOptions) error {
	path := opts.EnvFilePath
	if path == "" {
		path = filepath.Join(opts.BaseDir, EnvFileName)
		if !fileExists(fs, path) {
			return nil
		}
	}

	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse env file %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		name := envName(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if val, ok := vars[name]; ok {
			v.Set(key, val)
		}
	}
	return nil
}

// envName maps a config key such as "output.format" to NEXTMAP_OUTPUT_FORMAT.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func fileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to path. An existing
// file is left untouched unless force is set; the return value reports
// whether a file was written.
func CreateDefaultConfig(fs afero.Fs, path string, force bool) (bool, error) {
	if !force && fileExists(fs, path) {
		return false, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// nextmap configuration file\n\n")

	fmt.Fprintf(&sb, "build_dir:      %q\n", cfg.BuildDir)
	fmt.Fprintf(&sb, "next_build_dir: %q\n", cfg.NextBuildDir)

	sb.WriteString("\n// Extra file names never reported as pages.\n")
	sb.WriteString("additional_excludes: " + cueList(cfg.AdditionalExcludes, "") + "\n")

	sb.WriteString("\n// Function overrides by page id; \"*\" applies to every page.\n")
	if len(cfg.PageConfig) == 0 {
		sb.WriteString("page_config: {}\n")
	} else {
		sb.WriteString("page_config: {\n")
		for _, id := range sortedKeys(cfg.PageConfig) {
			fmt.Fprintf(&sb, "\t%q: %s\n", id, cueValue(cfg.PageConfig[id], "\t"))
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\n// Route entries attach to the page whose id equals src.\n")
	if len(cfg.Routes) == 0 {
		sb.WriteString("routes: []\n")
	} else {
		sb.WriteString("routes: [\n")
		for _, r := range cfg.Routes {
			fmt.Fprintf(&sb, "\t%s,\n", cueValue(r.ToMap(), "\t"))
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\noutput: {\n")
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.Output.Format)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	fmt.Fprintf(&sb, "\tpatterns: %s\n", cueList(cfg.Watch.Patterns, "\t"))
	fmt.Fprintf(&sb, "\tignore:   %s\n", cueList(cfg.Watch.Ignore, "\t"))
	sb.WriteString("}\n")

	return sb.String()
}
