// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nextmap/nextmap/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `nextmap config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage nextmap configuration",
		Long: `Manage nextmap configuration.

Configuration is read from the first file found of:
  - the --config flag
  - ./nextmap.cue
  - the user config file:
      Linux: ~/.config/nextmap/config.cue
      macOS: ~/Library/Application Support/nextmap/config.cue
      Windows: %APPDATA%\nextmap\config.cue

Scalar settings can be overridden with NEXTMAP_* environment variables,
e.g. NEXTMAP_BUILD_DIR or NEXTMAP_OUTPUT_FORMAT, set in the process
environment or in ./.env (see --env-file).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, rootFlags)
			if err != nil {
				return err
			}
			showConfig(app.stdout, s.cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, rootFlags)
			if err != nil {
				return err
			}
			if s.cfg.Source != "" {
				fmt.Fprintln(app.stdout, s.cfg.Source)
				return nil
			}
			userPath, err := userConfigPath()
			if err != nil {
				return s.fail(err)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", userPath, SubtitleStyle.Render("(not found, using defaults)"))
			return nil
		},
	})

	var global, force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Long: `Create a default configuration file.

Writes ./nextmap.cue, or the user config file with --global. An existing
file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, global, force)
		},
	}
	initCmd.Flags().BoolVar(&global, "global", false, "write the user config file instead of ./nextmap.cue")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, rootFlags)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	return cfgCmd
}

func userConfigPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.UserFileName), nil
}

func showConfig(w io.Writer, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("build_dir"), valueStyle.Render(cfg.BuildDir))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("next_build_dir"), valueStyle.Render(cfg.NextBuildDir))

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("additional_excludes"), listOrNone(cfg.AdditionalExcludes, valueStyle.Render))

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("page_config"), valueStyle.Render(fmt.Sprintf("%d page(s)", len(cfg.PageConfig))))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("routes"), valueStyle.Render(fmt.Sprintf("%d route(s)", len(cfg.Routes))))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("output"))
	fmt.Fprintf(w, "  format: %s\n", valueStyle.Render(string(cfg.Output.Format)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("watch"))
	fmt.Fprintf(w, "  debounce: %s\n", valueStyle.Render(cfg.Watch.Debounce.String()))
	fmt.Fprintf(w, "  patterns: %s\n", listOrNone(cfg.Watch.Patterns, valueStyle.Render))
	fmt.Fprintf(w, "  ignore: %s\n", listOrNone(cfg.Watch.Ignore, valueStyle.Render))
}

func listOrNone(items []string, render func(...string) string) string {
	if len(items) == 0 {
		return SubtitleStyle.Render("(none configured)")
	}
	return render(strings.Join(items, ", "))
}

func initConfig(app *App, global, force bool) error {
	path := filepath.Join(app.workDir, config.ProjectFileName)
	if global {
		userPath, err := userConfigPath()
		if err != nil {
			return fmt.Errorf("failed to resolve config directory: %w", err)
		}
		path = userPath
	}

	written, err := config.CreateDefaultConfig(app.fs, path, force)
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintf(app.stdout, "Configuration already exists at: %s\n", path)
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("Use --force to overwrite it."))
		return nil
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at: %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
