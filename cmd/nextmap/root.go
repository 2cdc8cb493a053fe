// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/nextmap/nextmap/internal/issue"
	"github.com/nextmap/nextmap/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath string
	envFile    string
	verbose    bool
}

// NewRootCommand builds the nextmap command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootFlags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "nextmap",
		Short: "Discover the deployable pages of a Next.js serverless build",
		Long: TitleStyle.Render("nextmap") + SubtitleStyle.Render(" - Next.js serverless page discovery") + `

nextmap walks the output of a Next.js serverless build and reports one
deployable page per JavaScript bundle, enriched with route entries and
per-page function overrides from the project configuration.

` + SubtitleStyle.Render("Examples:") + `
  nextmap pages                       List pages of the plugin build dir
  nextmap pages sls-next-build -o json
  nextmap package                     Copy .next/serverless/pages, then list
  nextmap watch                       Re-run discovery on every rebuild
  nextmap config show                 Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "config file (default is ./nextmap.cue, then the user config dir)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.envFile, "env-file", "", "dotenv file with NEXTMAP_* overrides (default is ./.env when present)")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(
		newPagesCommand(app, rootFlags),
		newPackageCommand(app, rootFlags),
		newWatchCommand(app, rootFlags),
		newConfigCommand(app, rootFlags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute builds the production App and runs the root command. It is called
// by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(int(types.ExitFailure))
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitFailure))
	}
}

// handleError prints errors cobra and fang produce. An *ExitError has already
// been reported by the command that returned it.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
