// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nextmap/nextmap/internal/config"
	"github.com/nextmap/nextmap/internal/discovery"
	"github.com/nextmap/nextmap/internal/manifest"
	"github.com/nextmap/nextmap/pkg/nextpage"

	"github.com/spf13/cobra"
)

// outputFlagValues holds the rendering flags shared by 'pages' and 'package'.
type outputFlagValues struct {
	format   string
	excludes []string
}

func (f *outputFlagValues) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "output", "o", "",
		"output format: "+strings.Join(manifest.Formats(), ", ")+" (default from config)")
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, "additional file names to exclude (repeatable)")
}

// resolveFormat returns the flag value when set, the configured format otherwise.
func (f *outputFlagValues) resolveFormat(cfg *config.Config) (string, error) {
	format := cfg.Output.Format
	if f.format != "" {
		format = config.OutputFormat(f.format)
	}
	if ok, errs := format.IsValid(); !ok {
		return "", errs[0]
	}
	return string(format), nil
}

// newPagesCommand creates the `nextmap pages` command.
func newPagesCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	outFlags := &outputFlagValues{}

	cmd := &cobra.Command{
		Use:   "pages [build-dir]",
		Short: "List the pages of a build directory",
		Long: `List the pages of a build directory.

Every JavaScript bundle below the build directory becomes one page, except
the Next.js framework files (_app.js, _document.js), the compatibility
layers and source maps. The build directory defaults to build_dir from the
configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, rootFlags)
			if err != nil {
				return err
			}
			buildDir := s.cfg.BuildDir
			if len(args) == 1 {
				buildDir = args[0]
			}
			return runPages(cmd, s, outFlags, buildDir)
		},
	}
	outFlags.register(cmd)

	return cmd
}

// runPages discovers buildDir and writes the manifest to stdout.
func runPages(cmd *cobra.Command, s *session, outFlags *outputFlagValues, buildDir string) error {
	format, err := outFlags.resolveFormat(s.cfg)
	if err != nil {
		return s.fail(err)
	}

	res, err := s.discover(cmd.Context(), buildDir, discoveryOptions(s, outFlags))
	if err != nil {
		return err
	}
	return writeManifest(s, format, res.Pages)
}

// discoveryOptions merges the --exclude names into the configured options.
func discoveryOptions(s *session, outFlags *outputFlagValues) discovery.Options {
	opts := s.cfg.DiscoveryOptions()
	opts.AdditionalExcludes = append(slices.Clone(opts.AdditionalExcludes), outFlags.excludes...)
	return opts
}

func writeManifest(s *session, format string, pages []*nextpage.Page) error {
	if err := manifest.Render(s.app.stdout, format, pages); err != nil {
		return s.fail(fmt.Errorf("failed to render pages: %w", err))
	}
	return nil
}
