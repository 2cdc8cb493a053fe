// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"io/fs"

	"github.com/nextmap/nextmap/internal/builddir"
	"github.com/nextmap/nextmap/internal/issue"

	"github.com/spf13/cobra"
)

// newPackageCommand creates the `nextmap package` command.
func newPackageCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var (
		nextBuildDir string
		buildDir     string
	)
	outFlags := &outputFlagValues{}

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Copy the Next.js serverless pages into the build dir and list them",
		Long: `Copy the Next.js serverless pages into the build dir and list them.

The build directory is emptied first, then <next-build-dir>/serverless/pages is
copied into it with its structure and file modes preserved. The copied tree is
then discovered exactly like 'nextmap pages'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, rootFlags)
			if err != nil {
				return err
			}
			if nextBuildDir == "" {
				nextBuildDir = s.cfg.NextBuildDir
			}
			if buildDir == "" {
				buildDir = s.cfg.BuildDir
			}

			dir := builddir.New(app.fs, buildDir)
			if err := builddir.CopyBuildFiles(cmd.Context(), app.fs, nextBuildDir, dir, s.logger); err != nil {
				ec := issue.NewErrorContext().
					WithOperation("copy build files").
					WithResource(nextBuildDir)
				if errors.Is(err, fs.ErrNotExist) || errors.Is(err, builddir.ErrNotADirectory) {
					s.renderIssue(issue.NextBuildDirNotFoundId)
					ec = ec.WithSuggestion("Run 'next build' with target 'serverless' first").
						WithSuggestion("Point --next-build-dir at the Next.js build output")
				}
				return s.fail(ec.Wrap(err).BuildError())
			}

			return runPages(cmd, s, outFlags, dir.Path)
		},
	}

	cmd.Flags().StringVar(&nextBuildDir, "next-build-dir", "", "Next.js build output directory (default from config)")
	cmd.Flags().StringVar(&buildDir, "build-dir", "", "plugin build directory to (re)create (default from config)")
	outFlags.register(cmd)

	return cmd
}
