// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/nextmap/nextmap/internal/watch"

	"github.com/spf13/cobra"
)

// newWatchCommand creates the `nextmap watch` command.
func newWatchCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	outFlags := &outputFlagValues{}

	cmd := &cobra.Command{
		Use:   "watch [build-dir]",
		Short: "Re-run page discovery whenever the build directory changes",
		Long: `Re-run page discovery whenever the build directory changes.

Pages are listed once on start. Afterwards every debounced batch of changes
matching watch.patterns triggers a new discovery. Stop with Ctrl+C.`,
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
			return runWatch(cmd, s, outFlags, buildDir)
		},
	}
	outFlags.register(cmd)

	return cmd
}

// runWatch lists pages once, then blocks re-discovering on every batch until
// the command context is canceled.
func runWatch(cmd *cobra.Command, s *session, outFlags *outputFlagValues, buildDir string) error {
	stdout := s.app.stdout

	fmt.Fprintf(stdout, "%s Watch mode: initial discovery of %s\n", VerboseHighlightStyle.Render("→"), CmdStyle.Render(buildDir))
	if err := runPages(cmd, s, outFlags, buildDir); err != nil {
		return err
	}

	opts := discoveryOptions(s, outFlags)
	w, err := watch.New(watch.Config{
		BuildDir: buildDir,
		Patterns: s.cfg.Watch.Patterns,
		Ignore:   s.cfg.Watch.Ignore,
		Debounce: s.cfg.Watch.Debounce,
		Logger:   s.logger,
		OnChange: func(ctx context.Context, batch watch.Batch) error {
			fmt.Fprintf(stdout, "\n%s Detected %d change(s). Re-discovering...\n",
				VerboseHighlightStyle.Render("→"), len(batch.Changed))
			res, err := s.newDiscoverer().DiscoverResult(ctx, buildDir, opts)
			if err != nil {
				// The build may be mid-write; keep watching.
				fmt.Fprintf(s.app.stderr, "%s Discovery failed: %v\n", WarningStyle.Render("!"), err)
				return nil
			}
			fmt.Fprintf(stdout, "%s %d page(s) discovered\n", SuccessStyle.Render("✓"), len(res.Pages))
			return nil
		},
	})
	if err != nil {
		return s.fail(fmt.Errorf("failed to start watcher: %w", err))
	}

	fmt.Fprintf(stdout, "\n%s Watching for changes (Ctrl+C to stop)...\n", VerboseHighlightStyle.Render("→"))
	return w.Run(cmd.Context())
}
