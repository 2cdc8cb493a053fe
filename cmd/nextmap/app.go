// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/nextmap/nextmap/internal/config"
	"github.com/nextmap/nextmap/internal/discovery"
	"github.com/nextmap/nextmap/internal/issue"
	"github.com/nextmap/nextmap/internal/logging"
	"github.com/nextmap/nextmap/internal/walk"
	"github.com/nextmap/nextmap/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// renderIssueMarkdown renders a catalog entry with a glamour style.
var renderIssueMarkdown = func(id issue.Id, style string) (string, error) {
	return issue.Get(id).Render(style)
}

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer; all Cobra command handlers receive an App reference.
	App struct {
		Config  ConfigProvider
		fs      afero.Fs
		workDir string
		stdout  io.Writer
		stderr  io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// FS backs discovery, packaging and 'config init'. Defaults to the host
		// filesystem.
		FS afero.Fs
		// WorkDir is where the project config file is looked up. Empty means
		// the process working directory.
		WorkDir string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// session is the per-invocation state shared by a command's helpers.
	session struct {
		app     *App
		cfg     *config.Config
		verbose bool
		logger  *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}
	if deps.Config == nil {
		deps.Config = config.NewProviderFS(deps.FS)
	}

	return &App{
		Config:  deps.Config,
		fs:      deps.FS,
		workDir: deps.WorkDir,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}, nil
}

// loadOptions maps root flags onto a config lookup.
func (a *App) loadOptions(rootFlags *rootFlagValues) config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: rootFlags.configPath,
		EnvFilePath:    rootFlags.envFile,
		BaseDir:        a.workDir,
	}
}

// newSession loads the configuration and prepares the logger. Load failures
// are rendered on stderr and returned as an *ExitError.
func (a *App) newSession(cmd *cobra.Command, rootFlags *rootFlagValues) (*session, error) {
	cfg, err := a.Config.Load(cmd.Context(), a.loadOptions(rootFlags))
	if err != nil {
		logger := logging.New(a.stderr, rootFlags.verbose)
		writeIssue(a.stderr, logger, issue.ConfigLoadFailedId, config.ColorSchemeAuto.GlamourStyle())
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, rootFlags.verbose))
		return nil, &ExitError{Code: types.ExitFailure, Err: err}
	}

	verbose := rootFlags.verbose || cfg.UI.Verbose
	return &session{
		app:     a,
		cfg:     cfg,
		verbose: verbose,
		logger:  logging.New(a.stderr, verbose),
	}, nil
}

// newDiscoverer builds a Discoverer over the App filesystem that logs through
// the session logger.
func (s *session) newDiscoverer() *discovery.Discoverer {
	wfs := walk.NewFS(s.app.fs)
	return discovery.New(wfs, wfs, s.logger)
}

// renderIssue prints a catalog entry on stderr in the configured color scheme.
func (s *session) renderIssue(id issue.Id) {
	writeIssue(s.app.stderr, s.logger, id, s.cfg.UI.ColorScheme.GlamourStyle())
}

// writeIssue renders id to w. Render failures are only logged at debug level.
func writeIssue(w io.Writer, logger *log.Logger, id issue.Id, style string) {
	rendered, err := renderIssueMarkdown(id, style)
	if err != nil {
		logger.Debug("failed to render issue", "id", id, "err", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// fail prints err on stderr and converts it into an *ExitError.
func (s *session) fail(err error) error {
	fmt.Fprintln(s.app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, s.verbose))
	return &ExitError{Code: types.ExitFailure, Err: err}
}

// discover runs discovery over buildDir and reports failures with context.
func (s *session) discover(ctx context.Context, buildDir string, opts discovery.Options) (discovery.Result, error) {
	res, err := s.newDiscoverer().DiscoverResult(ctx, buildDir, opts)
	if err != nil {
		ec := issue.NewErrorContext().
			WithOperation("discover pages").
			WithResource(buildDir)
		if errors.Is(err, fs.ErrNotExist) {
			s.renderIssue(issue.BuildDirNotFoundId)
			ec = ec.WithSuggestion("Run 'nextmap package' to copy the Next.js build output first").
				WithSuggestion("Pass the build directory explicitly: nextmap pages <dir>")
		}
		return discovery.Result{}, s.fail(ec.Wrap(err).BuildError())
	}

	if s.verbose {
		for _, sk := range res.Skipped {
			fmt.Fprintf(s.app.stderr, "%s %s %s\n",
				VerboseStyle.Render("skipped"), VerboseHighlightStyle.Render(sk.Path), VerboseStyle.Render("("+string(sk.Stage)+")"))
		}
	}
	if len(res.Pages) == 0 {
		s.renderIssue(issue.NoPagesFoundId)
	}
	return res, nil
}
