// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"slices"

	"github.com/nextmap/nextmap/internal/walk"
	"github.com/nextmap/nextmap/pkg/nextpage"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// defaultBufferSize is the capacity of the channel between the walker and the
// consumer resolving file types.
const defaultBufferSize = 64

type (
	// Logger receives the discovery summary. *log.Logger satisfies it.
	Logger interface {
		Info(msg any, keyvals ...any)
	}

	// Options are the per-invocation discovery inputs. All fields are optional.
	Options struct {
		// PageConfig maps page ids, or "*", to function configuration overrides.
		PageConfig nextpage.PageConfig
		// AdditionalExcludes are file base names excluded in addition to the
		// built-in list.
		AdditionalExcludes []string
		// Routes is the flat route table; entries attach to the page whose id
		// equals their Src.
		Routes []nextpage.Route
	}

	// Skipped records a walked entry that did not become a page.
	Skipped struct {
		// Path is the entry path as emitted by the walker.
		Path string
		// Stage is the filter that rejected the entry.
		Stage Stage
	}

	// Result bundles discovered pages with the entries the filter pipeline
	// rejected, so callers can render them without discovery writing output.
	Result struct {
		Pages   []*nextpage.Page
		Skipped []Skipped
	}

	// Discoverer turns build output trees into page descriptors. It holds only
	// immutable configuration and is safe for concurrent use.
	Discoverer struct {
		walker     walk.Walker
		dirs       walk.DirChecker
		logger     Logger
		excludes   []string
		bufferSize int
	}

	// Option configures a Discoverer.
	Option func(*Discoverer)
)

// WithExcludes replaces the built-in excluded file names. Options.AdditionalExcludes
// are still merged on top per invocation.
func WithExcludes(names ...string) Option {
	return func(d *Discoverer) {
		d.excludes = slices.Clone(names)
	}
}

// WithBufferSize sets the walker channel capacity. Values below 1 are ignored.
func WithBufferSize(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.bufferSize = n
		}
	}
}

// New creates a Discoverer. A nil logger, including a nil *log.Logger, falls
// back to the charmbracelet/log default logger.
func New(walker walk.Walker, dirs walk.DirChecker, logger Logger, opts ...Option) *Discoverer {
	if l, ok := logger.(*log.Logger); logger == nil || (ok && l == nil) {
		logger = log.Default()
	}
	d := &Discoverer{
		walker:     walker,
		dirs:       dirs,
		logger:     logger,
		excludes:   DefaultExcludes(),
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewOS creates a Discoverer over the host filesystem.
func NewOS(logger Logger, opts ...Option) *Discoverer {
	fs := walk.NewOS()
	return New(fs, fs, logger, opts...)
}

// Discover walks buildDir and returns its pages in walk order. buildDir may be
// absolute, relative or dot-relative. Walker and file type query failures are
// returned unchanged and no pages are returned with them.
func (d *Discoverer) Discover(ctx context.Context, buildDir string, opts Options) ([]*nextpage.Page, error) {
	res, err := d.DiscoverResult(ctx, buildDir, opts)
	if err != nil {
		return nil, err
	}
	return res.Pages, nil
}

// DiscoverResult is Discover plus the list of rejected entries.
func (d *Discoverer) DiscoverResult(ctx context.Context, buildDir string, opts Options) (Result, error) {
	candidates, err := d.collect(ctx, buildDir)
	if err != nil {
		return Result{}, err
	}

	root, err := resolveBuildRoot(buildDir)
	if err != nil {
		return Result{}, err
	}

	excludes := make([]string, 0, len(d.excludes)+len(opts.AdditionalExcludes))
	excludes = append(excludes, d.excludes...)
	excludes = append(excludes, opts.AdditionalExcludes...)
	filters := newPipeline(excludes)

	res := Result{Pages: make([]*nextpage.Page, 0, len(candidates))}
	for _, c := range candidates {
		if c.rel, err = root.relative(c.path); err != nil {
			return Result{}, err
		}
		if stage := filters.rejectedBy(c); stage != "" {
			res.Skipped = append(res.Skipped, Skipped{Path: c.path, Stage: stage})
			continue
		}

		loc := nextpage.Classify(root.display, c.rel)
		res.Pages = append(res.Pages, nextpage.New(
			loc,
			matchRoutes(opts.Routes, loc.PageID),
			opts.PageConfig.Overrides(loc.PageID),
		))
	}

	d.logger.Info(fmt.Sprintf("Found %d next page(s)", len(res.Pages)))

	return res, nil
}

// collect runs the walker as a producer and resolves every entry's file type
// in emission order. It returns only after the walker has finished.
func (d *Discoverer) collect(ctx context.Context, buildDir string) ([]candidate, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	entries := make(chan walk.Entry, d.bufferSize)
	g.Go(func() error {
		defer close(entries)
		return d.walker.Walk(gctx, buildDir, entries)
	})

	var (
		candidates []candidate
		statErr    error
	)
	for e := range entries {
		if statErr != nil {
			continue // drain until the walker observes cancellation
		}
		isDir, err := d.dirs.IsDir(e.Path)
		if err != nil {
			statErr = err
			cancel()
			continue
		}
		candidates = append(candidates, candidate{path: e.Path, isDir: isDir})
	}

	walkErr := g.Wait()
	if statErr != nil {
		return nil, statErr
	}
	if walkErr != nil {
		return nil, walkErr
	}
	return candidates, nil
}

// matchRoutes returns the params of every route whose Src equals pageID, in
// table order. The result is never nil.
func matchRoutes(routes []nextpage.Route, pageID string) []nextpage.RouteParams {
	out := make([]nextpage.RouteParams, 0)
	for _, r := range routes {
		if r.Src != pageID {
			continue
		}
		params := make(nextpage.RouteParams, len(r.Params))
		for k, v := range r.Params {
			params[k] = v
		}
		out = append(out, params)
	}
	return out
}
