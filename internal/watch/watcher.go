// SPDX-License-Identifier: MPL-2.0

// Package watch watches a build directory and reports debounced batches of
// changed page files.
//
// Events inside the debounce window coalesce into one Batch. The callback runs
// on the event loop, so a slow callback delays the next batch instead of
// running concurrently with it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// DefaultPattern selects compiled page bundles.
const DefaultPattern = "**/*.js"

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")

	// ErrInvalidPattern is wrapped by errors for globs that do not parse.
	ErrInvalidPattern = errors.New("watch: invalid pattern")

	// defaultIgnores never produce a batch: source maps, editor and OS noise.
	defaultIgnores = []string{
		"**/*.map",
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
		"**/node_modules/**",
	}
)

type (
	// Logger receives watcher diagnostics. *log.Logger satisfies it.
	Logger interface {
		Warn(msg any, keyvals ...any)
		Debug(msg any, keyvals ...any)
	}

	// Batch is one debounced set of changes.
	Batch struct {
		// Changed lists slash-separated paths relative to the build
		// directory, sorted and deduplicated.
		Changed []string
	}

	// Config holds the parameters for a Watcher.
	Config struct {
		// BuildDir is the directory to watch recursively. It must exist.
		BuildDir string
		// Patterns select the files that produce batches. Empty means
		// DefaultPattern.
		Patterns []string
		// Ignore is merged with the built-in ignores.
		Ignore []string
		// Debounce is the quiet period after the last event.
		Debounce time.Duration
		// OnChange receives each batch. Errors are logged; they do not stop
		// the watcher.
		OnChange func(ctx context.Context, batch Batch) error
		// Logger defaults to log.Default().
		Logger Logger
	}

	// Watcher monitors a build directory. Run must be called exactly once.
	Watcher struct {
		fsw      *fsnotify.Watcher
		root     string
		patterns []string
		ignores  []string
		debounce time.Duration
		onChange func(ctx context.Context, batch Batch) error
		logger   Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory below BuildDir.
func New(cfg Config) (*Watcher, error) {
	root, err := filepath.Abs(cfg.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve build directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", root)
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	if err := validatePatterns(patterns); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		root:     root,
		patterns: slices.Clone(patterns),
		ignores:  append(DefaultIgnores(), cfg.Ignore...),
		debounce: debounce,
		onChange: cfg.OnChange,
		logger:   logger,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close() //nolint:errcheck // already failing
		return nil, err
	}
	return w, nil
}

// Root returns the absolute build directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "err", err)
		}
	}()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed")
			}
			rel, keep := w.classify(evt)
			if !keep {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := Batch{Changed: slices.Sorted(maps.Keys(pending))}
			clear(pending)
			if w.onChange == nil {
				continue
			}
			if err := w.onChange(ctx, batch); err != nil {
				w.logger.Warn("change handler failed", "err", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// classify registers new directories and reports whether evt names a watched
// page file, together with its path relative to the build directory.
func (w *Watcher) classify(evt fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.root, evt.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	if evt.Has(fsnotify.Create) {
		if info, statErr := os.Lstat(evt.Name); statErr == nil && info.IsDir() {
			if addErr := w.addTree(evt.Name); addErr != nil {
				w.logger.Warn("watch new directory", "path", evt.Name, "err", addErr)
			}
			return "", false
		}
	}
	if evt.Op == fsnotify.Chmod || matchAny(w.ignores, rel) || !matchAny(w.patterns, rel) {
		return "", false
	}
	w.logger.Debug("change", "path", rel, "op", evt.Op.String())
	return rel, true
}

// addTree watches dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skip unreadable path", "path", path, "err", err)
			return nil //nolint:nilerr // keep watching the rest of the tree
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(w.root, path); relErr == nil && rel != "." {
			if slashRel := filepath.ToSlash(rel); matchAny(w.ignores, slashRel) || matchAny(w.ignores, slashRel+"/") {
				return filepath.SkipDir
			}
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if doublestar.MatchUnvalidated(pat, rel) {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("%w %q", ErrInvalidPattern, pat)
		}
	}
	return nil
}
