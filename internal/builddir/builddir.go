// SPDX-License-Identifier: MPL-2.0

// Package builddir manages the plugin build directory that receives compiled
// Next.js serverless pages before discovery.
package builddir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	// BuildDirName is the default name of the plugin build directory.
	BuildDirName = "sls-next-build"

	// PagesSubdir is the location of serverless page bundles inside a Next.js
	// build directory.
	PagesSubdir = "serverless/pages"
)

// ErrNotADirectory is returned when a build source path exists but is a file.
var ErrNotADirectory = errors.New("not a directory")

type (
	// Logger receives progress messages. *log.Logger satisfies it.
	Logger interface {
		Info(msg any, keyvals ...any)
	}

	// Dir is a plugin build directory on a filesystem.
	Dir struct {
		// Path is the build directory path, absolute or relative to the working
		// directory.
		Path string
		fs   afero.Fs
	}
)

// New creates a Dir at path on fs.
func New(fs afero.Fs, path string) *Dir {
	return &Dir{Path: path, fs: fs}
}

// Setup removes any previous contents and recreates the directory.
func (d *Dir) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("setup build dir canceled: %w", err)
	}
	if err := d.fs.RemoveAll(d.Path); err != nil {
		return fmt.Errorf("failed to clean build dir %s: %w", d.Path, err)
	}
	if err := d.fs.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create build dir %s: %w", d.Path, err)
	}
	return nil
}

// Remove deletes the directory and everything below it.
func (d *Dir) Remove() error {
	if err := d.fs.RemoveAll(d.Path); err != nil {
		return fmt.Errorf("failed to remove build dir %s: %w", d.Path, err)
	}
	return nil
}

// CopyBuildFiles prepares dir and copies the serverless pages of the Next.js
// build at nextBuildDir, read from fs, into it.
func CopyBuildFiles(ctx context.Context, fs afero.Fs, nextBuildDir string, dir *Dir, logger Logger) error {
	src := filepath.Join(nextBuildDir, filepath.FromSlash(PagesSubdir))
	logger.Info(fmt.Sprintf("Copying next pages from %s to %s", src, dir.Path))

	info, err := fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to read next pages dir %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("next pages dir %s: %w", src, ErrNotADirectory)
	}

	if err := dir.Setup(ctx); err != nil {
		return err
	}
	return copyTree(ctx, fs, dir.fs, src, dir.Path)
}

// copyTree copies every directory and regular file under src to dst,
// preserving relative structure and permission bits.
func copyTree(ctx context.Context, from, to afero.Fs, src, dst string) error {
	return afero.Walk(from, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return to.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode().IsRegular():
			return copyFile(from, to, path, target, info.Mode().Perm())
		default:
			return nil // sockets, devices and symlinks are not page files
		}
	})
}

func copyFile(from, to afero.Fs, src, dst string, perm os.FileMode) (err error) {
	in, err := from.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close() //nolint:errcheck // read-only handle

	out, err := to.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, closeErr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}
