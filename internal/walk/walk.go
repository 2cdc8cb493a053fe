// SPDX-License-Identifier: MPL-2.0

// Package walk enumerates build output trees for page discovery.
//
// A Walker is a producer: it sends one Entry per path under a root directory into
// a channel and returns once enumeration is complete. Whether an entry is a
// directory is answered separately by a DirChecker, so consumers never rely on
// the walker's own view of the file type.
package walk

import (
	"context"
	"os"

	"github.com/spf13/afero"
)

type (
	// Entry is one path emitted by a Walker.
	Entry struct {
		// Path is the walked path. It is absolute when the walk root is absolute,
		// otherwise relative to the process working directory.
		Path string
	}

	// Walker enumerates every entry under root, including root itself.
	// Walk must not close entries; returning signals completion.
	Walker interface {
		Walk(ctx context.Context, root string, entries chan<- Entry) error
	}

	// DirChecker reports whether a path is a directory.
	DirChecker interface {
		IsDir(path string) (bool, error)
	}

	// FS walks and inspects an afero filesystem. It implements both Walker and
	// DirChecker.
	FS struct {
		fs afero.Fs
	}
)

// NewFS creates an FS over the given afero filesystem.
func NewFS(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewOS creates an FS over the host operating system filesystem.
func NewOS() *FS {
	return NewFS(afero.NewOsFs())
}

// Walk sends every path under root in lexical order. Errors reading root or
// any directory below it are returned unchanged and stop the walk.
func (f *FS) Walk(ctx context.Context, root string, entries chan<- Entry) error {
	return afero.Walk(f.fs, root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case entries <- Entry{Path: path}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// IsDir reports whether path is a directory without following a final symlink
// when the filesystem supports lstat.
func (f *FS) IsDir(path string) (bool, error) {
	if lst, ok := f.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		if err != nil {
			return false, err
		}
		return info.IsDir(), nil
	}
	info, err := f.fs.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
