// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize caps the size of a CUE document accepted by Compile (5MB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	compileOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures Compile.
	Option func(*compileOptions)
)

func defaultOptions() compileOptions {
	return compileOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
		filename:    "<input>",
	}
}

// WithMaxFileSize sets the maximum accepted document size in bytes.
func WithMaxFileSize(size int64) Option {
	return func(o *compileOptions) {
		o.maxFileSize = size
	}
}

// WithConcrete controls whether every field must be concrete after
// unification. Config files leave optional fields unset, so they pass false.
func WithConcrete(concrete bool) Option {
	return func(o *compileOptions) {
		o.concrete = concrete
	}
}

// WithFilename sets the filename reported in error messages.
func WithFilename(name string) Option {
	return func(o *compileOptions) {
		if name != "" {
			o.filename = name
		}
	}
}
