// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"github.com/spf13/afero"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the user config directory lookup when set.
	ConfigDirPath string
	// BaseDir is searched for the project file and the project env file;
	// empty means the working directory.
	BaseDir string
	// EnvFilePath names a dotenv file with NEXTMAP_* overrides. Empty means
	// EnvFileName in BaseDir when it exists.
	EnvFilePath string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct {
	fs afero.Fs
}

// NewProvider creates a configuration provider reading the OS filesystem.
func NewProvider() Provider {
	return &fileProvider{fs: afero.NewOsFs()}
}

// NewProviderFS creates a configuration provider reading fs.
func NewProviderFS(fs afero.Fs) Provider {
	return &fileProvider{fs: fs}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return loadWithOptions(ctx, p.fs, opts)
}
