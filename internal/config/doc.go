// SPDX-License-Identifier: MPL-2.0

// Package config loads nextmap configuration using Viper with CUE as the file format.
//
// A project file named nextmap.cue in the working directory takes precedence
// over the user file config.cue in the platform config directory
// ($XDG_CONFIG_HOME/nextmap on Linux, ~/Library/Application Support/nextmap on
// macOS, %APPDATA%\nextmap on Windows). Both are validated against the embedded
// config_schema.cue before being merged with defaults and NEXTMAP_* environment
// overrides.
package config
