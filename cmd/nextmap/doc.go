// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for nextmap.
//
// This package implements the Cobra command hierarchy for the nextmap CLI:
// the root command, page discovery ('pages'), build packaging ('package'),
// watch mode ('watch') and configuration management ('config'). Handlers
// receive an *App and never write to os.Stdout or os.Stderr directly.
package cmd
