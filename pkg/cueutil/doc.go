// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// formats CUE errors with JSON-path prefixes.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	v, err := cueutil.Compile(schema, data, "#Config",
//	    cueutil.WithFilename("nextmap.cue"),
//	    cueutil.WithConcrete(false),
//	)
//	if err != nil {
//	    return err // includes the offending field path
//	}
//	routes, err := cueutil.DecodePath[[]map[string]any](v, "routes", "nextmap.cue")
package cueutil
