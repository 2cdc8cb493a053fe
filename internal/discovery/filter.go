// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"path/filepath"
	"slices"
	"strings"
)

// SourceMapExt is the extension of source map files, which are never pages.
const SourceMapExt = ".map"

// defaultExcludes lists build output file names that are framework plumbing
// rather than pages.
var defaultExcludes = []string{
	"_app.js",
	"_document.js",
	"compatLayer.js",
	"aws-lambda-compat.js",
}

const (
	// StageDirectory drops directory entries.
	StageDirectory Stage = "directory"
	// StageOutsideBuildDir drops entries that do not resolve below the build directory.
	StageOutsideBuildDir Stage = "outside-build-dir"
	// StageExcludedName drops entries whose base name is in the exclusion set.
	StageExcludedName Stage = "excluded-name"
	// StageSourceMap drops source map files.
	StageSourceMap Stage = "source-map"
)

type (
	// Stage names one step of the filter pipeline.
	Stage string

	// candidate is a walked entry after its file type has been resolved.
	candidate struct {
		// path is the entry path as emitted by the walker.
		path string
		// rel is the path relative to the build directory; empty when the
		// entry lies outside it.
		rel   string
		isDir bool
	}

	// filter is one named predicate of the pipeline. drop reports whether the
	// candidate is rejected.
	filter struct {
		stage Stage
		drop  func(c candidate) bool
	}

	// pipeline is an ordered list of filters; the first filter that drops a
	// candidate decides.
	pipeline []filter
)

// DefaultExcludes returns a copy of the built-in excluded file names.
func DefaultExcludes() []string {
	return slices.Clone(defaultExcludes)
}

// newPipeline builds the filter pipeline in its fixed precedence order:
// directory, outside build dir, excluded name, source map.
func newPipeline(excludes []string) pipeline {
	excluded := make(map[string]struct{}, len(excludes))
	for _, name := range excludes {
		excluded[name] = struct{}{}
	}

	return pipeline{
		{stage: StageDirectory, drop: func(c candidate) bool { return c.isDir }},
		{stage: StageOutsideBuildDir, drop: func(c candidate) bool { return c.rel == "" }},
		{stage: StageExcludedName, drop: func(c candidate) bool {
			_, ok := excluded[filepath.Base(c.rel)]
			return ok
		}},
		{stage: StageSourceMap, drop: func(c candidate) bool { return strings.HasSuffix(c.rel, SourceMapExt) }},
	}
}

// rejectedBy returns the stage that drops c, or "" when c survives.
func (p pipeline) rejectedBy(c candidate) Stage {
	for _, f := range p {
		if f.drop(c) {
			return f.stage
		}
	}
	return ""
}

// stages returns the stage names in evaluation order.
func (p pipeline) stages() []Stage {
	out := make([]Stage, len(p))
	for i, f := range p {
		out[i] = f.stage
	}
	return out
}
