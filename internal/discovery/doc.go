// SPDX-License-Identifier: MPL-2.0

// Package discovery finds deployable pages in a compiled Next.js serverless build.
//
// Discovery runs in two phases:
//   - Enumeration: a walk.Walker produces entries on a goroutine while the caller
//     resolves each entry's file type through a walk.DirChecker
//   - Classification: once the walk completes, every candidate is re-rooted under
//     the build directory, passed through the filter pipeline, and turned into a
//     nextpage.Page enriched with its routes and function overrides
//
// File organization:
//   - discovery.go: Discoverer, Options, and the Discover operation
//   - filter.go: the ordered filter pipeline and the built-in exclusion list
//   - root.go: build directory resolution and candidate re-rooting
package discovery
