// SPDX-License-Identifier: MPL-2.0

// Package nextpage defines the Page Descriptor produced by page discovery and the
// pure path logic that derives page identifiers from build output paths.
//
// A Page is built once, fully populated, and never mutated afterwards:
//   - Classify turns a path relative to the build directory into a Location
//     (PagePath, PageID, PageName)
//   - New combines a Location with its routes and function overrides
//
// Downstream deployment tooling reads pages through accessor methods, which
// return copies of the route and override collections.
package nextpage
