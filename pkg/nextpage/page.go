// SPDX-License-Identifier: MPL-2.0

package nextpage

import (
	"maps"
	"path"
	"path/filepath"
	"strings"
)

type (
	// Location is the path-derived identity of a page.
	Location struct {
		// PagePath is the file path rooted at the build directory's display root,
		// using the host separator (e.g., "sls-next-build/blog/post.js").
		PagePath string
		// PageID is the extension-less, forward-slash path below the build
		// directory (e.g., "blog/post"). It is the key for routes and page config.
		PageID string
		// PageName is the last segment of PageID (e.g., "post").
		PageName string
	}

	// Page is a deployable page discovered in a build directory.
	Page struct {
		loc       Location
		routes    []RouteParams
		overrides map[string]any
	}
)

// Classify derives the Location of the file at rel, a path relative to the build
// directory whose display root is root.
//
// The root index file maps to PageID "index"; nested index files keep their
// directory prefix ("blog/index").
func Classify(root, rel string) Location {
	slashRel := filepath.ToSlash(filepath.Clean(rel))
	id := strings.TrimSuffix(slashRel, path.Ext(slashRel))

	return Location{
		PagePath: filepath.Join(root, rel),
		PageID:   id,
		PageName: path.Base(id),
	}
}

// New creates a Page from its location and enrichment data. Nil routes or
// overrides are stored as empty collections.
func New(loc Location, routes []RouteParams, overrides map[string]any) *Page {
	if routes == nil {
		routes = []RouteParams{}
	}
	if overrides == nil {
		overrides = map[string]any{}
	}
	return &Page{loc: loc, routes: routes, overrides: overrides}
}

// Location returns the path-derived identity of the page.
func (p *Page) Location() Location { return p.loc }

// PagePath returns the build-root-relative path of the source file.
func (p *Page) PagePath() string { return p.loc.PagePath }

// PageID returns the routing key of the page.
func (p *Page) PageID() string { return p.loc.PageID }

// PageName returns the last segment of the page id.
func (p *Page) PageName() string { return p.loc.PageName }

// Routes returns the route parameters attached to the page, in route table order.
// The result is never nil.
func (p *Page) Routes() []RouteParams {
	out := make([]RouteParams, len(p.routes))
	for i, r := range p.routes {
		out[i] = maps.Clone(r)
	}
	return out
}

// ServerlessFunctionOverrides returns the merged function configuration for the
// page. The result is never nil.
func (p *Page) ServerlessFunctionOverrides() map[string]any {
	return maps.Clone(p.overrides)
}
