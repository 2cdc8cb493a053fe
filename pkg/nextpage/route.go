// SPDX-License-Identifier: MPL-2.0

package nextpage

import (
	"errors"
	"fmt"
	"maps"
)

// WildcardPageConfigKey is the page config key whose overrides apply to every page.
const WildcardPageConfigKey = "*"

// routeSrcKey is the route entry field matched against a page id.
const routeSrcKey = "src"

// ErrInvalidRoute is the sentinel error wrapped by InvalidRouteError.
var ErrInvalidRoute = errors.New("invalid route")

type (
	// RouteParams holds the routing parameters of a route entry, without its src.
	RouteParams map[string]any

	// Route is one route table entry. Src is compared for equality with page ids;
	// Params pass through to matching pages verbatim.
	Route struct {
		Src    string
		Params RouteParams
	}

	// PageConfig maps a page id, or WildcardPageConfigKey, to function overrides.
	PageConfig map[string]map[string]any

	// InvalidRouteError is returned when a raw route entry has no string src field.
	InvalidRouteError struct {
		Index int
		Entry map[string]any
	}
)

// Error implements the error interface.
func (e *InvalidRouteError) Error() string {
	return fmt.Sprintf("route %d: missing string %q field", e.Index, routeSrcKey)
}

// Unwrap returns ErrInvalidRoute for errors.Is() compatibility.
func (e *InvalidRouteError) Unwrap() error { return ErrInvalidRoute }

// RouteFromMap splits a raw {src, ...params} entry into a Route.
// The second return value is false when src is missing or not a string.
func RouteFromMap(entry map[string]any) (Route, bool) {
	src, ok := entry[routeSrcKey].(string)
	if !ok {
		return Route{}, false
	}
	// entry holds src here, so the clone is non-nil.
	params := maps.Clone(entry)
	delete(params, routeSrcKey)
	return Route{Src: src, Params: params}, true
}

// RoutesFromMaps converts a raw route table, preserving order.
func RoutesFromMaps(entries []map[string]any) ([]Route, error) {
	routes := make([]Route, 0, len(entries))
	for i, entry := range entries {
		r, ok := RouteFromMap(entry)
		if !ok {
			return nil, &InvalidRouteError{Index: i, Entry: entry}
		}
		routes = append(routes, r)
	}
	return routes, nil
}

// ToMap reassembles the raw {src, ...params} form of the route.
func (r Route) ToMap() map[string]any {
	out := make(map[string]any, len(r.Params)+1)
	maps.Copy(out, r.Params)
	out[routeSrcKey] = r.Src
	return out
}

// Overrides returns the shallow merge of the wildcard entry followed by the
// entry for pageID. Page-specific keys win. The result is never nil.
func (c PageConfig) Overrides(pageID string) map[string]any {
	out := make(map[string]any)
	maps.Copy(out, c[WildcardPageConfigKey])
	maps.Copy(out, c[pageID])
	return out
}
