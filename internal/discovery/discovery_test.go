// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nextmap/nextmap/pkg/nextpage"

	"github.com/google/go-cmp/cmp"
)

func pageIDs(pages []*nextpage.Page) []string {
	ids := make([]string, len(pages))
	for i, p := range pages {
		ids[i] = p.PageID()
	}
	return ids
}

func TestDiscover_NoPages(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join("path", "to", testBuildDirName)
	d, logs := newTestDiscoverer()

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if pages == nil || len(pages) != 0 {
		t.Fatalf("Discover() = %v, want empty non-nil slice", pages)
	}
	if !strings.Contains(logs.String(), "Found 0 next page(s)") {
		t.Errorf("log output = %q, want zero count summary", logs.String())
	}
}

func TestDiscover_TwoRootPages(t *testing.T) {
	t.Parallel()

	buildDir := testBuildDirName
	resolved := mustAbs(t, buildDir)
	d, _ := newTestDiscoverer(
		filepath.Join(resolved, "index.js"),
		filepath.Join(resolved, "about.js"),
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("len(pages) = %d, want 2", len(pages))
	}

	want := []nextpage.Location{
		{PagePath: filepath.Join(buildDir, "index.js"), PageID: "index", PageName: "index"},
		{PagePath: filepath.Join(buildDir, "about.js"), PageID: "about", PageName: "about"},
	}
	for i, p := range pages {
		if diff := cmp.Diff(want[i], p.Location()); diff != "" {
			t.Errorf("pages[%d] location mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestDiscover_PageConfigOverrides(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "path", "to", testBuildDirName)
	d, _ := newTestDiscoverer(
		filepath.Join(buildDir, "index.js"),
		filepath.Join(buildDir, "about.js"),
	)

	pageConfig := nextpage.PageConfig{
		"index": {"foo": "bar"},
		"about": {"bar": "baz"},
	}
	pages, err := d.Discover(context.Background(), buildDir, Options{PageConfig: pageConfig})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	if diff := cmp.Diff(map[string]any{"foo": "bar"}, pages[0].ServerlessFunctionOverrides()); diff != "" {
		t.Errorf("index overrides mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"bar": "baz"}, pages[1].ServerlessFunctionOverrides()); diff != "" {
		t.Errorf("about overrides mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_WildcardPageConfigAppliesToAllPages(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "path", "to", testBuildDirName)
	d, _ := newTestDiscoverer(
		filepath.Join(buildDir, "index.js"),
		filepath.Join(buildDir, "about.js"),
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{
		PageConfig: nextpage.PageConfig{"*": {"foo": "bar"}},
	})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	for _, p := range pages {
		if diff := cmp.Diff(map[string]any{"foo": "bar"}, p.ServerlessFunctionOverrides()); diff != "" {
			t.Errorf("%s overrides mismatch (-want +got):\n%s", p.PageID(), diff)
		}
	}
}

func TestDiscover_PageConfigPrecedence(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	d, _ := newTestDiscoverer(
		filepath.Join(buildDir, "index.js"),
		filepath.Join(buildDir, "about.js"),
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{
		PageConfig: nextpage.PageConfig{
			"*":     {"memorySize": 512, "timeout": 10},
			"about": {"memorySize": 1024},
		},
	})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	want := []map[string]any{
		{"memorySize": 512, "timeout": 10},
		{"memorySize": 1024, "timeout": 10},
	}
	for i, p := range pages {
		if diff := cmp.Diff(want[i], p.ServerlessFunctionOverrides()); diff != "" {
			t.Errorf("%s overrides mismatch (-want +got):\n%s", p.PageID(), diff)
		}
	}
}

func TestDiscover_CustomRoutes(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "path", "to", testBuildDirName)
	d, _ := newTestDiscoverer(
		filepath.Join(buildDir, "index.js"),
		filepath.Join(buildDir, "foo.js"),
		filepath.Join(buildDir, "foo", "bar.js"),
		filepath.Join(buildDir, "baz", "bar.js"),
	)

	routes, err := nextpage.RoutesFromMaps([]map[string]any{
		{"src": "index", "path": "home"},
		{"src": "foo", "path": "custom/foo"},
		{"src": "foo/bar", "path": "one/bar"},
		{"src": "foo/bar", "path": "two/bar"},
		{"src": "baz/bar", "path": "three/bar"},
		{"src": "does/not/exist", "path": "never"},
	})
	if err != nil {
		t.Fatalf("RoutesFromMaps() error: %v", err)
	}

	pages, err := d.Discover(context.Background(), buildDir, Options{Routes: routes})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(pages) != 4 {
		t.Fatalf("len(pages) = %d, want 4", len(pages))
	}

	want := [][]nextpage.RouteParams{
		{{"path": "home"}},
		{{"path": "custom/foo"}},
		{{"path": "one/bar"}, {"path": "two/bar"}},
		{{"path": "three/bar"}},
	}
	for i, p := range pages {
		if diff := cmp.Diff(want[i], p.Routes()); diff != "" {
			t.Errorf("%s routes mismatch (-want +got):\n%s", p.PageID(), diff)
		}
	}
}

func TestDiscover_NoMatchingRouteOrConfigIsEmpty(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	d, _ := newTestDiscoverer(filepath.Join(buildDir, "about.js"))

	pages, err := d.Discover(context.Background(), buildDir, Options{
		Routes: []nextpage.Route{{Src: "index", Params: nextpage.RouteParams{"path": "home"}}},
	})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	p := pages[0]
	if p.Routes() == nil || len(p.Routes()) != 0 {
		t.Errorf("Routes() = %v, want empty non-nil slice", p.Routes())
	}
	if p.ServerlessFunctionOverrides() == nil || len(p.ServerlessFunctionOverrides()) != 0 {
		t.Errorf("ServerlessFunctionOverrides() = %v, want empty non-nil map", p.ServerlessFunctionOverrides())
	}
}

func TestDiscover_LogsPagesFound(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "path", "to", "build")
	d, logs := newTestDiscoverer(filepath.Join(buildDir, "about.js"))

	if _, err := d.Discover(context.Background(), buildDir, Options{}); err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	out := logs.String()
	if !strings.Contains(out, "Found 1 next page(s)") {
		t.Errorf("log output = %q, want %q", out, "Found 1 next page(s)")
	}
	if n := strings.Count(out, "\n"); n != 1 {
		t.Errorf("log output has %d lines, want exactly 1 summary line", n)
	}
}

func TestDiscover_SkipsAppAndDocumentPages(t *testing.T) {
	t.Parallel()

	buildDir := "." + string(filepath.Separator) + testBuildDirName
	resolved := mustAbs(t, buildDir)
	d, _ := newTestDiscoverer(
		filepath.Join(resolved, "_app.js"),
		filepath.Join(resolved, "_document.js"),
		filepath.Join(resolved, "_error.js"),
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("len(pages) = %d, want 1", len(pages))
	}
	if pages[0].PageName() != "_error" {
		t.Errorf("PageName() = %q, want %q", pages[0].PageName(), "_error")
	}
}

func TestDiscover_SkipsCompatLayerFiles(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "path", "to", testBuildDirName)
	d, _ := newTestDiscoverer(
		filepath.Join(buildDir, "compatLayer.js"),
		filepath.Join(buildDir, "aws-lambda-compat.js"),
		filepath.Join(buildDir, "home.js"),
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if diff := cmp.Diff([]string{"home"}, pageIDs(pages)); diff != "" {
		t.Errorf("page ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_SkipsSourceMaps(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "path", "to", testBuildDirName)
	d, _ := newTestDiscoverer(
		filepath.Join(buildDir, "home.js.map"),
		filepath.Join(buildDir, "home.js"),
		filepath.Join(buildDir, "nested", "deep", "page.js.map"),
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if diff := cmp.Diff([]string{"home"}, pageIDs(pages)); diff != "" {
		t.Errorf("page ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_ExcludesApplyAtAnyDepth(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	d, _ := newTestDiscoverer(
		filepath.Join(buildDir, "a", "_app.js"),
		filepath.Join(buildDir, "a", "b", "_document.js"),
		filepath.Join(buildDir, "a", "b", "c", "robots.js"),
		filepath.Join(buildDir, "a", "b", "c", "page.js"),
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{AdditionalExcludes: []string{"robots.js"}})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if diff := cmp.Diff([]string{"a/b/c/page"}, pageIDs(pages)); diff != "" {
		t.Errorf("page ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_NestedPages(t *testing.T) {
	t.Parallel()

	buildDir := "." + string(filepath.Separator) + testBuildDirName
	resolved := mustAbs(t, buildDir)
	d, _ := newTestDiscoverer(
		filepath.Join(resolved, "one", "hello-world.js"),
		filepath.Join(resolved, "one", "two", "hello-world.js"),
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	want := []nextpage.Location{
		{PagePath: filepath.Join(testBuildDirName, "one", "hello-world.js"), PageID: "one/hello-world", PageName: "hello-world"},
		{PagePath: filepath.Join(testBuildDirName, "one", "two", "hello-world.js"), PageID: "one/two/hello-world", PageName: "hello-world"},
	}
	if len(pages) != len(want) {
		t.Fatalf("len(pages) = %d, want %d", len(pages), len(want))
	}
	for i, p := range pages {
		if diff := cmp.Diff(want[i], p.Location()); diff != "" {
			t.Errorf("pages[%d] location mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestDiscover_SkipsDirectories(t *testing.T) {
	t.Parallel()

	buildDir := "." + string(filepath.Separator) + testBuildDirName
	resolved := mustAbs(t, buildDir)
	d, _ := newTestDiscovererWith(
		&scriptedWalker{paths: []string{
			filepath.Join(resolved, "one"),
			filepath.Join(resolved, "one", "two"),
		}},
		&fakeDirs{allDir: true},
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("len(pages) = %d, want 0", len(pages))
	}
}

func TestDiscover_DirectoryNamedLikeAPageIsSkipped(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	blogDir := filepath.Join(buildDir, "blog.js")
	d, _ := newTestDiscovererWith(
		&scriptedWalker{paths: []string{buildDir, blogDir, filepath.Join(blogDir, "index.js")}},
		&fakeDirs{dirs: map[string]bool{buildDir: true, blogDir: true}},
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if diff := cmp.Diff([]string{"blog.js/index"}, pageIDs(pages)); diff != "" {
		t.Errorf("page ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_PagePathRootIndependentOfBuildDirForm(t *testing.T) {
	t.Parallel()

	resolved := mustAbs(t, testBuildDirName)
	forms := []string{
		testBuildDirName,
		"." + string(filepath.Separator) + testBuildDirName,
		testBuildDirName + string(filepath.Separator),
	}

	for _, form := range forms {
		d, _ := newTestDiscoverer(filepath.Join(resolved, "blog", "post.js"))
		pages, err := d.Discover(context.Background(), form, Options{})
		if err != nil {
			t.Fatalf("Discover(%q) error: %v", form, err)
		}
		want := filepath.Join(testBuildDirName, "blog", "post.js")
		if got := pages[0].PagePath(); got != want {
			t.Errorf("Discover(%q) PagePath = %q, want %q", form, got, want)
		}
	}

	abs := filepath.Join(string(filepath.Separator), "opt", "app", testBuildDirName)
	d, _ := newTestDiscoverer(filepath.Join(abs, "blog", "post.js"))
	pages, err := d.Discover(context.Background(), abs, Options{})
	if err != nil {
		t.Fatalf("Discover(%q) error: %v", abs, err)
	}
	want := filepath.Join(testBuildDirName, "blog", "post.js")
	if got := pages[0].PagePath(); got != want {
		t.Errorf("Discover(%q) PagePath = %q, want %q", abs, got, want)
	}
	if got := pages[0].PageID(); got != "blog/post" {
		t.Errorf("Discover(%q) PageID = %q, want %q", abs, got, "blog/post")
	}
}

func TestDiscover_RootNameRecurringBelowItself(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", "build")
	d, _ := newTestDiscoverer(filepath.Join(buildDir, "docs", "build", "index.js"))

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	want := nextpage.Location{
		PagePath: filepath.Join("build", "docs", "build", "index.js"),
		PageID:   "docs/build/index",
		PageName: "index",
	}
	if diff := cmp.Diff(want, pages[0].Location()); diff != "" {
		t.Errorf("location mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_EntriesOutsideBuildDirAreSkipped(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	d, _ := newTestDiscoverer(
		filepath.Join(string(filepath.Separator), "elsewhere", "stray.js"),
		filepath.Join(buildDir, "index.js"),
	)

	res, err := d.DiscoverResult(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("DiscoverResult() error: %v", err)
	}
	if diff := cmp.Diff([]string{"index"}, pageIDs(res.Pages)); diff != "" {
		t.Errorf("page ids mismatch (-want +got):\n%s", diff)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Stage != StageOutsideBuildDir {
		t.Errorf("Skipped = %+v, want one %s entry", res.Skipped, StageOutsideBuildDir)
	}
}

func TestDiscoverResult_ReportsSkippedStages(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	d, _ := newTestDiscovererWith(
		&scriptedWalker{paths: []string{
			buildDir,
			filepath.Join(buildDir, "_app.js"),
			filepath.Join(buildDir, "index.js.map"),
			filepath.Join(buildDir, "index.js"),
		}},
		&fakeDirs{dirs: map[string]bool{buildDir: true}},
	)

	res, err := d.DiscoverResult(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("DiscoverResult() error: %v", err)
	}

	want := []Skipped{
		{Path: buildDir, Stage: StageDirectory},
		{Path: filepath.Join(buildDir, "_app.js"), Stage: StageExcludedName},
		{Path: filepath.Join(buildDir, "index.js.map"), Stage: StageSourceMap},
	}
	if diff := cmp.Diff(want, res.Skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_FilterPrecedence(t *testing.T) {
	t.Parallel()

	got := newPipeline(DefaultExcludes()).stages()
	want := []Stage{StageDirectory, StageOutsideBuildDir, StageExcludedName, StageSourceMap}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pipeline stages mismatch (-want +got):\n%s", diff)
	}

	// A directory whose name is also excluded is attributed to the directory stage.
	p := newPipeline([]string{"_app.js"})
	if stage := p.rejectedBy(candidate{rel: "_app.js", isDir: true}); stage != StageDirectory {
		t.Errorf("rejectedBy(excluded dir) = %q, want %q", stage, StageDirectory)
	}
	// An excluded source map is attributed to the exclusion stage.
	p = newPipeline([]string{"vendor.js.map"})
	if stage := p.rejectedBy(candidate{rel: "vendor.js.map"}); stage != StageExcludedName {
		t.Errorf("rejectedBy(excluded map) = %q, want %q", stage, StageExcludedName)
	}
}

func TestDiscover_WithExcludesReplacesBuiltins(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	var dirs fakeDirs
	d := New(&scriptedWalker{paths: []string{
		filepath.Join(buildDir, "_app.js"),
		filepath.Join(buildDir, "legacy.js"),
	}}, &dirs, nil, WithExcludes("legacy.js"), WithBufferSize(1))

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if diff := cmp.Diff([]string{"_app"}, pageIDs(pages)); diff != "" {
		t.Errorf("page ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_DefaultExcludesIsACopy(t *testing.T) {
	t.Parallel()

	got := DefaultExcludes()
	got[0] = "mutated.js"
	if slices.Contains(DefaultExcludes(), "mutated.js") {
		t.Error("DefaultExcludes() exposes the package-level list")
	}
}

func TestDiscover_Idempotent(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	paths := []string{
		filepath.Join(buildDir, "index.js"),
		filepath.Join(buildDir, "blog", "[slug].js"),
		filepath.Join(buildDir, "about.js"),
	}
	opts := Options{
		PageConfig: nextpage.PageConfig{"*": {"memorySize": 512}, "about": {"timeout": 30}},
		Routes:     []nextpage.Route{{Src: "blog/[slug]", Params: nextpage.RouteParams{"path": "posts/{slug}"}}},
	}

	snapshot := func() []map[string]any {
		d, _ := newTestDiscoverer(paths...)
		pages, err := d.Discover(context.Background(), buildDir, opts)
		if err != nil {
			t.Fatalf("Discover() error: %v", err)
		}
		out := make([]map[string]any, len(pages))
		for i, p := range pages {
			out[i] = map[string]any{
				"id":        p.PageID(),
				"path":      p.PagePath(),
				"routes":    p.Routes(),
				"overrides": p.ServerlessFunctionOverrides(),
			}
		}
		return out
	}

	if diff := cmp.Diff(snapshot(), snapshot()); diff != "" {
		t.Errorf("repeated discovery differs (-first +second):\n%s", diff)
	}
}

func TestDiscover_WalkerErrorPropagatesUnchanged(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	d, logs := newTestDiscovererWith(
		&scriptedWalker{paths: []string{filepath.Join(buildDir, "index.js")}, err: errBoom},
		&fakeDirs{},
	)

	pages, err := d.Discover(context.Background(), buildDir, Options{})
	if err != errBoom { //nolint:errorlint // the walker error must not be wrapped
		t.Fatalf("Discover() error = %v, want errBoom unchanged", err)
	}
	if pages != nil {
		t.Errorf("Discover() pages = %v, want nil on failure", pages)
	}
	if logs.Len() != 0 {
		t.Errorf("log output = %q, want nothing on failure", logs.String())
	}
}

func TestDiscover_DirCheckErrorPropagatesUnchanged(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	bad := filepath.Join(buildDir, "b.js")
	paths := []string{filepath.Join(buildDir, "a.js"), bad}
	for i := range 200 {
		paths = append(paths, filepath.Join(buildDir, "c", strings.Repeat("x", i%7+1)+".js"))
	}
	d, _ := newTestDiscovererWith(
		&scriptedWalker{paths: paths},
		&fakeDirs{failOn: bad, err: errBoom},
	)

	_, err := d.Discover(context.Background(), buildDir, Options{})
	if err != errBoom { //nolint:errorlint // the query error must not be wrapped
		t.Fatalf("Discover() error = %v, want errBoom unchanged", err)
	}
}

func TestDiscover_ContextCancelled(t *testing.T) {
	t.Parallel()

	buildDir := filepath.Join(string(filepath.Separator), "srv", testBuildDirName)
	d, _ := newTestDiscoverer(filepath.Join(buildDir, "index.js"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.bufferSize = 0 // unbuffered so the first send races only with ctx.Done()
	_, err := d.Discover(ctx, buildDir, Options{})
	if err == nil {
		// The consumer may win the race for the single entry; the walk then
		// completes normally, which is also a valid outcome.
		return
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Discover() error = %v, want context.Canceled", err)
	}
}
