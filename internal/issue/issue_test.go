// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

// passthrough replaces glamour so assertions can inspect the raw markdown.
func passthrough(t *testing.T) {
	t.Helper()
	original := render
	render = func(in, _ string) (string, error) { return in, nil }
	t.Cleanup(func() { render = original })
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		contains string
	}{
		{BuildDirNotFoundId, "Build directory not found"},
		{NextBuildDirNotFoundId, "Next.js build output not found"},
		{ConfigLoadFailedId, "Failed to load configuration"},
		{NoPagesFoundId, "No pages found"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()

			is := Get(tt.id)
			if is == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if is.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", is.Id(), tt.id)
			}
			if !strings.Contains(string(is.MarkdownMsg()), tt.contains) {
				t.Errorf("MarkdownMsg() does not contain %q", tt.contains)
			}
		})
	}
}

func TestGetUnknown(t *testing.T) {
	t.Parallel()

	if is := Get(Id(9999)); is != nil {
		t.Errorf("Get(9999) = %v, want nil", is)
	}
}

func TestValuesOrdered(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(issues))
	}
	for i, is := range values {
		if want := Id(i + 1); is.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, is.Id(), want)
		}
	}
}

func TestDocLinksReturnsCopy(t *testing.T) {
	t.Parallel()

	is := Get(NextBuildDirNotFoundId)
	links := is.DocLinks()
	if len(links) == 0 {
		t.Fatal("DocLinks() is empty")
	}
	original := links[0]
	links[0] = "modified"
	if got := is.DocLinks()[0]; got != original {
		t.Errorf("DocLinks()[0] = %q after mutating the copy, want %q", got, original)
	}
}

func TestRenderLinks(t *testing.T) { //nolint:paralleltest // swaps the package renderer
	passthrough(t)

	withLinks := &Issue{id: 100, mdMsg: "# Test", docLinks: []HttpLink{"https://docs.example.com"}}
	out, err := withLinks.Render("")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "See also") || !strings.Contains(out, "https://docs.example.com") {
		t.Errorf("Render() = %q, want a See also section with the link", out)
	}

	noLinks := &Issue{id: 101, mdMsg: "# Test"}
	out, err = noLinks.Render("")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "See also") {
		t.Errorf("Render() = %q, want no See also section", out)
	}
}

func TestAllIssuesRenderWithGlamour(t *testing.T) {
	t.Parallel()

	for _, is := range Values() {
		out, err := is.Render("notty")
		if err != nil {
			t.Errorf("issue %d failed to render: %v", is.Id(), err)
			continue
		}
		if strings.TrimSpace(out) == "" {
			t.Errorf("issue %d rendered to empty output", is.Id())
		}
	}
}
