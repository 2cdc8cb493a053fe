// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation URL attached to an issue.
	HttpLink string

	// Issue is a known problem with guidance for the user.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

const (
	BuildDirNotFoundId Id = iota + 1
	NextBuildDirNotFoundId
	ConfigLoadFailedId
	NoPagesFoundId
)

var (
	render = glamour.Render

	buildDirNotFoundIssue = &Issue{
		id: BuildDirNotFoundId,
		mdMsg: `
# Build directory not found!

nextmap looks for compiled serverless pages in the plugin build directory,
but it does not exist or cannot be read.

## Things you can try:
- Copy the Next.js serverless output into the build directory first:
~~~
$ nextmap package
~~~

- Point nextmap at another directory:
~~~
$ nextmap pages path/to/sls-next-build
~~~

- Set ` + "`build_dir`" + ` in your ` + "`nextmap.cue`" + ``,
	}

	nextBuildDirNotFoundIssue = &Issue{
		id: NextBuildDirNotFoundId,
		mdMsg: `
# Next.js build output not found!

The serverless pages directory (` + "`.next/serverless/pages`" + ` by default)
is missing.

## Things you can try:
- Build the application with the serverless target:
~~~js
// next.config.js
module.exports = { target: "serverless" };
~~~

~~~
$ next build
~~~

- Pass a different build dir:
~~~
$ nextmap package --next-build-dir path/to/.next
~~~`,
		docLinks: []HttpLink{"https://nextjs.org/docs/api-reference/next.config.js/introduction"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be parsed or does not match the schema.

## Things you can try:
- Print the effective configuration and its location:
~~~
$ nextmap config path
$ nextmap config show
~~~

- Write a fresh file with the defaults:
~~~
$ nextmap config init --force
~~~

## Example nextmap.cue:
~~~cue
build_dir: "sls-next-build"
page_config: {
	"*": memorySize: 512
	"blog/index": timeout: 10
}
routes: [{src: "blog/index", path: "blog"}]
~~~`,
	}

	noPagesFoundIssue = &Issue{
		id: NoPagesFoundId,
		mdMsg: `
# No pages found!

The build directory was scanned but no deployable page files were found.
Directories, ` + "`_app.js`" + `, ` + "`_document.js`" + `, compatibility shims and
` + "`.map`" + ` files are never reported as pages.

## Things you can try:
- Check that the build used the serverless target
- Check ` + "`additional_excludes`" + ` in your configuration
- Re-run the copy step:
~~~
$ nextmap package
~~~`,
	}

	issues = map[Id]*Issue{
		buildDirNotFoundIssue.Id():     buildDirNotFoundIssue,
		nextBuildDirNotFoundIssue.Id(): nextBuildDirNotFoundIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		noPagesFoundIssue.Id():         noPagesFoundIssue,
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue with glamour. stylePath is a glamour style name
// such as "dark", "light" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, is)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id - b.id) })
	return out
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
