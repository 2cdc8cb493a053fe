// SPDX-License-Identifier: MPL-2.0

// Package manifest renders discovered pages for humans and for machines.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/nextmap/nextmap/pkg/nextpage"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTOML  = "toml"
)

// ErrUnknownFormat is returned by Render for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

type (
	// Record is the serializable view of a page.
	Record struct {
		PageID    string                 `json:"pageId" yaml:"pageId" toml:"pageId"`
		PageName  string                 `json:"pageName" yaml:"pageName" toml:"pageName"`
		PagePath  string                 `json:"pagePath" yaml:"pagePath" toml:"pagePath"`
		Routes    []nextpage.RouteParams `json:"routes" yaml:"routes" toml:"routes"`
		Overrides map[string]any         `json:"serverlessFunctionOverrides" yaml:"serverlessFunctionOverrides" toml:"serverlessFunctionOverrides"`
	}

	// Document is the top-level structure of the json, yaml and toml outputs.
	Document struct {
		Pages []Record `json:"pages" yaml:"pages" toml:"pages"`
	}
)

// NewRecord copies the fields of p into a Record.
func NewRecord(p *nextpage.Page) Record {
	return Record{
		PageID:    p.PageID(),
		PageName:  p.PageName(),
		PagePath:  p.PagePath(),
		Routes:    p.Routes(),
		Overrides: p.ServerlessFunctionOverrides(),
	}
}

// NewDocument builds the document for pages in order.
func NewDocument(pages []*nextpage.Page) Document {
	records := make([]Record, 0, len(pages))
	for _, p := range pages {
		records = append(records, NewRecord(p))
	}
	return Document{Pages: records}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML, FormatTOML}
}

// Render writes pages to w in the named format.
func Render(w io.Writer, format string, pages []*nextpage.Page) error {
	doc := NewDocument(pages)

	switch format {
	case FormatTable:
		_, err := io.WriteString(w, renderTable(doc))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	default:
		return fmt.Errorf("%w %q (valid: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

func renderTable(doc Document) string {
	header := []string{"PAGE ID", "NAME", "PATH", "ROUTES", "OVERRIDES"}
	rows := make([][]string, 0, len(doc.Pages))
	for _, r := range doc.Pages {
		rows = append(rows, []string{
			r.PageID,
			r.PageName,
			r.PagePath,
			strconv.Itoa(len(r.Routes)),
			overrideSummary(r.Overrides),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var sb strings.Builder
	sb.WriteString(renderRow(header, widths, func(int) lipgloss.Style { return headerStyle }))
	for _, row := range rows {
		sb.WriteString(renderRow(row, widths, func(col int) lipgloss.Style {
			if col == 0 {
				return idStyle
			}
			return lipgloss.NewStyle()
		}))
	}
	if len(rows) == 0 {
		sb.WriteString(mutedStyle.Render("(no pages)") + "\n")
	}
	return sb.String()
}

func renderRow(cells []string, widths []int, style func(col int) lipgloss.Style) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		s := cellStyle.Width(widths[i] + cellStyle.GetPaddingRight())
		if i == len(cells)-1 {
			s = lipgloss.NewStyle()
		}
		parts[i] = s.Render(style(i).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n"
}

func overrideSummary(overrides map[string]any) string {
	if len(overrides) == 0 {
		return "-"
	}
	keys := slices.Sorted(maps.Keys(overrides))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, overrides[k])
	}
	return strings.Join(parts, " ")
}
