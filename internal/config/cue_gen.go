// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func cueList(items []string, indent string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	line := "[" + strings.Join(quoted, ", ") + "]"
	if len(indent)+len(line) <= 80 {
		return line
	}
	return "[\n" + indent + "\t" + strings.Join(quoted, ",\n"+indent+"\t") + ",\n" + indent + "]"
}

// cueValue renders a decoded JSON-like value as CUE source.
func cueValue(v any, indent string) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		if len(x) == 0 {
			return "{}"
		}
		var sb strings.Builder
		sb.WriteString("{\n")
		for _, k := range sortedKeys(x) {
			fmt.Fprintf(&sb, "%s\t%s: %s\n", indent, strconv.Quote(k), cueValue(x[k], indent+"\t"))
		}
		sb.WriteString(indent + "}")
		return sb.String()
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = cueValue(e, indent)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}
