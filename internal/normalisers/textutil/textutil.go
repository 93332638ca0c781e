// Package textutil holds small helpers shared by the normalisers.
package textutil

import (
	"path/filepath"
	"strings"
)

// TitleFromURI derives a readable title from a file path:
// the base name without extension, underscores and dashes as spaces.
func TitleFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}

// NormaliseNewlines converts CRLF and CR line endings to LF and strips a
// leading UTF-8 byte order mark.
func NormaliseNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CompactLines trims every line and drops empty ones.
func CompactLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Pages joins page texts with a blank line and returns the byte offset at
// which each page starts in the joined string.
func Pages(pages []string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(pages))
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		offsets = append(offsets, b.Len())
		b.WriteString(p)
	}
	return b.String(), offsets
}
