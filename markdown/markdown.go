// Package markdown renders markdown text to ANSI-styled terminal output
// using goldmark for parsing and lipgloss for styling.
//
// GitHub-flavored extensions are enabled since model answers often carry
// tables, task lists and strikethrough. Display widths are measured in
// terminal cells, so wide runes (CJK, emoji) wrap and align correctly.
package markdown

import "github.com/codexflow/codexflow"

// DefaultWidth is used when Render is called with a non-positive width.
const DefaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered at full width without reflow.
func Render(source string, width int, theme codexflow.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return newRenderer(theme).render([]byte(source), width)
}
