package codexflow

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	ToolCall int // Tool call header
	Error    int // Error messages
	Success  int // Success indicators, usage footer
	Muted    int // Status bar, placeholders, code gutter
	Accent   int // Headings, spinner
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		ToolCall: 3,
		Error:    1,
		Success:  2,
		Muted:    8,
		Accent:   5,
	}
}
