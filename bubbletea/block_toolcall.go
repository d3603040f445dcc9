package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/codexflow/codexflow"
)

var _ MessageBlock = (*ToolCallBlock)(nil)

// ToolCallBlock renders a streamed tool call with a collapsible argument view.
type ToolCallBlock struct {
	index     int
	id        string
	name      string
	args      strings.Builder
	collapsed bool
	focused   bool
	styles    Styles
}

// NewToolCallBlock creates a collapsed ToolCallBlock for the call at index.
func NewToolCallBlock(index int, styles Styles) *ToolCallBlock {
	return &ToolCallBlock{index: index, collapsed: true, styles: styles}
}

// Index returns the position of the call within its response.
func (b *ToolCallBlock) Index() int { return b.index }

// ID returns the tool call ID, empty until a fragment carried one.
func (b *ToolCallBlock) ID() string { return b.id }

// Apply merges one streamed fragment. The first non-empty ID and name win;
// arguments accumulate.
func (b *ToolCallBlock) Apply(e codexflow.EventToolCallPartial) {
	if b.id == "" {
		b.id = e.ID
	}
	if b.name == "" {
		b.name = e.Name
	}
	b.args.WriteString(e.Arguments)
}

func (b *ToolCallBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	switch msg := msg.(type) {
	case ToggleMsg:
		b.collapsed = !b.collapsed
	case FocusMsg:
		b.focused = msg.Focused
	}
	return b, nil
}

func (b *ToolCallBlock) View(width int) string {
	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	name := b.name
	if name == "" {
		name = "tool call"
	}
	style := b.styles.ToolCall
	if b.focused {
		style = b.styles.Focused
	}
	content := style.Render(indicator + " " + name)
	if !b.collapsed && b.args.Len() > 0 {
		content += "\n" + b.styles.Muted.Render(b.args.String())
	}
	return lipgloss.NewStyle().Width(width).PaddingLeft(1).Render(content)
}
