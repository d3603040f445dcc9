package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// MessageBlock is a renderable element in the conversation.
// Unlike tea.Model, View takes a width parameter so the root model
// controls layout and blocks are testable in isolation.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// ToggleMsg tells a collapsible block to toggle its collapsed state.
// Sent by the root model when the user presses Tab on the focused block.
type ToggleMsg struct{}

// FocusMsg tells a collapsible block whether it holds the toggle focus.
type FocusMsg struct {
	Focused bool
}

// blockSeparator returns the text placed between two adjacent blocks.
// Consecutive tool calls stack tightly; everything else gets a blank line.
func blockSeparator(prev, curr MessageBlock) string {
	_, prevCall := prev.(*ToolCallBlock)
	_, currCall := curr.(*ToolCallBlock)
	if prevCall && currCall {
		return "\n"
	}
	return "\n\n"
}
