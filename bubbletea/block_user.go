package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*UserMessageBlock)(nil)

const userPrefixWidth = 2

// UserMessageBlock renders a submitted prompt. The first line carries a "> "
// marker and wrapped or continuation lines hang under the text.
type UserMessageBlock struct {
	text   string
	styles Styles
}

// NewUserMessageBlock creates a UserMessageBlock.
func NewUserMessageBlock(text string, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{text: text, styles: styles}
}

func (b *UserMessageBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *UserMessageBlock) View(width int) string {
	body := b.text
	if width > userPrefixWidth {
		body = lipgloss.NewStyle().Width(width - userPrefixWidth).Render(body)
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = b.styles.UserMsg.Render(">") + " " + line
		} else {
			lines[i] = strings.Repeat(" ", userPrefixWidth) + line
		}
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}
