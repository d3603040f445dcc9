package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/codexflow/codexflow"
	"github.com/codexflow/codexflow/markdown"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

const fence = "```"

// AssistantTextBlock renders streamed assistant text as markdown.
// Text up to the last paragraph break outside a code fence is settled: it is
// rendered once per width and cached. Only the unsettled tail is re-rendered
// as deltas arrive.
type AssistantTextBlock struct {
	raw   strings.Builder
	theme codexflow.Theme

	settled  string
	rendered map[int]string
}

// NewAssistantTextBlock creates an empty block for streaming assistant text.
func NewAssistantTextBlock(theme codexflow.Theme) *AssistantTextBlock {
	return &AssistantTextBlock{theme: theme, rendered: make(map[int]string)}
}

// Append adds a text delta.
func (b *AssistantTextBlock) Append(delta string) {
	b.raw.WriteString(delta)
	if head := settledPrefix(b.raw.String()); head != b.settled {
		b.settled = head
		clear(b.rendered)
	}
}

// Text returns the accumulated raw text.
func (b *AssistantTextBlock) Text() string { return b.raw.String() }

func (b *AssistantTextBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantTextBlock) View(width int) string {
	head := b.renderSettled(width)
	tail := strings.TrimPrefix(strings.TrimPrefix(b.raw.String(), b.settled), "\n\n")
	if strings.Count(tail, fence)%2 == 1 {
		tail += "\n" + fence
	}
	var body string
	if strings.TrimSpace(tail) != "" {
		body = markdown.Render(tail, width, b.theme)
	}
	switch {
	case strings.TrimSpace(body) == "":
		return head
	case head == "":
		return body
	default:
		return head + "\n\n" + strings.TrimLeft(body, "\n")
	}
}

func (b *AssistantTextBlock) renderSettled(width int) string {
	if b.settled == "" {
		return ""
	}
	if out, ok := b.rendered[width]; ok {
		return out
	}
	out := strings.TrimRight(markdown.Render(b.settled, width, b.theme), "\n")
	b.rendered[width] = out
	return out
}

// settledPrefix returns raw up to its last "\n\n" that does not fall inside
// an open code fence, or "" when there is none.
func settledPrefix(raw string) string {
	for end := len(raw); end > 0; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return ""
		}
		if strings.Count(raw[:idx], fence)%2 == 0 {
			return raw[:idx]
		}
		end = idx
	}
	return ""
}
