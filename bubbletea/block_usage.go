package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/codexflow/codexflow"
)

var _ MessageBlock = (*UsageBlock)(nil)

// UsageBlock renders the token and cost footer of one assistant turn.
type UsageBlock struct {
	usage  codexflow.Usage
	styles Styles
}

// NewUsageBlock creates a UsageBlock.
func NewUsageBlock(usage codexflow.Usage, styles Styles) *UsageBlock {
	return &UsageBlock{usage: usage, styles: styles}
}

func (b *UsageBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *UsageBlock) View(width int) string {
	parts := []string{fmt.Sprintf("%d in", b.usage.InputTokens), fmt.Sprintf("%d out", b.usage.OutputTokens)}
	if b.usage.CacheWriteTokens > 0 {
		parts = append(parts, fmt.Sprintf("%d cache write", b.usage.CacheWriteTokens))
	}
	if b.usage.CacheReadTokens > 0 {
		parts = append(parts, fmt.Sprintf("%d cache read", b.usage.CacheReadTokens))
	}
	line := strings.Join(parts, " · ") + " tokens"
	if b.usage.TotalCost > 0 {
		line += " · " + b.styles.Success.Render(fmt.Sprintf("$%.4f", b.usage.TotalCost))
	}
	return b.styles.Muted.Render(line)
}
