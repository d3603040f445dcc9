package bubbletea

import (
	"errors"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/codexflow/codexflow"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders a failed turn. Gateway and pipeline failures get a
// muted hint line below the message.
type ErrorBlock struct {
	err    error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err error, styles Styles) *ErrorBlock {
	return &ErrorBlock{err: err, styles: styles}
}

func (b *ErrorBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render("Error: " + b.err.Error())
	if hint := errorHint(b.err); hint != "" {
		content += "\n" + b.styles.Muted.Render(hint)
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}

func errorHint(err error) string {
	var httpErr *codexflow.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "Check the gateway key (-api-key or LITELLM_API_KEY)."
		case http.StatusNotFound:
			return "Check the model ID and the gateway base URL."
		case http.StatusTooManyRequests:
			return "The gateway is rate limiting requests; retry later."
		}
		return ""
	}
	var stageErr *codexflow.StageError
	if errors.As(err, &stageErr) {
		return "cf-x stopped at the " + stageErr.Stage + " step; later steps were skipped."
	}
	return ""
}
