// Package bubbletea provides a Bubble Tea chat TUI over a codexflow provider.
package bubbletea

import (
	"context"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/codexflow/codexflow"
)

// RunFunc streams one assistant turn for the conversation so far. The
// onEvent callback is called for each streaming event. The function blocks
// until the turn completes or the context is cancelled.
type RunFunc func(ctx context.Context, msgs []codexflow.Message, onEvent func(codexflow.Event)) (codexflow.AssistantMessage, error)

// ProviderRun returns a RunFunc that sends req with the conversation as its
// messages and drains the resulting stream.
func ProviderRun(p codexflow.Provider, req codexflow.Request) RunFunc {
	return func(ctx context.Context, msgs []codexflow.Message, onEvent func(codexflow.Event)) (codexflow.AssistantMessage, error) {
		r := req
		r.Messages = slices.Clone(msgs)
		stream, err := p.Stream(ctx, r)
		if err != nil {
			return codexflow.AssistantMessage{}, err
		}
		defer stream.Close()
		return codexflow.Drain(stream, onEvent)
	}
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamEventMsg wraps a streaming event for delivery to the Bubble Tea model.
type StreamEventMsg struct {
	Event codexflow.Event
}

// DoneMsg signals that an assistant turn has finished.
type DoneMsg struct {
	Message codexflow.AssistantMessage
	Err     error
}

// SubmitMsg submits Text as the next user turn, as if typed and sent.
type SubmitMsg struct {
	Text string
}
