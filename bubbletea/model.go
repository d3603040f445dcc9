package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/codexflow/codexflow"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the status line until the first event of a turn.
	Spinner spinner.Model

	run      RunFunc
	theme    codexflow.Theme
	styles   Styles
	prompt   string
	messages []codexflow.Message

	blocks     []MessageBlock
	blockFocus int // index of focused tool call block (-1 = none)

	// Blocks receiving deltas in the current turn. Tool calls are keyed by
	// EventToolCallPartial.Index.
	activeText     *AssistantTextBlock
	activeToolCall map[int]*ToolCallBlock

	running bool
	waiting bool
	cancel  context.CancelFunc
	eventCh chan codexflow.Event
	doneCh  chan DoneMsg
	err     error
	ready   bool
}

// Option configures a Model.
type Option func(*Model)

// WithPrompt submits prompt as the first user turn when the program starts.
func WithPrompt(prompt string) Option {
	return func(m *Model) {
		m.prompt = strings.TrimSpace(prompt)
	}
}

// WithHistory seeds the conversation with earlier messages.
func WithHistory(msgs []codexflow.Message) Option {
	return func(m *Model) {
		m.messages = slices.Clone(msgs)
	}
}

// New creates a new TUI Model with the given run function and theme.
func New(run RunFunc, theme codexflow.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	styles := NewStyles(theme)
	m := Model{
		Input:          ti,
		Spinner:        spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent)),
		run:            run,
		theme:          theme,
		styles:         styles,
		blockFocus:     -1,
		activeToolCall: make(map[int]*ToolCallBlock),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m = m.renderHistory()
	return m
}

// Running returns whether a turn is currently streaming.
func (m Model) Running() bool { return m.running }

// Err returns the error of the last turn, if any.
func (m Model) Err() error { return m.err }

// Messages returns the conversation so far.
func (m Model) Messages() []codexflow.Message { return slices.Clone(m.messages) }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.prompt == "" {
		return textinput.Blink
	}
	prompt := m.prompt
	return tea.Batch(textinput.Blink, func() tea.Msg { return SubmitMsg{Text: prompt} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SubmitMsg:
		text := strings.TrimSpace(msg.Text)
		if m.running || text == "" {
			return m, nil
		}
		return m.submitInput(text)

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case StreamEventMsg:
		m.waiting = false
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case DoneMsg:
		m = m.finishTurn(msg)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		return m, m.Input.Focus()
	}

	// Viewport always receives remaining messages for scrolling.
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	const (
		inputHeight  = 1
		statusHeight = 1
		borderHeight = 2 // newlines between sections
	)
	vpHeight := max(msg.Height-inputHeight-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// When idle, character keys go to the input only; other keys also
	// scroll the viewport.
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	m.messages = append(m.messages, codexflow.UserMessage{
		Content: []codexflow.ContentBlock{codexflow.TextBlock{Text: text}},
	})
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.activeText = nil
	m.activeToolCall = make(map[int]*ToolCallBlock)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.eventCh = make(chan codexflow.Event, 256)
	m.doneCh = make(chan DoneMsg, 1)
	m.running = true
	m.waiting = true

	m.Input.Blur()

	return m, tea.Batch(
		startRun(m.run, ctx, slices.Clone(m.messages), m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
		m.Spinner.Tick,
	)
}

// finishTurn records the outcome of a turn. Completed turns join the
// conversation. Failed and cancelled turns drop their user message.
func (m Model) finishTurn(msg DoneMsg) Model {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.waiting = false
	m.cancel = nil
	m.eventCh = nil
	m.doneCh = nil
	m.activeText = nil

	switch {
	case msg.Err == nil:
		m.messages = append(m.messages, msg.Message)
		return m.updateBlockFocus()
	case errors.Is(msg.Err, context.Canceled), errors.Is(msg.Err, codexflow.ErrRequestAborted):
	default:
		m.err = msg.Err
		m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
	}
	if n := len(m.messages); n > 0 && m.messages[n-1].Role() == codexflow.RoleUser {
		m.messages = m.messages[:n-1]
	}
	return m.updateBlockFocus()
}

// renderHistory creates blocks from seeded conversation messages.
func (m Model) renderHistory() Model {
	for _, msg := range m.messages {
		switch msg := msg.(type) {
		case codexflow.UserMessage:
			if text := codexflow.Text(msg.Content, "\n"); text != "" {
				m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
			}
		case codexflow.AssistantMessage:
			for i, cb := range msg.Content {
				switch cb := cb.(type) {
				case codexflow.TextBlock:
					block := NewAssistantTextBlock(m.theme)
					block.Append(cb.Text)
					m.blocks = append(m.blocks, block)
				case codexflow.ToolCallBlock:
					block := NewToolCallBlock(i, m.styles)
					block.Apply(codexflow.EventToolCallPartial{Index: i, ID: cb.ID, Name: cb.Name, Arguments: string(cb.Arguments)})
					m.blocks = append(m.blocks, block)
				}
			}
		}
	}
	return m.updateBlockFocus()
}

func (m Model) renderContent() string {
	var b strings.Builder
	var prev MessageBlock
	for _, block := range m.blocks {
		view := block.View(m.Viewport.Width)
		if view == "" {
			continue
		}
		if prev != nil {
			b.WriteString(blockSeparator(prev, block))
		}
		b.WriteString(view)
		prev = block
	}
	return b.String()
}

// processEvent routes a streaming event to the appropriate block.
func (m Model) processEvent(evt codexflow.Event) Model {
	switch e := evt.(type) {
	case codexflow.EventTextDelta:
		if e.Delta == "" {
			return m
		}
		if m.activeText == nil {
			m.activeText = NewAssistantTextBlock(m.theme)
			m.blocks = append(m.blocks, m.activeText)
		}
		m.activeText.Append(e.Delta)
	case codexflow.EventToolCallPartial:
		// Text after a tool call starts a new block below it.
		m.activeText = nil
		b, ok := m.activeToolCall[e.Index]
		if !ok {
			b = NewToolCallBlock(e.Index, m.styles)
			m.blocks = append(m.blocks, b)
			m.activeToolCall[e.Index] = b
			m = m.updateBlockFocus()
		}
		b.Apply(e)
	case codexflow.EventUsage:
		if e.InputTokens == 0 && e.OutputTokens == 0 && e.TotalCost == 0 {
			return m
		}
		m.blocks = append(m.blocks, NewUsageBlock(e.Usage(), m.styles))
	}
	return m
}

// updateBlockFocus moves focus to the last tool call block.
func (m Model) updateBlockFocus() Model {
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*ToolCallBlock); ok {
			return m.focus(i)
		}
	}
	return m.focus(-1)
}

// cycleFocusPrev moves focus to the previous tool call block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if _, ok := m.blocks[idx].(*ToolCallBlock); ok {
			return m.focus(idx)
		}
	}
	return m.focus(-1)
}

func (m Model) focus(idx int) Model {
	if m.blockFocus >= 0 && m.blockFocus < len(m.blocks) {
		m.blocks[m.blockFocus], _ = m.blocks[m.blockFocus].Update(FocusMsg{Focused: false})
	}
	m.blockFocus = idx
	if idx >= 0 {
		m.blocks[idx], _ = m.blocks[idx].Update(FocusMsg{Focused: true})
	}
	return m
}

func (m Model) statusLine() string {
	switch {
	case m.waiting:
		return m.Spinner.View() + " " + m.styles.Muted.Render("Waiting for response... (Ctrl+C to cancel)")
	case m.running:
		return m.styles.Muted.Render("Generating... (Ctrl+C to cancel)")
	case m.err != nil:
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return m.styles.Muted.Render("Enter to send, Tab to expand tool calls, Ctrl+C to quit")
}

// startRun streams one turn in a goroutine and signals completion.
func startRun(run RunFunc, ctx context.Context, msgs []codexflow.Message, eventCh chan<- codexflow.Event, doneCh chan<- DoneMsg) tea.Cmd {
	return func() tea.Msg {
		msg, err := run(ctx, msgs, func(e codexflow.Event) {
			select {
			case eventCh <- e:
			case <-ctx.Done():
			}
		})
		close(eventCh)
		doneCh <- DoneMsg{Message: msg, Err: err}
		return nil
	}
}

// listenForEvent waits for the next event from the channel.
// When the channel closes, it returns the DoneMsg from doneCh.
func listenForEvent(ch <-chan codexflow.Event, doneCh <-chan DoneMsg) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return <-doneCh
		}
		return StreamEventMsg{Event: evt}
	}
}
