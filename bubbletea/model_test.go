package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/codexflow/codexflow"
	bt "github.com/codexflow/codexflow/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	m := bt.New(nopRun, codexflow.DefaultTheme())

	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
	assert.Empty(t, m.Messages())
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size initializes viewport", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)

		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 20, m.Viewport.Height) // 24 - 1 - 1 - 2
		assert.Contains(t, m.View(), "Enter to send")
	})

	t.Run("window size resize updates viewport dimensions", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

		assert.Equal(t, 120, m.Viewport.Width)
		assert.Equal(t, 36, m.Viewport.Height)
	})

	t.Run("tiny terminal keeps a one-line viewport", func(t *testing.T) {
		t.Parallel()

		m := initModelWithSize(t, nopRun, 20, 2)

		assert.Equal(t, 1, m.Viewport.Height)
	})

	t.Run("window size resize re-renders viewport content", func(t *testing.T) {
		t.Parallel()

		m := initModelWithSize(t, nopRun, 30, 20)
		longLine := "word1 word2 word3 word4 word5 word6 word7 word8"
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: longLine}})

		m = updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 20})

		found := false
		for _, line := range strings.Split(m.Viewport.View(), "\n") {
			if strings.Contains(line, "word1") && strings.Contains(line, "word8") {
				found = true
				break
			}
		}
		assert.True(t, found, "expected word1 and word8 on the same line after resize, got:\n%s", m.Viewport.View())
	})

	t.Run("ctrl+c when idle quits", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})

	t.Run("ctrl+c during a turn cancels it without quitting", func(t *testing.T) {
		t.Parallel()

		var cancelled atomic.Bool
		m := bt.SetRunningWithCancel(initModel(t, nopRun), func() { cancelled.Store(true) })

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		assert.True(t, cancelled.Load())
		assert.Nil(t, cmd)
		assert.True(t, updated.(bt.Model).Running())
	})

	t.Run("enter with empty input does nothing", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m.Input.SetValue("   ")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.False(t, updated.(bt.Model).Running())
		assert.Nil(t, cmd)
	})

	t.Run("enter during a turn is ignored", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunningWithCancel(initModel(t, nopRun), func() {})
		m.Input.SetValue("again")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		assert.Empty(t, m.Messages())
		assert.Equal(t, "again", m.Input.Value())
	})

	t.Run("submit starts a turn with a spinner", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m.Input.SetValue("hi")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)

		require.NotNil(t, cmd)
		assert.True(t, m.Running())
		assert.True(t, bt.Waiting(m))
		assert.Empty(t, m.Input.Value())
		assert.Equal(t, []codexflow.Message{userText("hi")}, m.Messages())
		assert.Contains(t, m.View(), "> hi")
		assert.Contains(t, m.View(), "Waiting for response")
	})

	t.Run("submit message is trimmed and ignored when blank", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.SubmitMsg{Text: "  "})
		assert.False(t, m.Running())

		m = updateModel(t, m, bt.SubmitMsg{Text: " hello "})
		assert.True(t, m.Running())
		assert.Equal(t, []codexflow.Message{userText("hello")}, m.Messages())
	})

	t.Run("first event stops the spinner", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.SubmitMsg{Text: "hi"})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "hel"}})

		assert.False(t, bt.Waiting(m))
		assert.Contains(t, m.View(), "Generating...")
		assert.Contains(t, m.View(), "hel")
	})

	t.Run("completed turn joins the conversation", func(t *testing.T) {
		t.Parallel()

		reply := codexflow.AssistantMessage{
			Content:    []codexflow.ContentBlock{codexflow.TextBlock{Text: "hello"}},
			StopReason: codexflow.StopEndTurn,
		}
		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.SubmitMsg{Text: "hi"})
		m = updateModel(t, m, bt.DoneMsg{Message: reply})

		assert.False(t, m.Running())
		assert.NoError(t, m.Err())
		assert.Equal(t, []codexflow.Message{userText("hi"), reply}, m.Messages())
		assert.Contains(t, m.View(), "Enter to send")
	})

	t.Run("failed turn shows error and drops the user message", func(t *testing.T) {
		t.Parallel()

		boom := &codexflow.HTTPError{Provider: "litellm", StatusCode: 500, Message: "upstream down"}
		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.SubmitMsg{Text: "hi"})
		m = updateModel(t, m, bt.DoneMsg{Err: boom})

		assert.False(t, m.Running())
		assert.ErrorIs(t, m.Err(), boom)
		assert.Empty(t, m.Messages())
		assert.Contains(t, ansi.Strip(bt.RenderContent(m)), "upstream down")
	})

	t.Run("cancelled turn is not an error", func(t *testing.T) {
		t.Parallel()

		for _, err := range []error{context.Canceled, fmt.Errorf("litellm: %w", codexflow.ErrRequestAborted)} {
			m := initModel(t, nopRun)
			m = updateModel(t, m, bt.SubmitMsg{Text: "hi"})
			m = updateModel(t, m, bt.DoneMsg{Err: err})

			assert.NoError(t, m.Err())
			assert.Empty(t, m.Messages())
		}
	})

	t.Run("submit after error clears it", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.SubmitMsg{Text: "hi"})
		m = updateModel(t, m, bt.DoneMsg{Err: errors.New("boom")})
		require.Error(t, m.Err())

		m = updateModel(t, m, bt.SubmitMsg{Text: "again"})

		assert.NoError(t, m.Err())
		assert.True(t, m.Running())
	})

	t.Run("spinner tick is ignored when not waiting", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		_, cmd := m.Update(m.Spinner.Tick())

		assert.Nil(t, cmd)
	})
}

func TestModel_Events(t *testing.T) {
	t.Parallel()

	t.Run("text deltas append to one block", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "hello "}})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "world"}})

		assert.Equal(t, "hello world", plain(bt.RenderContent(m)))
	})

	t.Run("empty placeholder delta renders nothing", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{}})

		assert.Empty(t, bt.RenderContent(m))
	})

	t.Run("tool call fragments correlate by index", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		for _, e := range []codexflow.EventToolCallPartial{
			{Index: 0, ID: "call_1", Name: "read_file", Arguments: `{"pa`},
			{Index: 1, ID: "call_2", Name: "list_dir", Arguments: `{}`},
			{Index: 0, Arguments: `th":"a"}`},
		} {
			m = updateModel(t, m, bt.StreamEventMsg{Event: e})
		}
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})

		assert.Equal(t, " ▼ read_file\n "+`{"path":"a"}`+"\n ▶ list_dir", plain(bt.RenderContent(m)))
	})

	t.Run("text after tool calls starts a new block", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "before"}})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventToolCallPartial{Name: "search"}})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "after"}})

		assert.Equal(t, "before\n\n ▶ search\n\nafter", plain(bt.RenderContent(m)))
	})

	t.Run("usage renders a footer", func(t *testing.T) {
		t.Parallel()

		read := 60
		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "done"}})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventUsage{
			InputTokens: 100, OutputTokens: 20, CacheReadTokens: &read, TotalCost: 0.5,
		}})

		assert.Equal(t, "done\n\n100 in · 20 out · 60 cache read tokens · $0.5000", plain(bt.RenderContent(m)))
	})

	t.Run("zero usage renders no footer", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "done"}})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventUsage{}})

		assert.Equal(t, "done", plain(bt.RenderContent(m)))
	})

	t.Run("new turn does not reuse previous text block", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.SubmitMsg{Text: "one"})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "first"}})
		m = updateModel(t, m, bt.DoneMsg{})
		m = updateModel(t, m, bt.SubmitMsg{Text: "two"})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "second"}})

		assert.Equal(t, "> one\n\nfirst\n\n> two\n\nsecond", plain(bt.RenderContent(m)))
	})
}

func TestModel_BlockFocus(t *testing.T) {
	t.Parallel()

	t.Run("tab toggles the latest tool call", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventToolCallPartial{Name: "grep", Arguments: `{"q":"x"}`}})
		assert.NotContains(t, bt.RenderContent(m), `"q"`)

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})
		assert.Contains(t, bt.RenderContent(m), `"q"`)
	})

	t.Run("tab without tool calls is a no-op", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: "text"}})
		before := bt.RenderContent(m)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})

		assert.Nil(t, cmd)
		assert.Equal(t, before, bt.RenderContent(m))
	})

	t.Run("tab during a turn is ignored", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m = updateModel(t, m, bt.SubmitMsg{Text: "go"})
		m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventToolCallPartial{Name: "grep", Arguments: `{"q":"x"}`}})
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})

		assert.NotContains(t, bt.RenderContent(m), `"q"`)
	})
}

func TestModel_History(t *testing.T) {
	t.Parallel()

	history := []codexflow.Message{
		userText("hello there"),
		codexflow.AssistantMessage{Content: []codexflow.ContentBlock{
			codexflow.TextBlock{Text: "Let me look."},
			codexflow.ToolCallBlock{ID: "call_1", Name: "read_file", Arguments: []byte(`{"path":"a"}`)},
		}},
	}
	m := initModel(t, nopRun, bt.WithHistory(history))

	assert.Equal(t, history, m.Messages())
	assert.Equal(t, "> hello there\n\nLet me look.\n\n ▶ read_file", plain(bt.RenderContent(m)))
}

func TestModel_Viewport(t *testing.T) {
	t.Parallel()

	t.Run("view is constrained to viewport height", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		m.Viewport = viewport.New(80, 5)
		for i := range 50 {
			m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: fmt.Sprintf("line-%d\n\n", i)}})
		}

		assert.Less(t, len(strings.Split(m.View(), "\n")), 50)
		assert.Contains(t, m.Viewport.View(), "line-49")
	})

	t.Run("scroll keys work when idle", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopRun)
		for i := range 30 {
			m = updateModel(t, m, bt.StreamEventMsg{Event: codexflow.EventTextDelta{Delta: fmt.Sprintf("line-%d\n\n", i)}})
		}
		require.Contains(t, m.Viewport.View(), "line-29")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyPgUp})

		assert.NotContains(t, m.Viewport.View(), "line-29")
	})
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("full turn with event delivery", func(t *testing.T) {
		t.Parallel()

		var got []codexflow.Message
		run := func(_ context.Context, msgs []codexflow.Message, onEvent func(codexflow.Event)) (codexflow.AssistantMessage, error) {
			got = msgs
			onEvent(codexflow.EventTextDelta{Delta: "Hello!"})
			onEvent(codexflow.EventUsage{InputTokens: 3, OutputTokens: 2})
			return codexflow.AssistantMessage{
				Content:    []codexflow.ContentBlock{codexflow.TextBlock{Text: "Hello!"}},
				StopReason: codexflow.StopEndTurn,
			}, nil
		}

		tm := teatest.NewTestModel(t, bt.New(run, codexflow.DefaultTheme()),
			teatest.WithInitialTermSize(80, 24),
		)

		tm.Type("hi")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Hello!")) &&
				bytes.Contains(out, []byte("3 in")) &&
				bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.False(t, final.Running())
		assert.NoError(t, final.Err())
		assert.Len(t, final.Messages(), 2)
		assert.Equal(t, []codexflow.Message{userText("hi")}, got)
	})

	t.Run("initial prompt is submitted on start", func(t *testing.T) {
		t.Parallel()

		run := func(_ context.Context, msgs []codexflow.Message, onEvent func(codexflow.Event)) (codexflow.AssistantMessage, error) {
			onEvent(codexflow.EventTextDelta{Delta: "echo: " + codexflow.Text(msgs[0].(codexflow.UserMessage).Content, "")})
			return codexflow.AssistantMessage{}, nil
		}

		tm := teatest.NewTestModel(t, bt.New(run, codexflow.DefaultTheme(), bt.WithPrompt("ping")),
			teatest.WithInitialTermSize(80, 24),
		)

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("echo: ping")) &&
				bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	})

	t.Run("ctrl+c cancels the request context", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		run := func(ctx context.Context, _ []codexflow.Message, onEvent func(codexflow.Event)) (codexflow.AssistantMessage, error) {
			onEvent(codexflow.EventTextDelta{Delta: "partial"})
			close(started)
			<-ctx.Done()
			return codexflow.AssistantMessage{}, fmt.Errorf("litellm: %w: %w", codexflow.ErrRequestAborted, ctx.Err())
		}

		tm := teatest.NewTestModel(t, bt.New(run, codexflow.DefaultTheme(), bt.WithPrompt("long task")),
			teatest.WithInitialTermSize(80, 24),
		)

		<-started
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("partial"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))
		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final := fm.(bt.Model)
		assert.NoError(t, final.Err())
		assert.Empty(t, final.Messages())
	})
}
