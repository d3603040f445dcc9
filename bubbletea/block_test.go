package bubbletea_test

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/codexflow/codexflow"
	bt "github.com/codexflow/codexflow/bubbletea"
	"github.com/codexflow/codexflow/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plain strips ANSI codes and the padding lipgloss adds to each line.
func plain(s string) string {
	lines := strings.Split(ansi.Strip(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

func TestAssistantTextBlock_View(t *testing.T) {
	t.Parallel()

	theme := codexflow.DefaultTheme()

	t.Run("renders markdown", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		block.Append("hello **world**")
		view := ansi.Strip(block.View(80))
		assert.Contains(t, view, "hello world")
		assert.NotContains(t, view, "**")
	})

	t.Run("append accumulates deltas", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		block.Append("hello ")
		block.Append("world")
		assert.Equal(t, "hello world", block.Text())
		assert.Contains(t, ansi.Strip(block.View(80)), "hello world")
	})

	t.Run("settled paragraph stays while trailing text streams", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		block.Append("first paragraph\n\n")
		block.Append("trailing")
		assert.Equal(t, "first paragraph\n\ntrailing", plain(block.View(80)))
	})

	t.Run("matches a full render once streaming ends", func(t *testing.T) {
		t.Parallel()
		source := "# Title\n\nsome *text*\n\n- a\n- b"
		block := bt.NewAssistantTextBlock(theme)
		for _, r := range source {
			block.Append(string(r))
		}
		assert.Equal(t, markdown.Render(source, 80, theme), block.View(80))
	})

	t.Run("width change re-renders settled content", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		block.Append("word1 word2 word3 word4 word5 word6\n\ntail")
		narrow := block.View(20)
		wide := block.View(80)
		assert.NotEqual(t, strings.Count(narrow, "\n"), strings.Count(wide, "\n"))
	})

	t.Run("content ending at paragraph break has no trailing blank lines", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		block.Append("complete paragraph\n\n")
		assert.Equal(t, markdown.Render("complete paragraph", 80, theme), block.View(80))
	})

	t.Run("unclosed code fence renders as code", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		block.Append("```go\nfmt.Println(\"x\")")
		view := ansi.Strip(block.View(80))
		assert.Contains(t, view, "fmt.Println")
		assert.NotContains(t, view, "```")
	})

	t.Run("blank line inside code fence does not settle", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		block.Append("text\n\n```go\nfunc() {\n\ncode")
		view := ansi.Strip(block.View(80))
		assert.Contains(t, view, "text")
		assert.Contains(t, view, "code")
		assert.NotContains(t, view, "```")
	})

	t.Run("update returns self with no command", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		updated, cmd := block.Update(tea.KeyMsg{})
		assert.Equal(t, block, updated)
		assert.Nil(t, cmd)
	})

	t.Run("empty content renders empty string", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, bt.NewAssistantTextBlock(theme).View(80))
	})

	t.Run("zero width falls back to default width", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(theme)
		block.Append("hello\n\nworld")
		assert.Equal(t, "hello\n\nworld", plain(block.View(0)))
	})
}

func TestToolCallBlock(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(codexflow.DefaultTheme())

	t.Run("collapsed shows tool name", func(t *testing.T) {
		t.Parallel()
		block := bt.NewToolCallBlock(0, styles)
		block.Apply(codexflow.EventToolCallPartial{ID: "call_1", Name: "read_file", Arguments: `{"path":`})
		view := ansi.Strip(block.View(80))
		assert.Contains(t, view, "▶ read_file")
		assert.NotContains(t, view, "path")
	})

	t.Run("expanded shows accumulated arguments", func(t *testing.T) {
		t.Parallel()
		block := bt.NewToolCallBlock(0, styles)
		block.Apply(codexflow.EventToolCallPartial{ID: "call_1", Name: "read_file", Arguments: `{"path":`})
		block.Apply(codexflow.EventToolCallPartial{Arguments: `"/tmp/foo"}`})
		updated, _ := block.Update(bt.ToggleMsg{})
		view := ansi.Strip(updated.View(80))
		assert.Contains(t, view, "▼ read_file")
		assert.Contains(t, view, `{"path":"/tmp/foo"}`)
	})

	t.Run("first id and name win", func(t *testing.T) {
		t.Parallel()
		block := bt.NewToolCallBlock(2, styles)
		block.Apply(codexflow.EventToolCallPartial{Index: 2, ID: "call_a", Name: "first"})
		block.Apply(codexflow.EventToolCallPartial{Index: 2, ID: "call_b", Name: "second"})
		assert.Equal(t, 2, block.Index())
		assert.Equal(t, "call_a", block.ID())
		assert.Contains(t, ansi.Strip(block.View(80)), "first")
	})

	t.Run("nameless call has a generic label", func(t *testing.T) {
		t.Parallel()
		block := bt.NewToolCallBlock(0, styles)
		block.Apply(codexflow.EventToolCallPartial{Arguments: "{}"})
		assert.Contains(t, ansi.Strip(block.View(80)), "▶ tool call")
	})

	t.Run("toggle twice collapses again", func(t *testing.T) {
		t.Parallel()
		block := bt.NewToolCallBlock(0, styles)
		block.Apply(codexflow.EventToolCallPartial{Name: "x", Arguments: `{"path":"x"}`})
		updated, _ := block.Update(bt.ToggleMsg{})
		updated, _ = updated.Update(bt.ToggleMsg{})
		assert.NotContains(t, updated.View(80), "path")
	})

	t.Run("pads each line to full width with a leading space", func(t *testing.T) {
		t.Parallel()
		block := bt.NewToolCallBlock(0, styles)
		block.Apply(codexflow.EventToolCallPartial{Name: "read", Arguments: `{"path": "/tmp/foo"}`})
		updated, _ := block.Update(bt.ToggleMsg{})
		for _, line := range strings.Split(updated.View(40), "\n") {
			assert.Equal(t, 40, lipgloss.Width(line))
			assert.True(t, strings.HasPrefix(ansi.Strip(line), " "))
		}
	})
}

func TestUserMessageBlock_View(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(codexflow.DefaultTheme())

	t.Run("single line", func(t *testing.T) {
		t.Parallel()
		view := bt.NewUserMessageBlock("hello world", styles).View(40)

		assert.Equal(t, "> hello world", plain(view))
		for _, line := range strings.Split(view, "\n") {
			assert.Equal(t, 40, lipgloss.Width(line))
		}
	})

	t.Run("continuation lines hang under the text", func(t *testing.T) {
		t.Parallel()
		view := bt.NewUserMessageBlock("first\nsecond", styles).View(40)

		assert.Equal(t, "> first\n  second", plain(view))
	})

	t.Run("wrapped lines stay inside the width", func(t *testing.T) {
		t.Parallel()
		view := bt.NewUserMessageBlock(strings.Repeat("word ", 12), styles).View(20)

		lines := strings.Split(plain(view), "\n")
		require.Greater(t, len(lines), 1)
		assert.True(t, strings.HasPrefix(lines[0], "> "))
		for _, line := range lines[1:] {
			assert.True(t, strings.HasPrefix(line, "  "), "line %q", line)
		}
		for _, line := range strings.Split(view, "\n") {
			assert.Equal(t, 20, lipgloss.Width(line))
		}
	})
}

func TestErrorBlock_View(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(codexflow.DefaultTheme())

	tests := []struct {
		name     string
		err      error
		wantHint string
	}{
		{"plain error", errors.New("something broke"), ""},
		{"unauthorized", &codexflow.HTTPError{Provider: "LiteLLM", StatusCode: 401, Message: "bad key"}, "Check the gateway key"},
		{"not found", &codexflow.HTTPError{Provider: "LiteLLM", StatusCode: 404, Message: "no model"}, "Check the model ID"},
		{"rate limited", &codexflow.HTTPError{Provider: "LiteLLM", StatusCode: 429, Message: "slow down"}, "rate limiting"},
		{"server error", &codexflow.HTTPError{Provider: "LiteLLM", StatusCode: 500, Message: "boom"}, ""},
		{
			"pipeline stage",
			&codexflow.PipelineError{Err: &codexflow.StageError{Stage: "code", StatusCode: 502, Body: "bad gateway"}},
			"cf-x stopped at the code step",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := plain(bt.NewErrorBlock(tt.err, styles).View(120))
			lines := strings.Split(got, "\n")

			assert.Equal(t, "Error: "+tt.err.Error(), lines[0])
			if tt.wantHint == "" {
				assert.Len(t, lines, 1)
				return
			}
			require.Len(t, lines, 2)
			assert.Contains(t, lines[1], tt.wantHint)
		})
	}
}

func TestUsageBlock_View(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(codexflow.DefaultTheme())

	tests := []struct {
		name  string
		usage codexflow.Usage
		want  string
	}{
		{
			name:  "tokens only",
			usage: codexflow.Usage{InputTokens: 12, OutputTokens: 34},
			want:  "12 in · 34 out tokens",
		},
		{
			name:  "cache and cost",
			usage: codexflow.Usage{InputTokens: 100, OutputTokens: 20, CacheWriteTokens: 5, CacheReadTokens: 60, TotalCost: 0.00123},
			want:  "100 in · 20 out · 5 cache write · 60 cache read tokens · $0.0012",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ansi.Strip(bt.NewUsageBlock(tt.usage, styles).View(80)))
		})
	}
}

func TestBlockSeparator(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(codexflow.DefaultTheme())
	call := bt.NewToolCallBlock(0, styles)
	text := bt.NewAssistantTextBlock(codexflow.DefaultTheme())

	assert.Equal(t, "\n", bt.BlockSeparator(call, bt.NewToolCallBlock(1, styles)))
	assert.Equal(t, "\n\n", bt.BlockSeparator(text, call))
	assert.Equal(t, "\n\n", bt.BlockSeparator(call, text))
	assert.Equal(t, "\n\n", bt.BlockSeparator(bt.NewUserMessageBlock("x", styles), text))
}
