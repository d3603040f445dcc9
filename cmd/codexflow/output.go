package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/codexflow/codexflow"
)

// streamPlain streams req and writes text deltas to stdout as they arrive.
// Tool calls and the usage summary go to stderr.
func streamPlain(ctx context.Context, p codexflow.Provider, req codexflow.Request, stdout, stderr io.Writer) error {
	stream, err := p.Stream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	var usage codexflow.Usage
	msg, err := codexflow.Drain(stream, func(e codexflow.Event) {
		switch e := e.(type) {
		case codexflow.EventTextDelta:
			fmt.Fprint(stdout, e.Delta)
		case codexflow.EventUsage:
			usage = e.Usage()
		}
	})
	fmt.Fprintln(stdout)
	if err != nil {
		return err
	}

	for _, b := range msg.Content {
		if call, ok := b.(codexflow.ToolCallBlock); ok {
			fmt.Fprintf(stderr, "tool call %s(%s)\n", call.Name, call.Arguments)
		}
	}
	if usage.InputTokens > 0 || usage.OutputTokens > 0 {
		fmt.Fprintf(stderr, "%d in, %d out tokens, $%.4f\n", usage.InputTokens, usage.OutputTokens, usage.TotalCost)
	}
	return nil
}

// catalog lists the models a gateway serves.
type catalog interface {
	Models(ctx context.Context) (map[string]codexflow.ModelInfo, error)
}

// printModels writes the gateway catalog as a table sorted by model name.
func printModels(ctx context.Context, c catalog, w io.Writer) error {
	models, err := c.Models(ctx)
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MODEL", "CONTEXT", "MAX OUT", "INPUT $/M", "OUTPUT $/M", "CACHE", "TOOLS", "IMAGES")
	for _, name := range slices.Sorted(maps.Keys(models)) {
		info := models[name]
		t.Row(
			name,
			strconv.Itoa(info.ContextWindow),
			strconv.Itoa(info.MaxTokens),
			formatPrice(info.InputPrice),
			formatPrice(info.OutputPrice),
			yesNo(info.SupportsPromptCache),
			yesNo(info.SupportsNativeTools),
			yesNo(info.SupportsImages),
		)
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
