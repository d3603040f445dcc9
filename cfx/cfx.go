// Package cfx runs the cf-x pipeline: a task is planned, coded and reviewed
// by three different models.
//
// A Runner first asks the orchestrator service, which runs the whole
// pipeline remotely. When the orchestrator is unreachable or fails, the
// Runner calls the three stages itself through the LiteLLM gateway,
// streaming a banner before each stage and the stage's output after it.
// A failing stage aborts the run; later stages are not called.
package cfx

import (
	"strings"

	"github.com/codexflow/codexflow"
)

// Reserved model ids that select the pipeline.
const (
	ModelID       = "cf-x"
	ModelID3Layer = "cf-x-3-layer"
)

const (
	orchestratorPath       = "/cf-x"
	orchestratorPort       = "3000"
	defaultOrchestratorURL = "http://localhost:3000"
	stagePath              = "/v1/chat/completions"
	completionMarker       = "✅ CF-X Pipeline complete!"
	reportTitle            = "🚀 CF-X 3-Layer Results\n\n"
)

// IsPipelineModel reports whether id selects the cf-x pipeline.
func IsPipelineModel(id string) bool {
	return id == ModelID || id == ModelID3Layer
}

// TaskFromMessages extracts the pipeline task from the last message. Block
// texts are joined with a space; non-text blocks contribute empty strings.
func TaskFromMessages(msgs []codexflow.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	var content []codexflow.ContentBlock
	switch m := msgs[len(msgs)-1].(type) {
	case codexflow.UserMessage:
		content = m.Content
	case codexflow.AssistantMessage:
		content = m.Content
	case codexflow.ToolResultMessage:
		content = m.Content
	}
	parts := make([]string, len(content))
	for i, b := range content {
		if tb, ok := b.(codexflow.TextBlock); ok {
			parts[i] = tb.Text
		}
	}
	return strings.Join(parts, " ")
}
