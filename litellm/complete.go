package litellm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/codexflow/codexflow"
	"github.com/codexflow/codexflow/cfx"
)

// Complete sends prompt as a single user message and returns the reply
// text. Unlike Stream, DeepSeek models always get tool_choice "none" here,
// since there is no caller choice to honor.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.modelID("")
	if cfx.IsPipelineModel(model) {
		return c.pipeline.Complete(ctx, prompt)
	}

	info := c.modelInfo(ctx, model)
	q := c.quirks.Resolve(model)
	apiReq := apiRequest{
		Model:    model,
		Messages: []apiMessage{{Role: "user", Content: apiContent{Text: prompt}}},
	}
	if q.SuppressToolCalls {
		apiReq.ToolChoice = codexflow.ToolChoiceMode(codexflow.ToolChoiceNone)
	}
	setTokenLimit(&apiReq, q, info.MaxTokens)
	apiReq.Temperature = c.temperatureFor(q, nil)

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("litellm: %w", err)
	}
	resp, err := c.post(ctx, c.baseURL+chatPath, body, model)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", parseHTTPError(resp)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("litellm: failed to decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}

	msg := out.Choices[0].Message
	if msg.Content != nil && *msg.Content != "" {
		return *msg.Content, nil
	}
	var names []string
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name != "" {
			names = append(names, tc.Function.Name)
		}
	}
	if len(names) > 0 {
		return fmt.Sprintf(toolCallNotice, strings.Join(names, ", ")), nil
	}
	return "", nil
}
