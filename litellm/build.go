package litellm

import (
	"encoding/base64"
	"slices"

	"github.com/codexflow/codexflow"
	"github.com/codexflow/codexflow/quirks"
)

// cacheBreakpoints is the number of trailing user turns marked cacheable.
const cacheBreakpoints = 2

// buildRequest assembles the streaming request body for model.
func (c *Client) buildRequest(model string, info codexflow.ModelInfo, req codexflow.Request) apiRequest {
	q := c.quirks.Resolve(model)
	cache := c.promptCache && info.SupportsPromptCache

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = info.MaxTokens
	}

	apiReq := apiRequest{
		Model:         model,
		Messages:      buildMessages(req.SystemPrompt, req.Messages, cache),
		Stream:        true,
		StreamOptions: &apiStreamOptions{IncludeUsage: true},
	}

	if info.SupportsNativeTools && len(req.Tools) > 0 && req.ToolProtocol == codexflow.ToolProtocolNative {
		apiReq.Tools = convertTools(req.Tools)
		apiReq.ToolChoice = req.ToolChoice
	}
	if q.SuppressToolCalls && (req.ToolChoice == nil || req.ToolChoice.IsNone()) {
		apiReq.ToolChoice = codexflow.ToolChoiceMode(codexflow.ToolChoiceNone)
	}

	setTokenLimit(&apiReq, q, maxTokens)
	apiReq.Temperature = c.temperatureFor(q, req.Temperature)
	return apiReq
}

// setTokenLimit clamps n and routes it to the field the model expects.
func setTokenLimit(r *apiRequest, q quirks.Quirks, n int) {
	n = q.ClampMaxTokens(n)
	if n <= 0 {
		return
	}
	if q.UsesMaxCompletionTokens {
		r.MaxCompletionTokens = n
	} else {
		r.MaxTokens = n
	}
}

// temperatureFor returns the temperature to send, or nil when the model
// rejects it. The request value wins over the client default, then 0.
func (c *Client) temperatureFor(q quirks.Quirks, requested *float64) *float64 {
	if !q.SupportsTemperature {
		return nil
	}
	t := 0.0
	switch {
	case requested != nil:
		t = *requested
	case c.temperature != nil:
		t = *c.temperature
	}
	return &t
}

// buildMessages prepends the system prompt and, when cache is set, marks
// the system block and the last two user turns as cache breakpoints.
func buildMessages(systemPrompt string, msgs []codexflow.Message, cache bool) []apiMessage {
	system := apiMessage{Role: "system", Content: apiContent{Text: systemPrompt}}
	if cache {
		system.Content = apiContent{Parts: []apiPart{textPart(systemPrompt, true)}}
	}
	result := append([]apiMessage{system}, convertMessages(msgs)...)
	if cache {
		annotateUserTurns(result, cacheBreakpoints)
	}
	return result
}

// annotateUserTurns marks the last n user messages by position. Plain
// string content becomes a single annotated text part; part lists get the
// annotation on their final part. Part slices are copied, never modified.
func annotateUserTurns(msgs []apiMessage, n int) {
	for i := len(msgs) - 1; i >= 0 && n > 0; i-- {
		if msgs[i].Role != "user" {
			continue
		}
		n--
		content := msgs[i].Content
		if content.Parts == nil {
			msgs[i].Content = apiContent{Parts: []apiPart{textPart(content.Text, true)}}
			continue
		}
		if len(content.Parts) == 0 {
			continue
		}
		parts := slices.Clone(content.Parts)
		parts[len(parts)-1].CacheControl = ephemeral()
		msgs[i].Content = apiContent{Parts: parts}
	}
}

func ephemeral() *apiCacheControl {
	return &apiCacheControl{Type: "ephemeral"}
}

func textPart(text string, cache bool) apiPart {
	p := apiPart{Type: "text", Text: &text}
	if cache {
		p.CacheControl = ephemeral()
	}
	return p
}

func imagePart(b codexflow.ImageBlock) apiPart {
	url := "data:" + b.MimeType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
	return apiPart{Type: "image_url", ImageURL: &apiImageURL{URL: url}}
}

func convertMessages(msgs []codexflow.Message) []apiMessage {
	var result []apiMessage
	for _, msg := range msgs {
		switch m := msg.(type) {
		case codexflow.UserMessage:
			result = append(result, apiMessage{Role: "user", Content: convertUserContent(m.Content)})
		case codexflow.AssistantMessage:
			result = append(result, convertAssistant(m))
		case codexflow.ToolResultMessage:
			result = append(result, apiMessage{
				Role:       "tool",
				ToolCallID: m.ToolCallID,
				Content:    apiContent{Text: codexflow.Text(m.Content, "\n")},
			})
			// Tool messages carry text only; images follow as a user turn.
			if images := imageParts(m.Content); len(images) > 0 {
				result = append(result, apiMessage{Role: "user", Content: apiContent{Parts: images}})
			}
		}
	}
	return result
}

// convertUserContent keeps a lone text block as a plain string.
func convertUserContent(blocks []codexflow.ContentBlock) apiContent {
	if len(blocks) == 1 {
		if tb, ok := blocks[0].(codexflow.TextBlock); ok {
			return apiContent{Text: tb.Text}
		}
	}
	if len(blocks) == 0 {
		return apiContent{}
	}
	parts := make([]apiPart, 0, len(blocks))
	for _, b := range blocks {
		switch bl := b.(type) {
		case codexflow.TextBlock:
			parts = append(parts, textPart(bl.Text, false))
		case codexflow.ImageBlock:
			parts = append(parts, imagePart(bl))
		}
	}
	return apiContent{Parts: parts}
}

func imageParts(blocks []codexflow.ContentBlock) []apiPart {
	var parts []apiPart
	for _, b := range blocks {
		if img, ok := b.(codexflow.ImageBlock); ok {
			parts = append(parts, imagePart(img))
		}
	}
	return parts
}

func convertAssistant(m codexflow.AssistantMessage) apiMessage {
	msg := apiMessage{Role: "assistant", Content: apiContent{Text: codexflow.Text(m.Content, "")}}
	for _, b := range m.Content {
		tc, ok := b.(codexflow.ToolCallBlock)
		if !ok {
			continue
		}
		args := string(tc.Arguments)
		if args == "" {
			args = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, apiToolCall{
			ID:       tc.ID,
			Type:     "function",
			Function: apiFunctionCall{Name: tc.Name, Arguments: args},
		})
	}
	return msg
}

func convertTools(tools []codexflow.Tool) []apiTool {
	result := make([]apiTool, len(tools))
	for i, t := range tools {
		result[i] = apiTool{
			Type: "function",
			Function: apiFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}
