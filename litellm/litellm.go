// Package litellm implements [codexflow.Provider] for an OpenAI-compatible
// LiteLLM gateway.
//
// Requests go to {baseURL}/chat/completions with stream=true and
// include_usage. The response is read as SSE "data:" lines, one JSON chunk
// per event, terminated by "[DONE]". The stream reassembles chunks into
// semantic events through the pull-based [codexflow.Stream] interface and
// emits exactly one usage event after the wire is drained.
//
// Per-model adjustments (token field, clamping, tool suppression,
// temperature) come from package quirks. The reserved cf-x model ids are
// dispatched to the three-stage pipeline in package cfx.
package litellm

import (
	"encoding/json"

	"github.com/codexflow/codexflow"
)

const (
	providerName   = "litellm"
	defaultBaseURL = "http://localhost:4000"
	defaultAPIKey  = "dummy-key"
	chatPath       = "/chat/completions"
	modelInfoPath  = "/v1/model/info"
	doneSentinel   = "[DONE]"
	referer        = "https://github.com/codexflow/codexflow"
	title          = "CodexFlow"
)

// toolCallNotice is shown when a model answered with tool calls only.
const toolCallNotice = "[Model made tool calls: %s. Tool calling is not fully supported in this context. Please try with tool_choice: 'none' or use a different model.]"

// apiCacheControl marks a prompt-cache breakpoint.
type apiCacheControl struct {
	Type string `json:"type"` // always "ephemeral"
}

// apiRequest is the JSON body sent to the chat completions endpoint.
type apiRequest struct {
	Model               string                `json:"model"`
	Messages            []apiMessage          `json:"messages"`
	Stream              bool                  `json:"stream,omitempty"`
	StreamOptions       *apiStreamOptions     `json:"stream_options,omitempty"`
	Tools               []apiTool             `json:"tools,omitempty"`
	ToolChoice          *codexflow.ToolChoice `json:"tool_choice,omitempty"`
	MaxTokens           int                   `json:"max_tokens,omitempty"`
	MaxCompletionTokens int                   `json:"max_completion_tokens,omitempty"`
	Temperature         *float64              `json:"temperature,omitempty"`
}

type apiStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type apiMessage struct {
	Role       string        `json:"role"`
	Content    apiContent    `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// apiContent is either a plain string or an ordered list of parts. A nil
// Parts slice selects the string form.
type apiContent struct {
	Text  string
	Parts []apiPart
}

func (c apiContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// apiPart is one content part. Different fields are populated depending on Type.
type apiPart struct {
	Type         string           `json:"type"`
	Text         *string          `json:"text,omitempty"`
	ImageURL     *apiImageURL     `json:"image_url,omitempty"`
	CacheControl *apiCacheControl `json:"cache_control,omitempty"`
}

type apiImageURL struct {
	URL string `json:"url"`
}

type apiToolCall struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function apiFunctionCall `json:"function"`
}

type apiFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type apiTool struct {
	Type     string      `json:"type"`
	Function apiFunction `json:"function"`
}

type apiFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Response types.

// apiChunk is one streamed chat.completion.chunk.
type apiChunk struct {
	ID      string        `json:"id"`
	Model   string        `json:"model"`
	Choices []apiChoice   `json:"choices"`
	Usage   *apiUsage     `json:"usage"`
	Error   *apiErrorBody `json:"error"`
}

type apiChoice struct {
	Index        int                 `json:"index"`
	Delta        apiDelta            `json:"delta"`
	Message      *apiResponseMessage `json:"message"`
	FinishReason *string             `json:"finish_reason"`
}

type apiDelta struct {
	Content   *string            `json:"content"`
	ToolCalls []apiToolCallDelta `json:"tool_calls"`
}

type apiToolCallDelta struct {
	Index    int             `json:"index"`
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function apiFunctionCall `json:"function"`
}

type apiResponseMessage struct {
	Role      string        `json:"role"`
	Content   *string       `json:"content"`
	ToolCalls []apiToolCall `json:"tool_calls"`
}

// apiResponse is the non-streaming chat.completion body.
type apiResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      apiResponseMessage `json:"message"`
		FinishReason string             `json:"finish_reason"`
	} `json:"choices"`
	Usage *apiUsage `json:"usage"`
}

// apiUsage carries the usage fields seen across gateway backends. Cache
// counts arrive under different names depending on the upstream provider.
type apiUsage struct {
	PromptTokens             int                    `json:"prompt_tokens"`
	CompletionTokens         int                    `json:"completion_tokens"`
	PromptTokensDetails      *apiPromptTokenDetails `json:"prompt_tokens_details"`
	CacheCreationInputTokens int                    `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int                    `json:"cache_read_input_tokens"`
	PromptCacheHitTokens     int                    `json:"prompt_cache_hit_tokens"`
	PromptCacheMissTokens    int                    `json:"prompt_cache_miss_tokens"`
}

type apiPromptTokenDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

// apiErrorResponse is the JSON body returned on non-2xx responses.
type apiErrorResponse struct {
	Error *apiErrorBody `json:"error"`
}

// apiErrorBody is the OpenAI-style error object. Code is a string or a
// number depending on the backend.
type apiErrorBody struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    json.RawMessage `json:"code"`
}
