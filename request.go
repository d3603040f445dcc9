package codexflow

import (
	"encoding/json"
	"fmt"
)

// Request carries model selection and generation parameters.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
	ToolChoice   *ToolChoice  // nil = not requested
	ToolProtocol ToolProtocol // "" behaves as ToolProtocolXML
	MaxTokens    int          // 0 = model descriptor's limit
	Temperature  *float64     // nil = 0 where the model supports temperature
}

// Tool choice modes.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// ToolChoice is either a mode ("auto", "none", "required") or a specific
// function. It marshals to the OpenAI wire form.
type ToolChoice struct {
	Mode     string
	Function string
}

// ToolChoiceMode returns a mode tool choice.
func ToolChoiceMode(mode string) *ToolChoice {
	return &ToolChoice{Mode: mode}
}

// ToolChoiceFunction returns a tool choice forcing the named function.
func ToolChoiceFunction(name string) *ToolChoice {
	return &ToolChoice{Function: name}
}

// IsNone reports whether the choice disables tool calls.
func (c *ToolChoice) IsNone() bool {
	return c != nil && c.Function == "" && c.Mode == ToolChoiceNone
}

type toolChoiceFunction struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

// MarshalJSON implements json.Marshaler.
func (c ToolChoice) MarshalJSON() ([]byte, error) {
	if c.Function != "" {
		var f toolChoiceFunction
		f.Type = "function"
		f.Function.Name = c.Function
		return json.Marshal(f)
	}
	return json.Marshal(c.Mode)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ToolChoice) UnmarshalJSON(data []byte) error {
	var mode string
	if err := json.Unmarshal(data, &mode); err == nil {
		*c = ToolChoice{Mode: mode}
		return nil
	}
	var f toolChoiceFunction
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("tool_choice: %w", err)
	}
	*c = ToolChoice{Function: f.Function.Name}
	return nil
}
