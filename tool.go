package codexflow

import "encoding/json"

// Tool is the schema sent to the LLM describing a tool's capabilities.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolProtocol selects how tools are offered to the model.
type ToolProtocol string

const (
	// ToolProtocolXML leaves tools to the caller's textual protocol; no tool
	// definitions are sent on the wire.
	ToolProtocolXML ToolProtocol = "xml"
	// ToolProtocolNative sends tool definitions using the API's native
	// function-calling fields.
	ToolProtocolNative ToolProtocol = "native"
)
