package codexflow

// StopReason is the normalized form of the gateway's finish_reason.
// AssistantMessage.RawStopReason keeps the value as received.
type StopReason string

const (
	StopEndTurn       StopReason = "end_turn"       // "stop"
	StopLength        StopReason = "length"         // "length"
	StopToolUse       StopReason = "tool_use"       // "tool_calls" or legacy "function_call"
	StopContentFilter StopReason = "content_filter" // "content_filter"
	StopError         StopReason = "error"
	StopAborted       StopReason = "aborted"
	StopUnknown       StopReason = "unknown"
)
