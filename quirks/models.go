package quirks

// knownModels lists models routed through the gateway often enough to pin
// their quirks explicitly.
var knownModels = map[string]Quirks{
	"deepseek/deepseek-v3.2": {
		SuppressToolCalls:   true,
		ContextWindow:       163_840,
		SupportsTemperature: true,
	},
	"openrouter/deepseek/deepseek-v3.2": {
		SuppressToolCalls:   true,
		ContextWindow:       163_840,
		SupportsTemperature: true,
	},
	"deepseek/deepseek-chat": {
		SuppressToolCalls:   true,
		SupportsTemperature: true,
	},
	"openrouter/minimax/minimax-m2.1":    {SupportsTemperature: true},
	"openrouter/google/gemini-2.5-flash": {SupportsTemperature: true},
	"claude-sonnet-4.5": {
		ContextWindow:       1_000_000,
		SupportsTemperature: true,
	},
	"anthropic/claude-sonnet-4.5": {
		ContextWindow:       1_000_000,
		SupportsTemperature: true,
	},
	"openrouter/anthropic/claude-sonnet-4.5": {
		ContextWindow:       1_000_000,
		SupportsTemperature: true,
	},
	"gpt-5":             {UsesMaxCompletionTokens: true, SupportsTemperature: true},
	"gpt-5.1":           {UsesMaxCompletionTokens: true, SupportsTemperature: true},
	"openai/gpt-5":      {UsesMaxCompletionTokens: true, SupportsTemperature: true},
	"openai/gpt-5-mini": {UsesMaxCompletionTokens: true, SupportsTemperature: true},
	"openai/o3-mini":    {},
}
