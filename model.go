package codexflow

// ModelInfo describes a model's limits, capabilities and pricing. Prices
// are USD per million tokens; zero means unknown and contributes no cost.
type ModelInfo struct {
	MaxTokens           int // output budget; 0 = let the backend decide
	ContextWindow       int
	SupportsImages      bool
	SupportsPromptCache bool
	SupportsNativeTools bool
	InputPrice          float64
	OutputPrice         float64
	CacheWritesPrice    float64
	CacheReadsPrice     float64
}

// DefaultModelID is used when neither the request nor the client names a model.
const DefaultModelID = "claude-3-7-sonnet-20250219"

// DefaultModelInfo describes DefaultModelID and is the fallback descriptor
// for models the gateway does not report.
var DefaultModelInfo = ModelInfo{
	MaxTokens:           8192,
	ContextWindow:       200_000,
	SupportsImages:      true,
	SupportsPromptCache: true,
	SupportsNativeTools: true,
	InputPrice:          3.0,
	OutputPrice:         15.0,
	CacheWritesPrice:    3.75,
	CacheReadsPrice:     0.3,
}

// CalculateCost estimates the cost of a response using OpenAI-style
// accounting, where inputTokens already includes cache writes and reads.
// The non-cached remainder is clamped at zero.
func CalculateCost(info ModelInfo, inputTokens, outputTokens, cacheWriteTokens, cacheReadTokens int) float64 {
	uncached := max(0, inputTokens-cacheWriteTokens-cacheReadTokens)
	return info.InputPrice/1e6*float64(uncached) +
		info.OutputPrice/1e6*float64(outputTokens) +
		info.CacheWritesPrice/1e6*float64(cacheWriteTokens) +
		info.CacheReadsPrice/1e6*float64(cacheReadTokens)
}
