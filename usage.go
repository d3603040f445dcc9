package codexflow

// Usage tracks token consumption for one response.
//
// InputTokens is the prompt token count as reported upstream and includes
// cached tokens (OpenAI accounting). CacheWriteTokens and CacheReadTokens
// are the portions of the prompt written to or served from the cache.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	CacheWriteTokens int
	CacheReadTokens  int
	TotalCost        float64
}
