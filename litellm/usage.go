package litellm

import "github.com/codexflow/codexflow"

// normalizeUsage maps gateway usage onto a usage event. Cache counts are
// reported under different names by different backends; the first non-zero
// alias wins.
func normalizeUsage(u apiUsage, info codexflow.ModelInfo) codexflow.EventUsage {
	var cached int
	if u.PromptTokensDetails != nil {
		cached = u.PromptTokensDetails.CachedTokens
	}
	cacheWrite := firstNonZero(u.CacheCreationInputTokens, u.PromptCacheMissTokens)
	cacheRead := firstNonZero(cached, u.CacheReadInputTokens, u.PromptCacheHitTokens)

	evt := codexflow.EventUsage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalCost:    codexflow.CalculateCost(info, u.PromptTokens, u.CompletionTokens, cacheWrite, cacheRead),
	}
	if cacheWrite > 0 {
		evt.CacheWriteTokens = &cacheWrite
	}
	if cacheRead > 0 {
		evt.CacheReadTokens = &cacheRead
	}
	return evt
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
