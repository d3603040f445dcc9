package litellm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/codexflow/codexflow"
)

// Catalog defaults for fields the gateway leaves out.
const (
	catalogMaxTokens     = 8192
	catalogContextWindow = 200_000
)

type apiModelInfoResponse struct {
	Data []apiModelEntry `json:"data"`
}

type apiModelEntry struct {
	ModelName string `json:"model_name"`
	ModelInfo struct {
		MaxTokens                   *int     `json:"max_tokens"`
		MaxOutputTokens             *int     `json:"max_output_tokens"`
		MaxInputTokens              *int     `json:"max_input_tokens"`
		SupportsVision              bool     `json:"supports_vision"`
		SupportsPromptCaching       bool     `json:"supports_prompt_caching"`
		SupportsFunctionCalling     bool     `json:"supports_function_calling"`
		InputCostPerToken           *float64 `json:"input_cost_per_token"`
		OutputCostPerToken          *float64 `json:"output_cost_per_token"`
		CacheCreationInputTokenCost *float64 `json:"cache_creation_input_token_cost"`
		CacheReadInputTokenCost     *float64 `json:"cache_read_input_token_cost"`
	} `json:"model_info"`
}

// Models fetches the gateway's model catalog from /v1/model/info, keyed by
// model name. Per-token prices are converted to per-million.
func (c *Client) Models(ctx context.Context) (map[string]codexflow.ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelInfoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("litellm: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("litellm: model catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("litellm: model catalog: %w", parseHTTPError(resp))
	}

	var out apiModelInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("litellm: model catalog: %w", err)
	}

	models := make(map[string]codexflow.ModelInfo, len(out.Data))
	for _, e := range out.Data {
		if e.ModelName == "" {
			continue
		}
		models[e.ModelName] = e.toModelInfo()
	}
	return models, nil
}

func (e apiModelEntry) toModelInfo() codexflow.ModelInfo {
	mi := e.ModelInfo
	return codexflow.ModelInfo{
		MaxTokens:           firstInt(catalogMaxTokens, mi.MaxOutputTokens, mi.MaxTokens),
		ContextWindow:       firstInt(catalogContextWindow, mi.MaxInputTokens),
		SupportsImages:      mi.SupportsVision,
		SupportsPromptCache: mi.SupportsPromptCaching,
		SupportsNativeTools: mi.SupportsFunctionCalling,
		InputPrice:          perMillion(mi.InputCostPerToken),
		OutputPrice:         perMillion(mi.OutputCostPerToken),
		CacheWritesPrice:    perMillion(mi.CacheCreationInputTokenCost),
		CacheReadsPrice:     perMillion(mi.CacheReadInputTokenCost),
	}
}

// firstInt returns the first non-nil value, or def.
func firstInt(def int, vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return def
}

func perMillion(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v * 1e6
}
