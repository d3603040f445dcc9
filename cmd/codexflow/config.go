package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codexflow/codexflow/litellm"
)

// env holds the environment values the CLI understands. It is filled in
// main so the rest of the command stays free of os.Getenv.
type env struct {
	BaseURL      string // LITELLM_BASE_URL
	APIKey       string // LITELLM_API_KEY
	Model        string // LITELLM_MODEL
	PromptCache  string // LITELLM_PROMPT_CACHE
	Temperature  string // CODEXFLOW_TEMPERATURE
	Orchestrator string // CODEXFLOW_ORCHESTRATOR_URL
}

// flags holds parsed command-line values. PromptCache is nil when the flag
// was not given; Temperature is empty when unset.
type flags struct {
	BaseURL      string
	APIKey       string
	Model        string
	PromptCache  *bool
	Temperature  string
	Orchestrator string
}

type config struct {
	baseURL      string
	apiKey       string
	model        string
	promptCache  bool
	temperature  *float64
	orchestrator string
}

// resolveConfig merges flags over env. Unset values fall back to the
// client's defaults.
func resolveConfig(f flags, e env) (config, error) {
	cfg := config{
		baseURL:      litellm.NormalizeBaseURL(firstSet(f.BaseURL, e.BaseURL)),
		apiKey:       firstSet(f.APIKey, e.APIKey),
		model:        firstSet(f.Model, e.Model),
		orchestrator: firstSet(f.Orchestrator, e.Orchestrator),
	}

	switch {
	case f.PromptCache != nil:
		cfg.promptCache = *f.PromptCache
	case strings.TrimSpace(e.PromptCache) != "":
		v, err := strconv.ParseBool(strings.TrimSpace(e.PromptCache))
		if err != nil {
			return config{}, fmt.Errorf("LITELLM_PROMPT_CACHE: %w", err)
		}
		cfg.promptCache = v
	}

	if raw := firstSet(f.Temperature, e.Temperature); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return config{}, fmt.Errorf("temperature %q: %w", raw, err)
		}
		if t < 0 || t > 2 {
			return config{}, fmt.Errorf("temperature %v out of range [0, 2]", t)
		}
		cfg.temperature = &t
	}
	return cfg, nil
}

// options translates cfg into client options.
func (c config) options(version string) []litellm.Option {
	opts := []litellm.Option{
		litellm.WithBaseURL(c.baseURL),
		litellm.WithPromptCache(c.promptCache),
		litellm.WithVersion(version),
	}
	if c.model != "" {
		opts = append(opts, litellm.WithModel(c.model))
	}
	if c.temperature != nil {
		opts = append(opts, litellm.WithTemperature(*c.temperature))
	}
	if c.orchestrator != "" {
		opts = append(opts, litellm.WithOrchestratorURL(c.orchestrator))
	}
	return opts
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
