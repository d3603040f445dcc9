// Package quirks resolves per-model request adjustments for models served
// through an OpenAI-compatible gateway: which output-token field to send,
// whether tool calls are suppressed by default, how far the output budget
// is clamped, and whether temperature is accepted.
//
// A Registry consults an exact-id table first. Ids missing from the table
// fall back to pattern rules:
//
//   - GPT-5 class: "gpt-5" / "gpt5" not followed by a digit, case-insensitive.
//   - DeepSeek class: id contains "deepseek" or "deep-seek".
//   - Context clamp: doublestar glob patterns mapped to the model's true
//     context window.
//   - Temperature: unsupported for the o3-mini family.
//
// Unrecognized ids get the zero adjustments with temperature allowed.
package quirks

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ClampFraction is the share of a model's true context window allotted to
// output tokens when a clamp applies. The rest is left for input.
const ClampFraction = 0.2

// Quirks are the request adjustments for one model.
type Quirks struct {
	// UsesMaxCompletionTokens routes the output budget to
	// max_completion_tokens instead of max_tokens.
	UsesMaxCompletionTokens bool
	// SuppressToolCalls sends tool_choice "none" unless the caller asked
	// for a different choice.
	SuppressToolCalls bool
	// ContextWindow is the true context window used for clamping; 0 = no clamp.
	ContextWindow int
	// SupportsTemperature reports whether temperature may be sent.
	SupportsTemperature bool
}

// ClampMaxTokens caps n at ClampFraction of the context window. Zero and
// negative budgets are returned unchanged.
func (q Quirks) ClampMaxTokens(n int) int {
	if n <= 0 || q.ContextWindow <= 0 {
		return n
	}
	limit := int(math.Floor(float64(q.ContextWindow) * ClampFraction))
	return min(n, limit)
}

// ContextRule maps a glob pattern over model ids to a true context window.
type ContextRule struct {
	Pattern string
	Window  int
}

// DefaultContextRules are the context windows that differ from what the
// gateway commonly reports for these models.
// Each model has a pattern for ids ending inside the match and one for ids
// with further path segments, so any id containing the key matches.
var DefaultContextRules = []ContextRule{
	{Pattern: "**/*deepseek/deepseek-v3.2*", Window: 163_840},
	{Pattern: "**/*deepseek/deepseek-v3.2*/**", Window: 163_840},
	{Pattern: "**/*claude-sonnet-4.5*", Window: 1_000_000},
	{Pattern: "**/*claude-sonnet-4.5*/**", Window: 1_000_000},
}

var gpt5Pattern = regexp.MustCompile(`(?i)\bgpt-?5(?:\D|$)`)

// IsGPT5 reports whether id names a GPT-5 class model. gpt-50 and gpt-500
// style ids do not match.
func IsGPT5(id string) bool {
	return gpt5Pattern.MatchString(id)
}

// IsDeepSeek reports whether id names a DeepSeek model.
func IsDeepSeek(id string) bool {
	return strings.Contains(id, "deepseek") || strings.Contains(id, "deep-seek")
}

func supportsTemperature(id string) bool {
	return !strings.HasPrefix(id, "openai/o3-mini") && !strings.HasPrefix(id, "o3-mini")
}

// Registry resolves Quirks by model id.
type Registry struct {
	exact map[string]Quirks
	rules []ContextRule
}

// NewRegistry creates a Registry from an exact-id table and the context
// rules used for ids missing from it. It fails on malformed patterns.
func NewRegistry(exact map[string]Quirks, rules []ContextRule) (*Registry, error) {
	for _, r := range rules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, fmt.Errorf("quirks: invalid pattern %q", r.Pattern)
		}
		if r.Window <= 0 {
			return nil, fmt.Errorf("quirks: pattern %q: window must be positive, got %d", r.Pattern, r.Window)
		}
	}
	table := make(map[string]Quirks, len(exact))
	for id, q := range exact {
		table[id] = q
	}
	return &Registry{exact: table, rules: append([]ContextRule(nil), rules...)}, nil
}

// Resolve returns the quirks for id.
func (r *Registry) Resolve(id string) Quirks {
	if q, ok := r.exact[id]; ok {
		return q
	}
	return r.match(id)
}

// match derives quirks from the pattern rules alone.
func (r *Registry) match(id string) Quirks {
	q := Quirks{
		UsesMaxCompletionTokens: IsGPT5(id),
		SuppressToolCalls:       IsDeepSeek(id),
		SupportsTemperature:     supportsTemperature(id),
	}
	for _, rule := range r.rules {
		if ok, _ := doublestar.Match(rule.Pattern, id); ok {
			q.ContextWindow = rule.Window
			break
		}
	}
	return q
}

var defaultRegistry *Registry

func init() {
	r, err := NewRegistry(knownModels, DefaultContextRules)
	if err != nil {
		panic(err)
	}
	defaultRegistry = r
}

// Default returns the registry with the built-in model table.
func Default() *Registry {
	return defaultRegistry
}

// Resolve returns the quirks for id from the default registry.
func Resolve(id string) Quirks {
	return defaultRegistry.Resolve(id)
}
