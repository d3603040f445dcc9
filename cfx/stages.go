package cfx

import (
	"fmt"
	"strings"
)

// Stage names.
const (
	StagePlan   = "Plan"
	StageCode   = "Code"
	StageReview = "Review"
)

// stage describes one pipeline call.
type stage struct {
	name        string
	label       string // section heading, e.g. "PLAN"
	icon        string
	model       string
	display     string // human-readable model name
	verb        string // progress verb for the banner
	temperature float64
	maxTokens   int
	system      string
	prompt      func(task string, prior []StageResult) string
	empty       string // output used when the model returns nothing
}

// stages run in order; each prompt sees the outputs before it.
var stages = []stage{
	{
		name:        StagePlan,
		label:       "PLAN",
		icon:        "📋",
		model:       "openrouter/deepseek/deepseek-v3.2",
		display:     "DeepSeek V3.2",
		verb:        "Planning",
		temperature: 0.7,
		maxTokens:   2000,
		system:      "You are a planning assistant. Break down the given task into a clear, step-by-step plan. Output only the plan, no explanations.",
		prompt: func(task string, _ []StageResult) string {
			return fmt.Sprintf("Task: %s\n\nCreate a detailed plan:", task)
		},
		empty: "Plan could not be generated",
	},
	{
		name:        StageCode,
		label:       "CODE",
		icon:        "💻",
		model:       "openrouter/minimax/minimax-m2.1",
		display:     "MiniMax M2.1",
		verb:        "Coding",
		temperature: 0.3,
		maxTokens:   4000,
		system:      "You are a coding assistant. Generate code based on the task and plan. Output clean, production-ready code with proper error handling.",
		prompt: func(task string, prior []StageResult) string {
			return fmt.Sprintf("Task: %s\n\nPlan:\n%s\n\nGenerate the code:", task, output(prior, StagePlan))
		},
		empty: "Code could not be generated",
	},
	{
		name:        StageReview,
		label:       "REVIEW",
		icon:        "🔍",
		model:       "openrouter/google/gemini-2.5-flash",
		display:     "Gemini 2.5 Flash",
		verb:        "Reviewing",
		temperature: 0.5,
		maxTokens:   2000,
		system:      "You are a code reviewer. Review the code against the task and plan. Identify issues, suggest improvements, and verify completeness. Check for bugs, security issues, and best practices.",
		prompt: func(task string, prior []StageResult) string {
			return fmt.Sprintf("Task: %s\n\nPlan:\n%s\n\nCode:\n%s\n\nReview the code for any errors, bugs, or improvements:",
				task, output(prior, StagePlan), output(prior, StageCode))
		},
		empty: "Review could not be completed",
	},
}

// StageResult is the output of one completed stage.
type StageResult struct {
	Stage  string
	Model  string
	Output string
}

func output(results []StageResult, name string) string {
	for _, r := range results {
		if r.Stage == name {
			return r.Output
		}
	}
	return ""
}

func (s stage) banner() string {
	return fmt.Sprintf("%s CF-X: %s with %s...\n\n", s.icon, s.verb, s.display)
}

func (s stage) section(out string) string {
	return fmt.Sprintf("%s %s (%s):\n%s\n%s\n\n", s.icon, s.label, s.display, strings.Repeat("=", 60), out)
}

// Report formats completed stage results as a single text, the way the
// streaming pipeline presents them.
func Report(results []StageResult) string {
	var b strings.Builder
	b.WriteString(reportTitle)
	for _, r := range results {
		b.WriteString(sectionFor(r))
	}
	b.WriteString(completionMarker)
	return b.String()
}

func sectionFor(r StageResult) string {
	for _, s := range stages {
		if s.name == r.Stage {
			return s.section(r.Output)
		}
	}
	return stage{label: strings.ToUpper(r.Stage), display: r.Model, icon: "•"}.section(r.Output)
}
