package codexflow

import "context"

// Provider is a strategy pattern interface for LLM providers.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Completer answers a single prompt without streaming.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
