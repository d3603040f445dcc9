package cfx

import (
	"context"

	"github.com/codexflow/codexflow"
)

// Strategy exposes the strategy signature for testing.
type Strategy = func(ctx context.Context, task string, emit func(codexflow.Event) bool) error

// WithFallback exposes withFallback for testing.
func WithFallback(primary, secondary Strategy) Strategy {
	return withFallback(primary, secondary)
}

// OrchestratorFor exposes orchestratorFor for testing.
var OrchestratorFor = orchestratorFor
