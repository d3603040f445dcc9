// Package mock provides test doubles for codexflow interfaces using function fields.
package mock

import (
	"context"

	"github.com/codexflow/codexflow"
)

// Interface compliance checks.
var (
	_ codexflow.Provider  = (*Provider)(nil)
	_ codexflow.Completer = (*Completer)(nil)
)

// Provider is a test double for codexflow.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req codexflow.Request) (codexflow.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req codexflow.Request) (codexflow.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Completer is a test double for codexflow.Completer.
// Set CompleteFn before calling Complete.
type Completer struct {
	CompleteFn func(ctx context.Context, prompt string) (string, error)
}

// Complete delegates to CompleteFn.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteFn(ctx, prompt)
}
