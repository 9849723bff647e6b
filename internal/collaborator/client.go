// Package collaborator holds the LLM boundary: the provider clients and the
// three typed roles built on top of them (planner, generator, corrector).
// Everything past this package works with parsed, validated structures and
// never sees raw model output.
package collaborator

import "context"

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
