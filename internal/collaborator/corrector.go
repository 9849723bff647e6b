package collaborator

import (
	"context"
	"fmt"
	"strings"
)

const correctorSystemPrompt = `You are a Go expert. You receive a complete Go program and a list of errors.
Fix the code so every error is eliminated.

Rules:
- Return ONLY the corrected code, no explanation, no markdown, no code fences.
- The program must be complete and self-contained in package main.
- Keep all imports at the top of the file, never between functions.
- Preserve the original structure and logic; change only what the errors require.`

// Corrector asks the model to repair a failing artifact.
type Corrector struct {
	client Client
}

// NewCorrector wraps a provider client.
func NewCorrector(client Client) *Corrector {
	return &Corrector{client: client}
}

// Correct sends code and its errors to the model and returns the corrected
// source. An empty response after fence stripping returns ("", nil): the
// repair loop keeps the previous artifact and charges the attempt, so a
// non-cooperating model cannot spin the loop forever.
func (c *Corrector) Correct(ctx context.Context, code string, errs []string) (string, error) {
	prompt := fmt.Sprintf(`This Go program has errors:

%s

Detected errors:
%s

Fix the code to eliminate these errors. Return ONLY the corrected code.`,
		code, strings.Join(errs, "\n"))

	response, err := c.client.CompleteWithSystem(ctx, correctorSystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	return StripFences(response), nil
}
