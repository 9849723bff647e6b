package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"agentforge/internal/types"
)

const plannerSystemPrompt = `You are a planning assistant for an agent generator.
You receive a description of a desired automation and decompose it into a
minimal ordered list of components. Each component is one Go function the
final agent will contain.

Respond with ONLY a JSON array, no explanation, no markdown. Each element:
{
  "name": "snake_case function name",
  "kind": "tool" or "llm",
  "description": "precise description of what the function does",
  "inputs": ["param_name type", ...],
  "output": "return type"
}

Use kind "tool" for deterministic work (API calls, file IO, parsing) and
kind "llm" for steps that need a language model at runtime.`

// Planner turns a free-text request into an ordered component plan.
type Planner struct {
	client Client
}

// NewPlanner wraps a provider client.
func NewPlanner(client Client) *Planner {
	return &Planner{client: client}
}

// Plan asks the model to decompose request. Transport failures pass through
// as *TransportError; anything unparseable or schema-violating becomes a
// *PlanParseError.
func (p *Planner) Plan(ctx context.Context, request string) ([]types.ComponentSpec, error) {
	prompt := fmt.Sprintf("Decompose this automation request into components:\n\n%s", request)
	response, err := p.client.CompleteWithSystem(ctx, plannerSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	cleaned := StripFences(response)

	var specs []types.ComponentSpec
	if err := json.Unmarshal([]byte(cleaned), &specs); err != nil {
		return nil, &PlanParseError{Excerpt: excerpt(cleaned), Err: err}
	}
	if len(specs) == 0 {
		return nil, &PlanParseError{
			Excerpt: excerpt(cleaned),
			Err:     fmt.Errorf("plan contains no components"),
		}
	}

	var problems []string
	for i := range specs {
		for _, problem := range specs[i].Validate() {
			problems = append(problems, fmt.Sprintf("component %d: %s", i, problem))
		}
	}
	if len(problems) > 0 {
		return nil, &PlanParseError{
			Excerpt: excerpt(cleaned),
			Err:     fmt.Errorf("plan violates schema: %s", strings.Join(problems, "; ")),
		}
	}
	return specs, nil
}
