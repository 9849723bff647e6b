package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"agentforge/internal/types"
)

const toolGeneratorSystemPrompt = `You are a Go code generator for deterministic automation tools.
You receive a component specification and write ONE complete Go function
implementing it, plus metadata.

Rules:
- Pure Go, standard library preferred; third-party imports only when truly needed.
- The function must compile as a top-level declaration in package main.
- Read secrets from environment variables, never hardcode them.
- Declare every environment variable and config file the function reads.

Respond with ONLY a JSON object, no explanation, no markdown:
{
  "source_code": "complete Go source for the function (imports included)",
  "metadata": {
    "name": "function name",
    "inputs": ["param_name type", ...],
    "output": "return type",
    "description": "what the function does",
    "dependencies": ["third-party import paths"],
    "env_vars": ["ENV_VAR_NAMES"],
    "config_files": ["config file names"]
  }
}`

const llmGeneratorSystemPrompt = `You are a Go code generator for LLM-backed functions.
You receive a component specification and write ONE complete Go function that
delegates its work to a language-model API at runtime, plus metadata.

Rules:
- Use net/http and encoding/json against an OpenAI-style chat endpoint.
- Read the API key from an environment variable; declare it in env_vars.
- The function must compile as a top-level declaration in package main.

Respond with ONLY a JSON object, no explanation, no markdown:
{
  "source_code": "complete Go source for the function (imports included)",
  "metadata": {
    "name": "function name",
    "inputs": ["param_name type", ...],
    "output": "return type",
    "description": "what the function does",
    "dependencies": ["third-party import paths"],
    "env_vars": ["ENV_VAR_NAMES"],
    "config_files": ["config file names"]
  }
}`

// Generator produces source code for one component kind.
type Generator struct {
	client       Client
	systemPrompt string
}

// NewToolGenerator builds the generator for deterministic components.
func NewToolGenerator(client Client) *Generator {
	return &Generator{client: client, systemPrompt: toolGeneratorSystemPrompt}
}

// NewLLMGenerator builds the generator for model-delegating components.
func NewLLMGenerator(client Client) *Generator {
	return &Generator{client: client, systemPrompt: llmGeneratorSystemPrompt}
}

// GeneratorFor returns the generator matching the spec's kind. The planner
// validated Kind already, so an unknown kind here is a programming error.
func GeneratorFor(kind types.ComponentKind, tool, llm *Generator) *Generator {
	if kind == types.KindLLM {
		return llm
	}
	return tool
}

// Generate asks the model to implement spec and validates the response
// structurally before anything downstream touches it.
func (g *Generator) Generate(ctx context.Context, spec types.ComponentSpec) (*types.GeneratedComponent, error) {
	prompt := fmt.Sprintf(`Implement this component:

Name: %s
Description: %s
Inputs: %s
Output: %s`,
		spec.Name, spec.Description, strings.Join(spec.Inputs, ", "), spec.Output)

	response, err := g.client.CompleteWithSystem(ctx, g.systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return parseComponentResponse(spec.Name, StripFences(response))
}

// rawComponent mirrors GeneratedComponent with pointers and raw JSON so
// validation can tell "absent" from "present but wrong shape".
type rawComponent struct {
	SourceCode *string      `json:"source_code"`
	Metadata   *rawMetadata `json:"metadata"`
}

type rawMetadata struct {
	Name         *string         `json:"name"`
	Inputs       json.RawMessage `json:"inputs"`
	Output       string          `json:"output"`
	Description  string          `json:"description"`
	Dependencies json.RawMessage `json:"dependencies"`
	EnvVars      json.RawMessage `json:"env_vars"`
	ConfigFiles  json.RawMessage `json:"config_files"`
}

// parseComponentResponse validates a generator response, collecting every
// structural problem rather than stopping at the first.
func parseComponentResponse(component, cleaned string) (*types.GeneratedComponent, error) {
	var raw rawComponent
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &ComponentValidationError{
			Component: component,
			Problems:  []string{fmt.Sprintf("response is not a JSON object: %v (starts: %q)", err, excerpt(cleaned))},
		}
	}

	var problems []string
	if raw.SourceCode == nil || strings.TrimSpace(*raw.SourceCode) == "" {
		problems = append(problems, "missing required field 'source_code'")
	}
	if raw.Metadata == nil {
		problems = append(problems, "missing required field 'metadata'")
		return nil, &ComponentValidationError{Component: component, Problems: problems}
	}
	if raw.Metadata.Name == nil || strings.TrimSpace(*raw.Metadata.Name) == "" {
		problems = append(problems, "missing required field 'metadata.name'")
	}

	meta := types.ComponentMetadata{
		Output:      raw.Metadata.Output,
		Description: raw.Metadata.Description,
	}
	if raw.Metadata.Name != nil {
		meta.Name = strings.TrimSpace(*raw.Metadata.Name)
	}
	meta.Inputs = stringList(raw.Metadata.Inputs, "metadata.inputs", &problems)
	meta.Dependencies = stringList(raw.Metadata.Dependencies, "metadata.dependencies", &problems)
	meta.EnvVars = stringList(raw.Metadata.EnvVars, "metadata.env_vars", &problems)
	meta.ConfigFiles = stringList(raw.Metadata.ConfigFiles, "metadata.config_files", &problems)

	if len(problems) > 0 {
		return nil, &ComponentValidationError{Component: component, Problems: problems}
	}

	return &types.GeneratedComponent{
		SourceCode: strings.TrimSpace(*raw.SourceCode),
		Metadata:   meta,
	}, nil
}

// stringList decodes an optional JSON field that must be a list of strings.
// A wrong shape is recorded in problems; absence is fine.
func stringList(raw json.RawMessage, field string, problems *[]string) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		*problems = append(*problems, fmt.Sprintf("field '%s' must be a list of strings", field))
		return nil
	}
	return list
}
