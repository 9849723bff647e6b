// Package types provides shared type definitions used across agentforge packages.
// This package exists to break import cycles between the collaborator, assembly,
// and pipeline layers. Types here should be plain data with no behavior beyond
// validation helpers.
package types

import (
	"fmt"
	"strings"
)

// ComponentKind identifies which generator a planned component is routed to.
type ComponentKind string

const (
	// KindTool is a deterministic automation step (API call, file IO, parsing).
	KindTool ComponentKind = "tool"
	// KindLLM is a step whose body delegates work back to a language model.
	KindLLM ComponentKind = "llm"
)

// ComponentSpec is one entry of the plan: a single function the final agent
// will contain, described precisely enough for a generator to implement it.
type ComponentSpec struct {
	Name        string        `json:"name"`
	Kind        ComponentKind `json:"kind"`
	Description string        `json:"description"`
	Inputs      []string      `json:"inputs"`
	Output      string        `json:"output"`
}

// Validate reports every structural problem with the spec at once rather
// than failing on the first, so a caller can log the full shape of a bad
// plan entry.
func (s *ComponentSpec) Validate() []string {
	var problems []string
	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "missing required field 'name'")
	}
	switch s.Kind {
	case KindTool, KindLLM:
	case "":
		problems = append(problems, "missing required field 'kind'")
	default:
		problems = append(problems, fmt.Sprintf("unknown kind %q (want %q or %q)", s.Kind, KindTool, KindLLM))
	}
	if strings.TrimSpace(s.Description) == "" {
		problems = append(problems, "missing required field 'description'")
	}
	return problems
}

// ComponentMetadata is the structured half of a generator response. The
// generator declares everything the derived runtime configuration needs:
// external packages, environment variables, and config files the component
// expects to find at run time.
type ComponentMetadata struct {
	Name         string   `json:"name"`
	Inputs       []string `json:"inputs"`
	Output       string   `json:"output"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies,omitempty"`
	EnvVars      []string `json:"env_vars,omitempty"`
	ConfigFiles  []string `json:"config_files,omitempty"`
}

// GeneratedComponent pairs a component's source code with its metadata.
// SourceCode is a complete Go source fragment: one or more top-level
// declarations, optionally preceded by its own package clause and imports
// (the assembler hoists and merges those).
type GeneratedComponent struct {
	SourceCode string            `json:"source_code"`
	Metadata   ComponentMetadata `json:"metadata"`
}

// FunctionName returns the metadata name, falling back to a placeholder
// when a generator omitted it.
func (c *GeneratedComponent) FunctionName() string {
	if c.Metadata.Name != "" {
		return c.Metadata.Name
	}
	return "unnamed_component"
}
