// Package assembly concatenates generated components into a single runnable
// Go source file. It does plain text surgery, not semantic merging: package
// clauses are dropped, import blocks are hoisted and deduplicated, and the
// bodies are stitched together in plan order. Anything the components got
// wrong (unused imports, duplicate function names) is left for validation
// to find.
package assembly

import (
	"fmt"
	"sort"
	"strings"

	"agentforge/internal/types"
)

// Artifact is the assembled agent.
type Artifact struct {
	AgentName string
	Source    string
	Functions []string
}

// preambleImports are always present; the blank-identifier guards keep them
// legal even when no component body uses them.
var preambleImports = []string{"fmt", "os"}

const preambleHelpers = `var (
	_ = fmt.Sprintf
	_ = os.Getenv
)

// getenv reads key from the environment, returning fallback when unset.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}`

// Assemble builds the artifact for agentName from the generated components.
// Component order is preserved; colliding names are passed through as-is.
func Assemble(agentName string, components []types.GeneratedComponent) *Artifact {
	imports := make(map[string]bool)
	for _, path := range preambleImports {
		imports[path] = true
	}

	var bodies []string
	var functions []string
	for i := range components {
		c := &components[i]
		body, paths := splitComponent(c.SourceCode)
		for _, p := range paths {
			imports[p] = true
		}
		if body != "" {
			bodies = append(bodies, body)
		}
		functions = append(functions, c.FunctionName())
	}

	var b strings.Builder
	b.WriteString("// Code generated by agentforge. DO NOT EDIT.\n")
	fmt.Fprintf(&b, "// Agent: %s\n", agentName)
	b.WriteString("package main\n\n")
	b.WriteString(renderImports(imports))
	b.WriteString("\n\n")
	b.WriteString(preambleHelpers)
	b.WriteString("\n\n")
	for _, body := range bodies {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	b.WriteString(renderMainStub(functions))

	return &Artifact{
		AgentName: agentName,
		Source:    b.String(),
		Functions: functions,
	}
}

// splitComponent strips a fragment's package clause, pulls its import
// declarations out, and returns the remaining body plus the import paths.
func splitComponent(source string) (body string, paths []string) {
	var kept []string
	inBlock := false
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case inBlock:
			if trimmed == ")" {
				inBlock = false
				continue
			}
			if p := quotedPath(trimmed); p != "" {
				paths = append(paths, p)
			}
		case strings.HasPrefix(trimmed, "package "):
			// dropped; the artifact supplies its own
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case strings.HasPrefix(trimmed, "import "):
			if p := quotedPath(trimmed); p != "" {
				paths = append(paths, p)
			}
		default:
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), paths
}

// quotedPath extracts the import path from between the first pair of double
// quotes, which also handles aliased imports.
func quotedPath(line string) string {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return ""
	}
	return line[start+1 : start+1+end]
}

func renderImports(set map[string]bool) string {
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("import (\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "\t%q\n", p)
	}
	b.WriteString(")")
	return b.String()
}

// renderMainStub emits an entry point that executes nothing but documents
// what the agent exposes. Callers are expected to wire the functions into
// main themselves (or let a later iteration of the plan do it).
func renderMainStub(functions []string) string {
	var b strings.Builder
	b.WriteString("func main() {\n")
	b.WriteString("\t// Available functions:\n")
	for _, name := range functions {
		fmt.Fprintf(&b, "\t// - %s\n", name)
	}
	b.WriteString("}\n")
	return b.String()
}
