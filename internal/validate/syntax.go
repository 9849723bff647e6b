package validate

import (
	"go/parser"
	"go/scanner"
	"go/token"
)

// artifactFilename is the name assembled agents are parsed and executed
// under, so locations in syntax and runtime errors line up.
const artifactFilename = "agent.go"

// CheckSyntax parses the artifact without spawning any process. It returns
// nil when the source is syntactically valid, otherwise a syntax record for
// the first diagnostic (the parser's later diagnostics are usually cascade
// noise and only confuse the corrector).
func CheckSyntax(source string) *ErrorRecord {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, artifactFilename, source, parser.AllErrors)
	if err == nil {
		return nil
	}

	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		first := list[0]
		return &ErrorRecord{
			Kind:    KindSyntax,
			File:    first.Pos.Filename,
			Line:    first.Pos.Line,
			Context: lineAt(source, first.Pos.Line),
			Message: first.Msg,
		}
	}
	return &ErrorRecord{Kind: KindSyntax, Message: err.Error()}
}

// lineAt returns the 1-based line of source, trimmed of the trailing
// newline, or "" when out of range.
func lineAt(source string, n int) string {
	if n <= 0 {
		return ""
	}
	line := 1
	start := 0
	for i := 0; i < len(source); i++ {
		if source[i] != '\n' {
			continue
		}
		if line == n {
			return source[start:i]
		}
		line++
		start = i + 1
	}
	if line == n {
		return source[start:]
	}
	return ""
}
