// Package deps identifies the third-party modules an assembled agent
// imports and, when policy allows, makes them available to the sandbox
// before execution.
package deps

import (
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strings"
)

// stdlibSegments is the fixed knowledge set separating standard-library
// imports from fetchable third-party ones. Keyed by the first path segment;
// anything listed here never triggers an install.
var stdlibSegments = map[string]bool{
	"archive": true, "bufio": true, "bytes": true, "cmp": true,
	"compress": true, "container": true, "context": true, "crypto": true,
	"database": true, "debug": true, "embed": true, "encoding": true,
	"errors": true, "expvar": true, "flag": true, "fmt": true,
	"go": true, "hash": true, "html": true, "image": true,
	"index": true, "io": true, "iter": true, "log": true,
	"maps": true, "math": true, "mime": true, "net": true,
	"os": true, "path": true, "plugin": true, "reflect": true,
	"regexp": true, "runtime": true, "slices": true, "sort": true,
	"strconv": true, "strings": true, "structs": true, "sync": true,
	"syscall": true, "testing": true, "text": true, "time": true,
	"unicode": true, "unsafe": true, "weak": true,
	// never installable
	"C": true, "internal": true, "vendor": true,
}

// Resolve parses the artifact's imports and returns the third-party import
// paths, deduplicated and sorted. An import is third-party when its first
// segment is not a known standard-library root and looks like a host name
// (contains a dot); bare unknown segments cannot be fetched and are left
// for the compiler to complain about.
func Resolve(source string) ([]string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "agent.go", source, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("parsing imports: %w", err)
	}

	seen := make(map[string]bool)
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		first := path
		if i := strings.IndexByte(path, '/'); i >= 0 {
			first = path[:i]
		}
		if stdlibSegments[first] || !strings.Contains(first, ".") {
			continue
		}
		seen[path] = true
	}

	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}
