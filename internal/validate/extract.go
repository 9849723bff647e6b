package validate

import (
	"regexp"
	"strings"
)

// maxRawMessage bounds the fallback record when nothing in the output was
// recognizable. Keeps corrector prompts from ballooning on noisy programs.
const maxRawMessage = 2000

var (
	// compiler diagnostics printed by `go run`: ./agent.go:12:3: undefined: foo
	compileLineRe = regexp.MustCompile(`^(?:\./)?([\w./-]+\.go):(\d+)(?::\d+)?:\s*(.+)$`)
	// stack frame locations: "\t/tmp/forge-run-x/agent.go:7 +0x1d"
	frameLineRe = regexp.MustCompile(`^\s+([\w./~-]+\.go):(\d+)`)
)

// ExtractErrors distills captured process output into structured records.
// The heuristic, in order of preference:
//
//  1. compiler diagnostic lines each become a located record;
//  2. stack-frame locations are paired with the function line above them
//     and all carry the last "cause" line (panic:, fatal error:, ...);
//  3. a cause line with no locations becomes one unlocated record;
//  4. anything else non-empty becomes a single raw-text record.
//
// It is deliberately best-effort and never fails; callers must treat the
// records as hints for the corrector, not ground truth.
func ExtractErrors(raw string) []ErrorRecord {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")

	cause := ""
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "panic:") || strings.Contains(strings.ToLower(t), "error:") {
			cause = t
		}
	}

	var records []ErrorRecord
	for i, line := range lines {
		if m := compileLineRe.FindStringSubmatch(line); m != nil {
			records = append(records, ErrorRecord{
				Kind:    KindSyntax,
				File:    m[1],
				Line:    atoiSafe(m[2]),
				Message: m[3],
			})
			continue
		}
		if m := frameLineRe.FindStringSubmatch(line); m != nil {
			msg := cause
			if msg == "" {
				msg = "runtime failure"
			}
			records = append(records, ErrorRecord{
				Kind:    KindRuntime,
				File:    m[1],
				Line:    atoiSafe(m[2]),
				Context: previousNonEmpty(lines, i),
				Message: msg,
			})
		}
	}
	if len(records) > 0 {
		return records
	}

	if cause != "" {
		return []ErrorRecord{{Kind: KindRuntime, Message: cause}}
	}

	msg := strings.TrimSpace(raw)
	if len(msg) > maxRawMessage {
		msg = msg[:maxRawMessage]
	}
	return []ErrorRecord{{Kind: KindRuntime, Message: msg}}
}

func previousNonEmpty(lines []string, i int) string {
	for j := i - 1; j >= 0; j-- {
		if t := strings.TrimSpace(lines[j]); t != "" {
			return t
		}
	}
	return ""
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
