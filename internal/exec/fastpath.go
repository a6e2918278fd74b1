package exec

import (
	"strconv"
	"strings"
)

// fastPathMeta is every byte whose presence disqualifies a line from
// the fast path (spec §4.H "Fast path"): once any of these appear, the
// line might involve expansion, grouping, substitution, or globbing,
// and only the full tokenizer/parser can be trusted to get it right.
const fastPathMeta = "$`()*?[{}\\"

// fastPathBuiltins is the fixed set of trivial builtins the fast path
// may short-circuit. Every one of them ignores stdin/stdout/stderr
// content and has no observable side effect beyond an exit code, so
// skipping redirection/pipeline/job-control machinery for them can
// never be observably different from running them through the full
// Executor.
var fastPathBuiltins = map[string]bool{
	"true":  true,
	"false": true,
	":":     true,
	"exit":  true,
}

// TryFastPath attempts the spec's single-line optimization: a
// metacharacter-free line naming one of the trivial builtins, with no
// alias or function shadowing it, skips tokenizing/parsing/expansion
// entirely. It reports handled=false for anything else, including
// malformed input, so the caller always falls back to the full path —
// the fast path is pure optimization and must never change semantics
// (spec §9 design note on "cooperative fast path").
func (ex *Executor) TryFastPath(line string) (code int, err error, handled bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.ContainsAny(trimmed, fastPathMeta) || strings.Contains(trimmed, "\n") {
		return 0, nil, false
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return 0, nil, false
	}
	name := fields[0]

	if _, aliased := ex.Store.Alias(name); aliased {
		return 0, nil, false
	}
	if _, isFn := ex.Store.Function(name); isFn {
		return 0, nil, false
	}
	if !fastPathBuiltins[name] {
		return 0, nil, false
	}

	switch name {
	case "true", ":":
		if len(fields) != 1 {
			return 0, nil, false
		}
		ex.Store.SetLastExitCode(0)
		return 0, nil, true
	case "false":
		if len(fields) != 1 {
			return 0, nil, false
		}
		ex.Store.SetLastExitCode(1)
		return 1, nil, true
	case "exit":
		var n int
		switch len(fields) {
		case 1:
			n = ex.Store.LastExitCode()
		case 2:
			v, convErr := strconv.Atoi(fields[1])
			if convErr != nil {
				return 0, nil, false
			}
			n = v & 0xff
		default:
			return 0, nil, false
		}
		return n, NewExit(n), true
	}
	return 0, nil, false
}
