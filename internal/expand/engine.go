// Package expand implements the expansion engine: alias substitution,
// brace expansion, parameter/command/arithmetic substitution, IFS word
// splitting, and pathname (glob) expansion, applied in that order to
// every ast.Word the parser produces before a command is dispatched.
// Brace expansion runs on the word's raw text before any substitution,
// so braces that only appear in a substituted value are not expanded.
package expand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/state"
)

// CommandRunner executes a command-substitution source string
// ("$(...)" or the legacy backtick form) and captures its standard
// output. The executor package implements this; expand only depends on
// the narrow interface to avoid an import cycle.
type CommandRunner interface {
	RunCaptured(src string) (stdout string, exitCode int, err error)
}

// Engine carries everything word expansion needs: shell state for
// parameter/alias lookups and a CommandRunner for "$(...)" substitution.
type Engine struct {
	Store  *state.Store
	Runner CommandRunner

	// NoGlob mirrors `set -f`: when true, pathname expansion is skipped
	// and glob metacharacters pass through literally.
	NoGlob bool
}

// New builds an Engine bound to a store and command runner.
func New(s *state.Store, runner CommandRunner) *Engine {
	return &Engine{Store: s, Runner: runner}
}

// ExpandAlias resolves one level of command-position alias expansion
// (phase E1). Callers that run the parser again on the returned text
// must guard against feeding it back in when replaced is false.
func (e *Engine) ExpandAlias(name string) (expansion string, replaced bool) {
	out, err := e.Store.ResolveAliasChain(name)
	if err != nil {
		return "", false
	}
	return out, true
}

// part is one piece of a word's fully-substituted text, tagged with
// whether it came from an unquoted (splittable/globbable) context.
type part struct {
	text       string
	splittable bool // eligible for IFS field splitting and globbing
}

// ExpandWord runs phases E2-E5 over a single word, producing zero or
// more resulting argument strings.
func (e *Engine) ExpandWord(w ast.Word) ([]string, error) {
	return e.expandWordFields(w, true)
}

// ExpandWordNoSplit expands a word for contexts that never field-split
// or glob its result (a redirection target, a here-string body, an
// assignment's right-hand side).
func (e *Engine) ExpandWordNoSplit(w ast.Word) (string, error) {
	fields, err := e.expandWordFields(w, false)
	if err != nil {
		return "", err
	}
	return strings.Join(fields, ""), nil
}

func (e *Engine) expandWordFields(w ast.Word, allowSplitGlob bool) ([]string, error) {
	// E3: brace expansion operates on the word's raw literal text; each
	// resulting raw string is independently substituted and split.
	braces := BraceExpand(w.Raw)
	if len(braces) == 1 && braces[0] == w.Raw {
		return e.expandOneWord(w, allowSplitGlob)
	}

	var out []string
	for _, raw := range braces {
		sub := ast.NewWord(raw)
		fields, err := e.expandOneWord(sub, allowSplitGlob)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}
	return out, nil
}

func (e *Engine) expandOneWord(w ast.Word, allowSplitGlob bool) ([]string, error) {
	var parts []part
	anyUnquoted := false
	for _, seg := range w.Segments {
		switch seg.Kind {
		case ast.SegSingleQuoted:
			parts = append(parts, part{text: seg.Text, splittable: false})
		case ast.SegEscaped:
			parts = append(parts, part{text: seg.Text, splittable: false})
		case ast.SegDoubleQuoted:
			text, err := e.substitute(seg.Text, true)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part{text: text, splittable: false})
		default: // SegUnquoted
			anyUnquoted = true
			text, err := e.substitute(seg.Text, false)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part{text: text, splittable: allowSplitGlob})
		}
	}

	if !allowSplitGlob {
		var sb strings.Builder
		for _, p := range parts {
			sb.WriteString(p.text)
		}
		return []string{sb.String()}, nil
	}

	fields := e.splitFields(parts)

	// The empty-unquoted-word-vanishes rule: a word consisting solely of
	// one unquoted part that expanded to empty text produces zero fields.
	if len(parts) == 1 && anyUnquoted && parts[0].text == "" && len(fields) <= 1 {
		return nil, nil
	}

	return e.globFields(fields, anyUnquoted)
}

// splitFields performs IFS word splitting across a word's substituted
// parts, keeping quoted parts' text glued to whichever field they fall
// adjacent to rather than split internally.
func (e *Engine) splitFields(parts []part) []string {
	ifs, ok := e.Store.Get("IFS")
	if !ok {
		ifs = " \t\n"
	}
	if ifs == "" {
		var sb strings.Builder
		for _, p := range parts {
			sb.WriteString(p.text)
		}
		return []string{sb.String()}
	}

	var fields []string
	cur := strings.Builder{}
	haveCur := false

	flush := func() {
		fields = append(fields, cur.String())
		cur.Reset()
		haveCur = false
	}

	for _, p := range parts {
		if !p.splittable {
			cur.WriteString(p.text)
			haveCur = true
			continue
		}
		sub := splitIFS(p.text, ifs)
		if len(sub) == 0 {
			continue
		}
		cur.WriteString(sub[0])
		haveCur = true
		for _, s := range sub[1:] {
			flush()
			cur.WriteString(s)
			haveCur = true
		}
	}
	if haveCur || len(fields) == 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

// splitIFS splits s on runs of IFS characters, discarding leading and
// trailing runs, the way bash's simple (whitespace-collapsing) case
// behaves. den treats every IFS character uniformly rather than
// distinguishing whitespace from non-whitespace IFS members.
func splitIFS(s, ifs string) []string {
	var out []string
	cur := strings.Builder{}
	inField := false
	for _, r := range s {
		if strings.ContainsRune(ifs, r) {
			if inField {
				out = append(out, cur.String())
				cur.Reset()
				inField = false
			}
			continue
		}
		cur.WriteRune(r)
		inField = true
	}
	if inField {
		out = append(out, cur.String())
	}
	return out
}

// globFields applies pathname expansion (E5) to each field that came
// from unquoted text and contains glob metacharacters, honoring the
// shopt-controlled `nullglob`/`failglob`/`dotglob`/`nocaseglob`/
// `globstar`/`extglob` options. A field with no matches is left as its
// literal text, matching bash's default `nullglob`-off behavior, unless
// `failglob` is set, in which case the whole expansion errors out.
func (e *Engine) globFields(fields []string, anyUnquoted bool) ([]string, error) {
	if e.NoGlob || !anyUnquoted {
		return fields, nil
	}
	opts := globOptions{
		dotglob:    e.Store.Option("dotglob"),
		nocaseglob: e.Store.Option("nocaseglob"),
		globstar:   e.Store.Option("globstar"),
		extglob:    e.Store.Option("extglob"),
	}
	nullglob := e.Store.Option("nullglob")
	failglob := e.Store.Option("failglob")

	var out []string
	for _, f := range fields {
		if !hasGlobMeta(f, opts.extglob) {
			out = append(out, f)
			continue
		}
		matches, err := globPattern(f, opts)
		if err != nil || len(matches) == 0 {
			if failglob {
				return nil, fmt.Errorf("den: no match: %s", f)
			}
			if nullglob {
				continue
			}
			out = append(out, f)
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

// ExpandWords expands a slice of words in order, concatenating every
// word's resulting fields.
func (e *Engine) ExpandWords(words []ast.Word) ([]string, error) {
	var out []string
	for _, w := range words {
		fields, err := e.ExpandWord(w)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}
	return out, nil
}
