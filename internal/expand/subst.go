package expand

import (
	"strconv"
	"strings"

	"github.com/den-shell/den/internal/arith"
)

// substitute scans text for '$' and backtick introductions and expands
// each one (parameter, command, or arithmetic substitution), returning
// the fully expanded literal text. inDouble indicates the text came
// from a double-quoted segment, relevant only for which constructs are
// even reachable (single-quoted text never reaches this function).
func (e *Engine) substitute(text string, inDouble bool) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\\' && inDouble && i+1 < len(text):
			// Inside double quotes only \$, \`, \", \\, and \newline keep
			// their escaping meaning; everything else stays literal
			// including the backslash itself.
			next := text[i+1]
			if next == '$' || next == '`' || next == '"' || next == '\\' {
				out.WriteByte(next)
				i += 2
				continue
			}
			out.WriteByte(c)
			i++
		case c == '`':
			end := strings.IndexByte(text[i+1:], '`')
			if end < 0 {
				out.WriteByte(c)
				i++
				continue
			}
			src := text[i+1 : i+1+end]
			val, err := e.runCommandSub(src)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = i + 1 + end + 1
		case c == '$' && i+1 < len(text):
			consumed, val, err := e.substituteDollar(text[i:])
			if err != nil {
				return "", err
			}
			if consumed == 0 {
				out.WriteByte(c)
				i++
				continue
			}
			out.WriteString(val)
			i += consumed
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

// substituteDollar expands the '$...' construct starting at s[0]=='$',
// returning how many bytes of s it consumed and the expansion text.
// consumed==0 means s didn't start a recognized construct; the '$'
// should be emitted literally.
func (e *Engine) substituteDollar(s string) (consumed int, value string, err error) {
	if strings.HasPrefix(s, "$((") {
		end := matchingParenPair(s, 3)
		if end > 0 {
			expr := s[3 : end-2]
			v, err := arith.Eval(expr, e.Store)
			if err != nil {
				return 0, "", err
			}
			return end, strconv.FormatInt(v, 10), nil
		}
	}
	if strings.HasPrefix(s, "$(") {
		end := matchingParen(s, 1)
		if end > 0 {
			src := s[2:end]
			val, err := e.runCommandSub(src)
			if err != nil {
				return 0, "", err
			}
			return end + 1, val, nil
		}
	}
	if strings.HasPrefix(s, "${") {
		end := matchingBraceByte(s, 1)
		if end > 0 {
			expr := s[2:end]
			val, err := e.expandParamExpr(expr)
			if err != nil {
				return 0, "", err
			}
			return end + 1, val, nil
		}
	}
	// Bare $NAME / $1 / $@ / $* / $# / $? / $$ / $! / $0
	name, n := readBareParamName(s[1:])
	if n == 0 {
		return 0, "", nil
	}
	val := e.lookupParam(name)
	return 1 + n, val, nil
}

func (e *Engine) runCommandSub(src string) (string, error) {
	if e.Runner == nil {
		return "", nil
	}
	out, code, err := e.Runner.RunCaptured(src)
	if err != nil {
		return "", err
	}
	e.Store.SetLastExitCode(code)
	return strings.TrimRight(out, "\n"), nil
}

// matchingParen returns the index just past the ')' matching the '('
// at s[open], honoring nesting.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchingParenPair finds the end of a "$((expr))" construct, where
// start is the index just past "$((" (the start of expr). It tracks
// only expr's own balanced parens; the first ')' encountered at
// depth 0 must therefore belong to the construct's closing "))", and
// the function verifies the second one immediately follows. Returns
// the index just past both closing parens, or -1 if unterminated.
func matchingParenPair(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				if i+1 < len(s) && s[i+1] == ')' {
					return i + 2
				}
				return -1
			}
			depth--
		}
	}
	return -1
}

func matchingBraceByte(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// readBareParamName reads an unbraced parameter reference immediately
// following '$': an identifier, a single digit, or one of the special
// one-character parameters. Returns the name and the byte length
// consumed from s (not including the leading '$').
func readBareParamName(s string) (name string, n int) {
	if s == "" {
		return "", 0
	}
	switch s[0] {
	case '@', '*', '#', '?', '$', '!', '-':
		return string(s[0]), 1
	}
	if s[0] >= '0' && s[0] <= '9' {
		return string(s[0]), 1
	}
	if isIdentStart(s[0]) {
		j := 1
		for j < len(s) && isIdentByte(s[j]) {
			j++
		}
		return s[:j], j
	}
	return "", 0
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
