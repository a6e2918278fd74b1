package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/den-shell/den/internal/exec"
)

func (s *Set) registerEcho() {
	s.register("echo", bEcho)
	s.register("printf", bPrintf)
}

// bEcho implements `echo [-neE] [arg...]`. -n suppresses the trailing
// newline, -e enables backslash escapes (on by default den treats them
// literally unless -e is given, matching bash's default xpg_echo-off
// behavior), -E disables them again after a prior -e.
func bEcho(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	newline := true
	interpret := false
	i := 0
	for i < len(args) {
		switch args[i] {
		case "-n":
			newline = false
		case "-e":
			interpret = true
		case "-E":
			interpret = false
		default:
			goto wordsDone
		}
		i++
	}
wordsDone:
	words := args[i:]
	var b strings.Builder
	for j, w := range words {
		if j > 0 {
			b.WriteByte(' ')
		}
		if interpret {
			b.WriteString(expandEchoEscapes(w))
		} else {
			b.WriteString(w)
		}
	}
	if newline {
		b.WriteByte('\n')
	}
	fmt.Fprint(io.Stdout, b.String())
	return 0, nil
}

func expandEchoEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		n, consumed := decodeBackslashEscape(s[i:])
		if consumed == 0 {
			if s[i] == 'c' {
				return b.String()
			}
			b.WriteByte('\\')
			b.WriteByte(s[i])
			continue
		}
		b.WriteRune(n)
		i += consumed - 1
	}
	return b.String()
}

// decodeBackslashEscape decodes the escape sequence starting at s[0]
// (the character right after the backslash), returning the rune it
// represents and how many bytes of s it consumed. consumed is 0 for
// an escape this function doesn't know about (including the bare "c"
// terminator, which expandEchoEscapes handles itself since it ends
// output rather than producing a rune).
func decodeBackslashEscape(s string) (rune, int) {
	if len(s) == 0 {
		return 0, 0
	}
	switch s[0] {
	case 'n':
		return '\n', 1
	case 't':
		return '\t', 1
	case 'r':
		return '\r', 1
	case '\\':
		return '\\', 1
	case 'a':
		return '\a', 1
	case 'b':
		return '\b', 1
	case 'f':
		return '\f', 1
	case 'v':
		return '\v', 1
	case 'e', 'E':
		return 0x1b, 1
	case '"':
		return '"', 1
	case '\'':
		return '\'', 1
	case 'x':
		return decodeHexEscape(s[1:], 2)
	case 'u':
		return decodeHexEscape(s[1:], 4)
	case 'U':
		return decodeHexEscape(s[1:], 8)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		return decodeOctalEscape(s)
	}
	return 0, 0
}

// decodeHexEscape reads up to maxDigits hex digits from s (fewer if s
// runs out or has a non-hex byte first), returning the rune value and
// the total consumed length including the leading marker byte ('x',
// 'u', or 'U') already stripped by the caller.
func decodeHexEscape(s string, maxDigits int) (rune, int) {
	n := 0
	for n < maxDigits && n < len(s) && isHexDigit(s[n]) {
		n++
	}
	if n == 0 {
		return 0, 0
	}
	v, _ := strconv.ParseInt(s[:n], 16, 32)
	return rune(v), n + 1
}

// decodeOctalEscape reads a "\0NN" (leading 0 optional per bash: up to
// three octal digits right after the backslash) from s.
func decodeOctalEscape(s string) (rune, int) {
	n := 0
	for n < 3 && n < len(s) && s[n] >= '0' && s[n] <= '7' {
		n++
	}
	v, _ := strconv.ParseInt(s[:n], 8, 32)
	return rune(v), n
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// bPrintf implements printf(1): %s/%d/%i/%u/%x/%X/%o/%c/%f/%e/%g/%b/%q/%%,
// '*'/'.*' dynamic width and precision, the full backslash escape set
// shared with echo -e, and -v NAME to capture output into a variable
// instead of writing it to stdout. The format recycles over the
// argument list when more arguments than conversions are supplied, the
// way POSIX printf does.
func bPrintf(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	varName := ""
	if len(args) >= 2 && args[0] == "-v" {
		varName = args[1]
		args = args[2:]
	}
	if len(args) == 0 {
		return usageError(io, "printf [-v name] format [arguments]")
	}
	format := unescapePrintfFormat(args[0])
	rest := args[1:]

	var out strings.Builder
	first := true
	for first || len(rest) > 0 {
		first = false
		consumed, text, err := runPrintfFormat(format, rest)
		if err != nil {
			fmt.Fprintf(io.Stderr, "den: printf: %v\n", err)
			return 1, nil
		}
		out.WriteString(text)
		if consumed == 0 {
			break
		}
		rest = rest[consumed:]
	}

	if varName != "" {
		if err := ex.Store.Set(varName, out.String()); err != nil {
			fmt.Fprintf(io.Stderr, "den: printf: %v\n", err)
			return 1, nil
		}
		return 0, nil
	}
	fmt.Fprint(io.Stdout, out.String())
	return 0, nil
}

func unescapePrintfFormat(f string) string {
	return expandEchoEscapes(f)
}

// runPrintfFormat applies format once against args, returning how many
// args it consumed and the rendered text.
func runPrintfFormat(format string, args []string) (int, string, error) {
	var b strings.Builder
	used := 0
	next := func() string {
		if used < len(args) {
			v := args[used]
			used++
			return v
		}
		return ""
	}
	nextInt := func() int {
		v, err := strconv.Atoi(strings.TrimSpace(next()))
		if err != nil {
			return 0
		}
		return v
	}

	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}

		spec, width, precision, hasPrecision, zeroPad, newI := parsePrintfSpec(format, i, nextInt)
		i = newI
		if i >= len(format) {
			b.WriteByte('%')
			b.WriteString(spec)
			break
		}

		verb := format[i]
		text, err := renderPrintfVerb(verb, width, precision, hasPrecision, zeroPad, next)
		if err != nil {
			b.WriteByte('%')
			b.WriteByte(verb)
			continue
		}
		b.WriteString(text)
	}
	return used, b.String(), nil
}

// parsePrintfSpec scans the flags/width/precision portion of a
// conversion starting at format[i] (right after the '%'), resolving
// '*'/'.*' against args via nextInt. It returns the raw spec text (for
// the unknown-verb fallback), the resolved width/precision, whether a
// precision was given at all, whether '0' zero-padding was requested,
// and the index of the verb byte itself.
func parsePrintfSpec(format string, i int, nextInt func() int) (spec string, width, precision int, hasPrecision, zeroPad bool, newI int) {
	start := i
	leftAlign := false
	for i < len(format) && (format[i] == '-' || format[i] == '0' || format[i] == '+' || format[i] == ' ' || format[i] == '#') {
		switch format[i] {
		case '-':
			leftAlign = true
		case '0':
			zeroPad = true
		}
		i++
	}
	if i < len(format) && format[i] == '*' {
		width = nextInt()
		i++
	} else {
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}
	}
	if leftAlign && width > 0 {
		width = -width
		zeroPad = false // '-' overrides '0' per printf(3)
	}
	if i < len(format) && format[i] == '.' {
		i++
		hasPrecision = true
		if i < len(format) && format[i] == '*' {
			precision = nextInt()
			i++
		} else {
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				precision = precision*10 + int(format[i]-'0')
				i++
			}
		}
	}
	return format[start:i], width, precision, hasPrecision, zeroPad, i
}

// renderPrintfVerb formats one conversion once its width/precision are
// already resolved, consuming exactly as many args as the verb needs.
func renderPrintfVerb(verb byte, width, precision int, hasPrecision, zeroPad bool, next func() string) (string, error) {
	fspec := func(kind byte) string {
		s := "%"
		if zeroPad && width > 0 {
			s += "0"
		}
		if width != 0 {
			s += strconv.Itoa(width)
		}
		if hasPrecision {
			s += "." + strconv.Itoa(precision)
		}
		return s + string(kind)
	}

	switch verb {
	case 's':
		v := next()
		if hasPrecision && precision < len(v) {
			v = v[:precision]
		}
		return fmt.Sprintf(fspec('s'), v), nil
	case 'c':
		v := next()
		if len(v) == 0 {
			return fmt.Sprintf(fspec('s'), ""), nil
		}
		return fmt.Sprintf(fspec('c'), rune(v[0])), nil
	case 'd', 'i':
		v, _ := strconv.ParseInt(strings.TrimSpace(next()), 0, 64)
		return fmt.Sprintf(fspec('d'), v), nil
	case 'u':
		v, _ := strconv.ParseInt(strings.TrimSpace(next()), 0, 64)
		return fmt.Sprintf(fspec('d'), uint64(v)), nil
	case 'x':
		v, _ := strconv.ParseInt(strings.TrimSpace(next()), 0, 64)
		return fmt.Sprintf(fspec('x'), v), nil
	case 'X':
		v, _ := strconv.ParseInt(strings.TrimSpace(next()), 0, 64)
		return fmt.Sprintf(fspec('X'), v), nil
	case 'o':
		v, _ := strconv.ParseInt(strings.TrimSpace(next()), 0, 64)
		return fmt.Sprintf(fspec('o'), v), nil
	case 'f', 'F':
		v, _ := strconv.ParseFloat(strings.TrimSpace(next()), 64)
		return fmt.Sprintf(fspec('f'), v), nil
	case 'e', 'E':
		v, _ := strconv.ParseFloat(strings.TrimSpace(next()), 64)
		return fmt.Sprintf(fspec(verb), v), nil
	case 'g', 'G':
		v, _ := strconv.ParseFloat(strings.TrimSpace(next()), 64)
		return fmt.Sprintf(fspec(verb), v), nil
	case 'b':
		return expandEchoEscapes(next()), nil
	case 'q':
		return shellQuote(next()), nil
	}
	return "", fmt.Errorf("unknown format specifier %q", string(verb))
}

// shellQuote renders v the way bash's printf %q does: single-quoted,
// with any embedded single quote closed, escaped, and reopened.
func shellQuote(v string) string {
	if v == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
