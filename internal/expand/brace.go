package expand

import (
	"strconv"
	"strings"
)

// BraceExpand expands one level of `{a,b,c}` alternation or `{x..y}`
// / `{x..y..step}` range syntax, recursing until no further top-level
// brace expression remains. A `{...}` with no top-level comma and no
// valid range form is left untouched, matching bash's rule that
// `{foo}` alone (no comma, no range) is not an expansion.
func BraceExpand(s string) []string {
	start := findBraceStart(s)
	if start < 0 {
		return []string{s}
	}
	end := matchingBrace(s, start)
	if end < 0 {
		return []string{s}
	}
	prefix := s[:start]
	inner := s[start+1 : end]
	suffix := s[end+1:]

	alts := splitTopLevel(inner, ',')
	var parts []string
	if len(alts) > 1 {
		parts = alts
	} else if rng := parseRange(inner); rng != nil {
		parts = rng
	} else {
		// Not a real brace expression; treat the brace pair as literal
		// text and only expand whatever comes after it.
		rest := BraceExpand(suffix)
		out := make([]string, len(rest))
		for i, r := range rest {
			out[i] = prefix + "{" + inner + "}" + r
		}
		return out
	}

	var out []string
	for _, mid := range parts {
		out = append(out, BraceExpand(prefix+mid+suffix)...)
	}
	return out
}

// findBraceStart returns the index of the first '{' that can open a
// brace expression; a '{' right after '$' opens a parameter expansion
// and is skipped.
func findBraceStart(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '{' && (i == 0 || s[i-1] != '$') {
			return i
		}
	}
	return -1
}

// matchingBrace returns the index of the '}' matching the '{' at
// start, accounting for nesting, or -1 if unbalanced.
func matchingBrace(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
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

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// braces, so "{a,{b,c}}" splits the outer comma correctly.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

// parseRange recognizes "x..y" and "x..y..step" for integer or
// single-character endpoints, returning nil if inner isn't a range.
func parseRange(inner string) []string {
	parts := strings.Split(inner, "..")
	if len(parts) < 2 || len(parts) > 3 {
		return nil
	}
	step := 1
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n == 0 {
			return nil
		}
		step = n
	}
	if lo, hi, ok := parseIntEndpoints(parts[0], parts[1]); ok {
		return intRange(lo, hi, step, numWidth(parts[0], parts[1]))
	}
	if lo, hi, ok := parseCharEndpoints(parts[0], parts[1]); ok {
		return charRange(lo, hi, step)
	}
	return nil
}

func parseIntEndpoints(a, b string) (int, int, bool) {
	lo, err1 := strconv.Atoi(a)
	hi, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func parseCharEndpoints(a, b string) (byte, byte, bool) {
	if len(a) != 1 || len(b) != 1 {
		return 0, 0, false
	}
	return a[0], b[0], true
}

// numWidth reports the zero-padding width implied by a leading-zero
// endpoint, e.g. "{01..10}" produces "01".."10".
func numWidth(a, b string) int {
	w := 0
	for _, s := range []string{a, b} {
		neg := strings.HasPrefix(s, "-")
		if neg {
			s = s[1:]
		}
		if len(s) > 1 && s[0] == '0' && len(s) > w {
			w = len(s)
		}
	}
	return w
}

func intRange(lo, hi, step, width int) []string {
	if step < 0 {
		step = -step
	}
	var out []string
	if lo <= hi {
		for v := lo; v <= hi; v += step {
			out = append(out, padInt(v, width))
		}
	} else {
		for v := lo; v >= hi; v -= step {
			out = append(out, padInt(v, width))
		}
	}
	return out
}

func padInt(v, width int) string {
	s := strconv.Itoa(v)
	neg := strings.HasPrefix(s, "-")
	digits := s
	if neg {
		digits = s[1:]
	}
	for len(digits) < width {
		digits = "0" + digits
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func charRange(lo, hi byte, step int) []string {
	if step < 0 {
		step = -step
	}
	if step == 0 {
		step = 1
	}
	var out []string
	if lo <= hi {
		for v := int(lo); v <= int(hi); v += step {
			out = append(out, string(rune(v)))
		}
	} else {
		for v := int(lo); v >= int(hi); v -= step {
			out = append(out, string(rune(v)))
		}
	}
	return out
}
