package expand

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// globOptions mirrors the shopt flags that change pathname-expansion
// behavior (spec.md §4.C.E5). den implements its own directory walker
// rather than path/filepath's Glob because none of this is expressible
// through it: Go's Glob always matches dotfiles (bash hides them by
// default), has no notion of extglob groups or `**` recursion, and
// can't be told to fold case.
type globOptions struct {
	dotglob    bool
	nocaseglob bool
	globstar   bool
	extglob    bool
}

// hasGlobMeta reports whether s contains any character (or, with
// extglob on, any extglob group opener) that makes it worth walking
// the filesystem for. Plain literal text skips globPattern entirely.
func hasGlobMeta(s string, extglob bool) bool {
	if strings.ContainsAny(s, "*?[") {
		return true
	}
	if extglob {
		for _, op := range []string{"@(", "!(", "+(", "?(", "*("} {
			if strings.Contains(s, op) {
				return true
			}
		}
	}
	return false
}

// globPattern expands one pathname-expansion candidate against the
// filesystem, walking one '/'-separated segment at a time so each
// segment's matches constrain the next segment's search directories.
func globPattern(pattern string, opts globOptions) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}
	abs := strings.HasPrefix(pattern, "/")
	raw := strings.Split(pattern, "/")
	var segs []string
	for i, s := range raw {
		if s == "" && (i == 0 || i == len(raw)-1) {
			continue
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		if abs {
			return []string{"/"}, nil
		}
		return nil, nil
	}

	current := []string{"."}
	if abs {
		current = []string{"/"}
	}

	for idx, seg := range segs {
		isLast := idx == len(segs)-1
		var next []string
		switch {
		case seg == "**" && opts.globstar:
			for _, dir := range current {
				if isLast {
					next = append(next, dir)
					if all, err := collectAllRecursive(dir, opts); err == nil {
						next = append(next, all...)
					}
				} else {
					// "**" matches zero or more directories, so the
					// segment right after it is also searched for in dir
					// itself, not just its descendants.
					next = append(next, dir)
					if dirs, err := collectDirsRecursive(dir, opts); err == nil {
						next = append(next, dirs...)
					}
				}
			}
		case !hasGlobMeta(seg, opts.extglob):
			for _, dir := range current {
				next = append(next, filepath.Join(dir, seg))
			}
		default:
			for _, dir := range current {
				names, err := readDirNames(dir)
				if err != nil {
					continue
				}
				for _, name := range names {
					if strings.HasPrefix(name, ".") && !opts.dotglob && !strings.HasPrefix(seg, ".") {
						continue
					}
					if matchSegment(seg, name, opts) {
						next = append(next, filepath.Join(dir, name))
					}
				}
			}
		}
		current = next
		if len(current) == 0 {
			return nil, nil
		}
	}

	var out []string
	for _, p := range current {
		if _, err := os.Lstat(p); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// collectDirsRecursive lists every directory reachable from root
// (root's children, their children, and so on), for a non-terminal
// `**` path segment to fan the search out into.
func collectDirsRecursive(root string, opts globOptions) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		name := ent.Name()
		if strings.HasPrefix(name, ".") && !opts.dotglob {
			continue
		}
		p := filepath.Join(root, name)
		out = append(out, p)
		if sub, err := collectDirsRecursive(p, opts); err == nil {
			out = append(out, sub...)
		}
	}
	return out, nil
}

// collectAllRecursive lists every file and directory reachable from
// root, for a terminal `**` segment that must match both.
func collectAllRecursive(root string, opts globOptions) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ent := range entries {
		name := ent.Name()
		if strings.HasPrefix(name, ".") && !opts.dotglob {
			continue
		}
		p := filepath.Join(root, name)
		out = append(out, p)
		if ent.IsDir() {
			if sub, err := collectAllRecursive(p, opts); err == nil {
				out = append(out, sub...)
			}
		}
	}
	return out, nil
}

// matchSegment reports whether name (one path component, no '/')
// matches pat under the glob (and, if enabled, extglob) grammar.
func matchSegment(pat, name string, opts globOptions) bool {
	return matchFrom([]rune(pat), []rune(name), opts, func(rest []rune) bool { return len(rest) == 0 })
}

// matchFrom matches pat against a prefix of name, calling cont on
// whatever of name is left over; cont decides whether that leftover
// is acceptable (normally "must be empty"). Continuation-passing lets
// the extglob repetition operators (`*(...)`, `+(...)`) recurse into
// themselves without needing to reconstruct combined pattern strings.
func matchFrom(pat, name []rune, opts globOptions, cont func([]rune) bool) bool {
	if len(pat) == 0 {
		return cont(name)
	}
	switch {
	case pat[0] == '*':
		rest := pat[1:]
		for len(rest) > 0 && rest[0] == '*' {
			rest = rest[1:]
		}
		for i := 0; i <= len(name); i++ {
			if matchFrom(rest, name[i:], opts, cont) {
				return true
			}
		}
		return false
	case pat[0] == '?':
		if len(name) == 0 {
			return false
		}
		return matchFrom(pat[1:], name[1:], opts, cont)
	case pat[0] == '[':
		end := findClassEnd(pat)
		if end < 0 {
			if len(name) == 0 || !runeEq(pat[0], name[0], opts.nocaseglob) {
				return false
			}
			return matchFrom(pat[1:], name[1:], opts, cont)
		}
		if len(name) == 0 || !matchClass(pat[:end+1], name[0], opts.nocaseglob) {
			return false
		}
		return matchFrom(pat[end+1:], name[1:], opts, cont)
	case opts.extglob && isExtglobStart(pat):
		return matchExtglob(pat, name, opts, cont)
	default:
		if len(name) == 0 || !runeEq(pat[0], name[0], opts.nocaseglob) {
			return false
		}
		return matchFrom(pat[1:], name[1:], opts, cont)
	}
}

func isExtglobStart(pat []rune) bool {
	if len(pat) < 2 {
		return false
	}
	switch pat[0] {
	case '@', '!', '+', '?', '*':
		return pat[1] == '('
	}
	return false
}

// parseExtglobGroup splits a leading "<op>(alt1|alt2|...)" off pat,
// returning the index of its closing ')' and the alternatives inside.
func parseExtglobGroup(pat []rune) (end int, alts [][]rune, ok bool) {
	if !isExtglobStart(pat) {
		return -1, nil, false
	}
	depth := 0
	altStart := 2
	for i := 1; i < len(pat); i++ {
		switch pat[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				alts = append(alts, pat[altStart:i])
				return i, alts, true
			}
		case '|':
			if depth == 1 {
				alts = append(alts, pat[altStart:i])
				altStart = i + 1
			}
		}
	}
	return -1, nil, false
}

// matchExtglob handles one of the five extglob group forms at pat[0],
// already confirmed by isExtglobStart to be well-formed enough to try.
func matchExtglob(pat, name []rune, opts globOptions, cont func([]rune) bool) bool {
	kind := pat[0]
	end, alts, ok := parseExtglobGroup(pat)
	if !ok {
		if len(name) == 0 || !runeEq(pat[0], name[0], opts.nocaseglob) {
			return false
		}
		return matchFrom(pat[1:], name[1:], opts, cont)
	}
	rest := pat[end+1:]

	switch kind {
	case '@': // exactly one of the alternatives
		for _, alt := range alts {
			if matchFrom(alt, name, opts, func(n []rune) bool { return matchFrom(rest, n, opts, cont) }) {
				return true
			}
		}
		return false
	case '?': // zero or one
		if matchFrom(rest, name, opts, cont) {
			return true
		}
		for _, alt := range alts {
			if matchFrom(alt, name, opts, func(n []rune) bool { return matchFrom(rest, n, opts, cont) }) {
				return true
			}
		}
		return false
	case '*': // zero or more
		var loop func([]rune) bool
		loop = func(n []rune) bool {
			if matchFrom(rest, n, opts, cont) {
				return true
			}
			for _, alt := range alts {
				if matchFrom(alt, n, opts, loop) {
					return true
				}
			}
			return false
		}
		return loop(name)
	case '+': // one or more
		var loop func([]rune) bool
		loop = func(n []rune) bool {
			if matchFrom(rest, n, opts, cont) {
				return true
			}
			for _, alt := range alts {
				if matchFrom(alt, n, opts, loop) {
					return true
				}
			}
			return false
		}
		for _, alt := range alts {
			if matchFrom(alt, name, opts, loop) {
				return true
			}
		}
		return false
	case '!': // none of the alternatives match the consumed prefix
		for i := 0; i <= len(name); i++ {
			consumed, leftover := name[:i], name[i:]
			anyMatches := false
			for _, alt := range alts {
				if matchFrom(alt, consumed, opts, func(n []rune) bool { return len(n) == 0 }) {
					anyMatches = true
					break
				}
			}
			if !anyMatches && matchFrom(rest, leftover, opts, cont) {
				return true
			}
		}
		return false
	}
	return false
}

// findClassEnd locates the ']' closing a "[...]" bracket expression
// starting at pat[0]=='[', honoring the rule that a ']' immediately
// after '[' or '[!'/'[^' is a literal member, not the closer.
func findClassEnd(pat []rune) int {
	i := 1
	if i < len(pat) && (pat[i] == '!' || pat[i] == '^') {
		i++
	}
	if i < len(pat) && pat[i] == ']' {
		i++
	}
	for i < len(pat) {
		if pat[i] == ']' {
			return i
		}
		i++
	}
	return -1
}

// matchClass reports whether r is a member of the bracket expression
// cls (including its surrounding '[' ']'), supporting negation and
// a-z-style ranges.
func matchClass(cls []rune, r rune, nocase bool) bool {
	inner := cls[1 : len(cls)-1]
	neg := false
	if len(inner) > 0 && (inner[0] == '!' || inner[0] == '^') {
		neg = true
		inner = inner[1:]
	}
	rl, ru := r, r
	if nocase {
		rl, ru = unicode.ToLower(r), unicode.ToUpper(r)
	}
	matched := false
	for i := 0; i < len(inner); {
		if i+2 < len(inner) && inner[i+1] == '-' {
			lo, hi := inner[i], inner[i+2]
			if inRange(lo, hi, r) || (nocase && (inRange(lo, hi, rl) || inRange(lo, hi, ru))) {
				matched = true
			}
			i += 3
			continue
		}
		c := inner[i]
		if c == r || (nocase && (c == rl || c == ru)) {
			matched = true
		}
		i++
	}
	if neg {
		return !matched
	}
	return matched
}

func inRange(lo, hi, r rune) bool { return lo <= r && r <= hi }

func runeEq(a, b rune, nocase bool) bool {
	if a == b {
		return true
	}
	if nocase {
		return unicode.ToLower(a) == unicode.ToLower(b)
	}
	return false
}
