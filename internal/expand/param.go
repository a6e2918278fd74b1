package expand

import (
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/den-shell/den/internal/arith"
)

// lookupParam resolves a bare (unbraced) parameter reference: a
// special one-character parameter, a positional parameter digit, or a
// named variable (falling back to element 0 of an indexed array, as
// bash does for `$arr`).
func (e *Engine) lookupParam(name string) string {
	switch name {
	case "@", "*":
		return strings.Join(e.Store.FrameArgs(), " ")
	case "#":
		return strconv.Itoa(len(e.Store.FrameArgs()))
	case "?":
		return strconv.Itoa(e.Store.LastExitCode())
	case "$":
		return strconv.Itoa(e.Store.ShellPID())
	case "!":
		if pid := e.Store.LastBgPID(); pid != 0 {
			return strconv.Itoa(pid)
		}
		return ""
	case "-":
		return ""
	case "0":
		if sn := e.Store.ScriptName(); sn != "" {
			return sn
		}
	}
	if len(name) == 1 && name[0] >= '1' && name[0] <= '9' {
		n, _ := strconv.Atoi(name)
		v, _ := e.Store.FrameArg(n)
		return v
	}
	if n, err := strconv.Atoi(name); err == nil && n > 0 {
		v, _ := e.Store.FrameArg(n)
		return v
	}
	if v, ok := e.Store.Get(name); ok {
		return v
	}
	if vals := e.Store.ArrayValues(name); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// expandParamExpr expands the contents of "${...}" (braces already
// stripped), covering length, indirection, array subscripts, default/
// assign/error/alternate value operators, substring, and pattern
// prefix/suffix trim and substitution.
func (e *Engine) expandParamExpr(expr string) (string, error) {
	if expr == "" {
		return "", nil
	}

	if expr == "#" {
		return strconv.Itoa(len(e.Store.FrameArgs())), nil
	}
	if strings.HasPrefix(expr, "#") && len(expr) > 1 {
		rest := expr[1:]
		if name, sub, ok := splitSubscript(rest); ok {
			if sub == "@" || sub == "*" {
				return strconv.Itoa(len(e.indexedValues(name))), nil
			}
			idx, err := e.arrayIndex(sub)
			if err != nil {
				return "", err
			}
			v, _ := e.Store.GetArrayElem(name, idx)
			return strconv.Itoa(len(v)), nil
		}
		return strconv.Itoa(len(e.resolveBase(rest))), nil
	}

	if strings.HasPrefix(expr, "!") {
		return e.expandIndirect(expr[1:])
	}

	name, rest, sub, hasSub := splitNameSubscriptRest(expr)

	base := ""
	if hasSub {
		if sub == "@" || sub == "*" {
			base = strings.Join(e.indexedValues(name), " ")
		} else {
			idx, err := e.arrayIndex(sub)
			if err != nil {
				return "", err
			}
			base, _ = e.Store.GetArrayElem(name, idx)
		}
	} else {
		base = e.resolveBase(name)
	}
	isUnset := e.isUnset(name, hasSub, sub)

	if rest == "" {
		return base, nil
	}
	return e.applyParamOp(name, base, isUnset, rest)
}

// resolveBase resolves a bare name (no subscript) to its scalar/
// special/positional/array[0] value.
func (e *Engine) resolveBase(name string) string {
	return e.lookupParam(name)
}

func (e *Engine) indexedValues(name string) []string {
	switch name {
	case "@", "*":
		return e.Store.FrameArgs()
	}
	return e.Store.ArrayValues(name)
}

func (e *Engine) arrayIndex(sub string) (int, error) {
	v, err := arith.Eval(sub, e.Store)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func (e *Engine) isUnset(name string, hasSub bool, sub string) bool {
	if hasSub {
		if sub == "@" || sub == "*" {
			return len(e.indexedValues(name)) == 0
		}
		idx, err := e.arrayIndex(sub)
		if err != nil {
			return true
		}
		_, ok := e.Store.GetArrayElem(name, idx)
		return !ok
	}
	switch name {
	case "@", "*", "#", "?", "$", "!", "-", "0":
		return false
	}
	if len(name) > 0 && name[0] >= '0' && name[0] <= '9' {
		n, _ := strconv.Atoi(name)
		_, ok := e.Store.FrameArg(n)
		return !ok
	}
	_, ok := e.Store.Get(name)
	if ok {
		return false
	}
	return len(e.Store.ArrayValues(name)) == 0
}

func (e *Engine) expandIndirect(rest string) (string, error) {
	name, sub, hasSub := splitSubscript(rest)
	if hasSub && (sub == "@" || sub == "*") {
		idxs := e.Store.ArrayIndices(name)
		strs := make([]string, len(idxs))
		for i, v := range idxs {
			strs[i] = strconv.Itoa(v)
		}
		return strings.Join(strs, " "), nil
	}
	if strings.HasSuffix(rest, "*") || strings.HasSuffix(rest, "@") {
		prefix := rest[:len(rest)-1]
		return strings.Join(e.namesWithPrefix(prefix), " "), nil
	}
	target := e.resolveBase(rest)
	if target == "" {
		return "", nil
	}
	return e.resolveBase(target), nil
}

func (e *Engine) namesWithPrefix(prefix string) []string {
	var out []string
	for _, n := range e.Store.VarNames() {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out
}

// splitSubscript splits "name[sub]" into name and sub, reporting
// whether rest is exactly a bracketed-subscript reference.
func splitSubscript(s string) (name, sub string, ok bool) {
	i := strings.IndexByte(s, '[')
	if i < 0 || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	return s[:i], s[i+1 : len(s)-1], true
}

// splitNameSubscriptRest splits a "${...}" body into the variable
// name, an optional "[subscript]", and the remaining operator text.
func splitNameSubscriptRest(expr string) (name, rest, sub string, hasSub bool) {
	i := 0
	if i < len(expr) && (expr[i] == '@' || expr[i] == '*' || expr[i] == '#' || expr[i] == '?' || expr[i] == '$' || expr[i] == '!' || expr[i] == '-') {
		return expr[:1], expr[1:], "", false
	}
	for i < len(expr) && isIdentByte(expr[i]) {
		i++
	}
	name = expr[:i]
	remainder := expr[i:]
	if strings.HasPrefix(remainder, "[") {
		end := strings.IndexByte(remainder, ']')
		if end > 0 {
			sub = remainder[1:end]
			hasSub = true
			remainder = remainder[end+1:]
		}
	}
	return name, remainder, sub, hasSub
}

// applyParamOp handles every "${name<op>word}" form once name's base
// value and unset-ness are known.
func (e *Engine) applyParamOp(name, base string, isUnset bool, op string) (string, error) {
	switch {
	case strings.HasPrefix(op, ":-"):
		if isUnset || base == "" {
			return e.substitute(op[2:], true)
		}
		return base, nil
	case strings.HasPrefix(op, ":="):
		if isUnset || base == "" {
			val, err := e.substitute(op[2:], true)
			if err != nil {
				return "", err
			}
			if err := e.Store.Set(name, val); err != nil {
				return "", err
			}
			return val, nil
		}
		return base, nil
	case strings.HasPrefix(op, ":?"):
		if isUnset || base == "" {
			msg, _ := e.substitute(op[2:], true)
			if msg == "" {
				msg = "parameter null or not set"
			}
			return "", &ParamError{Name: name, Msg: msg}
		}
		return base, nil
	case strings.HasPrefix(op, ":+"):
		if isUnset || base == "" {
			return "", nil
		}
		return e.substitute(op[2:], true)
	case strings.HasPrefix(op, "-"):
		if isUnset {
			return e.substitute(op[1:], true)
		}
		return base, nil
	case strings.HasPrefix(op, "="):
		if isUnset {
			val, err := e.substitute(op[1:], true)
			if err != nil {
				return "", err
			}
			if err := e.Store.Set(name, val); err != nil {
				return "", err
			}
			return val, nil
		}
		return base, nil
	case strings.HasPrefix(op, "?"):
		if isUnset {
			msg, _ := e.substitute(op[1:], true)
			if msg == "" {
				msg = "parameter not set"
			}
			return "", &ParamError{Name: name, Msg: msg}
		}
		return base, nil
	case strings.HasPrefix(op, "+"):
		if isUnset {
			return "", nil
		}
		return e.substitute(op[1:], true)
	case strings.HasPrefix(op, "##"):
		pat, _ := e.substitute(op[2:], true)
		return trimLongestPrefix(base, pat), nil
	case strings.HasPrefix(op, "#"):
		pat, _ := e.substitute(op[1:], true)
		return trimShortestPrefix(base, pat), nil
	case strings.HasPrefix(op, "%%"):
		pat, _ := e.substitute(op[2:], true)
		return trimLongestSuffix(base, pat), nil
	case strings.HasPrefix(op, "%"):
		pat, _ := e.substitute(op[1:], true)
		return trimShortestSuffix(base, pat), nil
	case strings.HasPrefix(op, "//"):
		return e.applyReplace(base, op[2:], true)
	case strings.HasPrefix(op, "/"):
		return e.applyReplace(base, op[1:], false)
	case strings.HasPrefix(op, "^^"):
		return e.applyCaseConvert(base, op[2:], true, true)
	case strings.HasPrefix(op, "^"):
		return e.applyCaseConvert(base, op[1:], false, true)
	case strings.HasPrefix(op, ",,"):
		return e.applyCaseConvert(base, op[2:], true, false)
	case strings.HasPrefix(op, ","):
		return e.applyCaseConvert(base, op[1:], false, false)
	case strings.HasPrefix(op, ":"):
		return e.applySubstring(base, op[1:])
	}
	return base, nil
}

// ParamError is returned by the ${name:?msg} / ${name?msg} forms.
type ParamError struct {
	Name string
	Msg  string
}

func (e *ParamError) Error() string { return e.Name + ": " + e.Msg }

func (e *Engine) applyReplace(base, rest string, all bool) (string, error) {
	slash := strings.IndexByte(rest, '/')
	var patSrc, repSrc string
	if slash < 0 {
		patSrc = rest
	} else {
		patSrc = rest[:slash]
		repSrc = rest[slash+1:]
	}
	anchorPrefix := strings.HasPrefix(patSrc, "#")
	anchorSuffix := strings.HasPrefix(patSrc, "%")
	if anchorPrefix || anchorSuffix {
		patSrc = patSrc[1:]
	}
	pat, err := e.substitute(patSrc, true)
	if err != nil {
		return "", err
	}
	rep, err := e.substitute(repSrc, true)
	if err != nil {
		return "", err
	}
	switch {
	case anchorPrefix:
		if matched, n := globMatchPrefix(base, pat); matched {
			return rep + base[n:], nil
		}
		return base, nil
	case anchorSuffix:
		if matched, n := globMatchSuffix(base, pat); matched {
			return base[:len(base)-n] + rep, nil
		}
		return base, nil
	}
	return globReplace(base, pat, rep, all), nil
}

// applyCaseConvert implements ${var^pat}/${var^^pat}/${var,pat}/
// ${var,,pat}: convert case on characters matching pat (default "?",
// i.e. any character), either just the first one or every one.
func (e *Engine) applyCaseConvert(base, patSrc string, all, upper bool) (string, error) {
	pat, err := e.substitute(patSrc, true)
	if err != nil {
		return "", err
	}
	if pat == "" {
		pat = "?"
	}
	runes := []rune(base)
	for i, r := range runes {
		if !all && i > 0 {
			break
		}
		if !globMatch(string(r), pat) {
			continue
		}
		if upper {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes), nil
}

func (e *Engine) applySubstring(base, rest string) (string, error) {
	colon := strings.IndexByte(rest, ':')
	offExpr := rest
	lenExpr := ""
	hasLen := false
	if colon >= 0 {
		offExpr = rest[:colon]
		lenExpr = rest[colon+1:]
		hasLen = true
	}
	offV, err := arith.Eval(strings.TrimSpace(offExpr), e.Store)
	if err != nil {
		return "", err
	}
	off := int(offV)
	if off < 0 {
		off += len(base)
		if off < 0 {
			off = 0
		}
	}
	if off > len(base) {
		off = len(base)
	}
	if !hasLen {
		return base[off:], nil
	}
	lenV, err := arith.Eval(strings.TrimSpace(lenExpr), e.Store)
	if err != nil {
		return "", err
	}
	n := int(lenV)
	end := off + n
	if n < 0 {
		end = len(base) + n
	}
	if end > len(base) {
		end = len(base)
	}
	if end < off {
		return "", nil
	}
	return base[off:end], nil
}

// trimShortestPrefix / trimLongestPrefix / trimShortestSuffix /
// trimLongestSuffix implement ${var#pat}/${var##pat}/${var%pat}/
// ${var%%pat} using path.Match-backed glob pattern matching over every
// candidate split point.
func trimShortestPrefix(s, pat string) string {
	for i := 0; i <= len(s); i++ {
		if globMatch(s[:i], pat) {
			return s[i:]
		}
	}
	return s
}

func trimLongestPrefix(s, pat string) string {
	for i := len(s); i >= 0; i-- {
		if globMatch(s[:i], pat) {
			return s[i:]
		}
	}
	return s
}

func trimShortestSuffix(s, pat string) string {
	for i := len(s); i >= 0; i-- {
		if globMatch(s[i:], pat) {
			return s[:i]
		}
	}
	return s
}

func trimLongestSuffix(s, pat string) string {
	for i := 0; i <= len(s); i++ {
		if globMatch(s[i:], pat) {
			return s[:i]
		}
	}
	return s
}

func globMatch(s, pat string) bool {
	ok, err := path.Match(pat, s)
	return err == nil && ok
}

func globMatchPrefix(s, pat string) (bool, int) {
	for i := len(s); i >= 0; i-- {
		if globMatch(s[:i], pat) {
			return true, i
		}
	}
	return false, 0
}

func globMatchSuffix(s, pat string) (bool, int) {
	for i := 0; i <= len(s); i++ {
		if globMatch(s[len(s)-i:], pat) {
			return true, i
		}
	}
	return false, 0
}

// globReplace replaces glob-pattern matches of pat in s with rep,
// either the first occurrence or, when all is true, every occurrence.
func globReplace(s, pat, rep string, all bool) string {
	if pat == "" {
		return s
	}
	var out strings.Builder
	i := 0
	replacedOnce := false
	for i < len(s) {
		if !all && replacedOnce {
			out.WriteString(s[i:])
			break
		}
		matchedLen := -1
		for j := len(s); j >= i; j-- {
			if globMatch(s[i:j], pat) {
				matchedLen = j - i
				break
			}
		}
		if matchedLen >= 0 {
			out.WriteString(rep)
			if matchedLen == 0 {
				if i < len(s) {
					out.WriteByte(s[i])
				}
				i++
			} else {
				i += matchedLen
			}
			replacedOnce = true
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}
