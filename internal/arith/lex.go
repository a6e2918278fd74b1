package arith

import (
	"strconv"
	"strings"
)

type atokKind int

const (
	atokNum atokKind = iota
	atokIdent
	atokOp
	atokEOF
)

type atok struct {
	kind atokKind
	raw  string
	num  int64
}

// operators ordered longest-first for greedy matching.
var arithOps = []string{
	"<<=", ">>=",
	"**", "==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=",
	"+", "-", "*", "/", "%", "<", ">", "=", "&", "|", "^", "!", "~",
	"(", ")", "?", ":", ",",
}

func lexArith(s string) ([]atok, error) {
	var toks []atok
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '$':
			// Allow "$name" and "${name}" references inside arithmetic;
			// the braces are stripped, the dollar is purely cosmetic.
			i++
			if i < n && s[i] == '{' {
				i++
				start := i
				for i < n && s[i] != '}' {
					i++
				}
				toks = append(toks, atok{kind: atokIdent, raw: s[start:i]})
				if i < n {
					i++
				}
			} else {
				start := i
				for i < n && isIdentByte(s[i], i == start) {
					i++
				}
				toks = append(toks, atok{kind: atokIdent, raw: s[start:i]})
			}
		case isDigit(c):
			start := i
			for i < n && isNumByte(s[i]) {
				i++
			}
			raw := s[start:i]
			val, err := parseIntLiteral(raw)
			if err != nil {
				return nil, err
			}
			toks = append(toks, atok{kind: atokNum, raw: raw, num: val})
		case isIdentByte(c, true):
			start := i
			for i < n && isIdentByte(s[i], false) {
				i++
			}
			toks = append(toks, atok{kind: atokIdent, raw: s[start:i]})
		default:
			matched := ""
			for _, op := range arithOps {
				if strings.HasPrefix(s[i:], op) && len(op) > len(matched) {
					matched = op
				}
			}
			if matched == "" {
				return nil, &Error{Msg: "unexpected character " + string(c)}
			}
			toks = append(toks, atok{kind: atokOp, raw: matched})
			i += len(matched)
		}
	}
	toks = append(toks, atok{kind: atokEOF})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentByte(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	if !first && c >= '0' && c <= '9' {
		return true
	}
	return false
}

// isNumByte accepts digits, the base-separator '#', and hex letters so
// a single scan picks up decimal, 0xHEX, 0NNN (legacy octal), and
// base#digits forms without knowing the base in advance.
func isNumByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c == '#':
		return true
	}
	return false
}

// parseIntLiteral parses one of: 0xHEX, 0NNN (octal), BASE#DIGITS, or
// plain decimal, matching bash's `$(( ))` literal syntax. BASE#DIGITS
// is parsed with strconv, so only bases 2-36 yield a value; a base from
// 37 to 64 passes the range check but its digits are always rejected.
func parseIntLiteral(raw string) (int64, error) {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		base, err := strconv.Atoi(raw[:i])
		if err != nil || base < 2 || base > 64 {
			return 0, &Error{Msg: "invalid base in literal " + raw}
		}
		v, err := strconv.ParseInt(raw[i+1:], base, 64)
		if err != nil {
			return 0, &Error{Msg: "invalid digits in literal " + raw}
		}
		return v, nil
	}
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		v, err := strconv.ParseInt(raw[2:], 16, 64)
		if err != nil {
			return 0, &Error{Msg: "invalid hex literal " + raw}
		}
		return v, nil
	}
	if len(raw) > 1 && raw[0] == '0' {
		v, err := strconv.ParseInt(raw[1:], 8, 64)
		if err != nil {
			return 0, &Error{Msg: "invalid octal literal " + raw}
		}
		return v, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &Error{Msg: "invalid literal " + raw}
	}
	return v, nil
}
