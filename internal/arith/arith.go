// Package arith implements den's arithmetic evaluator (component D):
// bash-compatible 64-bit two's-complement integer arithmetic with C
// operator precedence, ternary, assignment, and pre/post increment.
package arith

import (
	"fmt"
)

// Vars is the variable store the evaluator reads and writes through.
// internal/state's Store implements this for the shell's real
// environment; tests use MapVars.
type Vars interface {
	GetInt(name string) (int64, error)
	SetInt(name string, val int64) error
}

// MapVars is a trivial in-memory Vars used by tests.
type MapVars map[string]int64

func (m MapVars) GetInt(name string) (int64, error) { return m[name], nil }
func (m MapVars) SetInt(name string, val int64) error {
	m[name] = val
	return nil
}

// Error reports an arithmetic evaluation failure (syntax error or
// division/modulo by zero); den maps it to exit status 1.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "arith: " + e.Msg }

// Eval evaluates a bash-style arithmetic expression (the contents of
// `$(( ... ))`, `((...))`, or `let`'s operands) against vars.
func Eval(expr string, vars Vars) (int64, error) {
	toks, err := lexArith(expr)
	if err != nil {
		return 0, err
	}
	p := &parser{toks: toks, vars: vars}
	v, err := p.parseComma(true)
	if err != nil {
		return 0, err
	}
	if p.cur().kind != atokEOF {
		return 0, &Error{Msg: fmt.Sprintf("unexpected token %q", p.cur().raw)}
	}
	return v, nil
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
