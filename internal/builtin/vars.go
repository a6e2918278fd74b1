package builtin

import (
	"fmt"
	"strings"

	"github.com/den-shell/den/internal/arith"
	"github.com/den-shell/den/internal/exec"
	"github.com/den-shell/den/internal/state"
)

func (s *Set) registerVars() {
	s.register("declare", bDeclare)
	s.register("typeset", bDeclare)
	s.register("readonly", bReadonly)
	s.register("export", bExport)
	s.register("local", bLocal)
	s.register("unset", bUnset)
	s.register("let", bLet)
	s.register("set", bSet)
	s.register("shopt", bShopt)
}

// declareFlags maps declare/typeset's single-letter attribute flags to
// the Attr bits they set.
var declareFlags = map[byte]state.Attr{
	'x': state.AttrExport,
	'r': state.AttrReadOnly,
	'i': state.AttrInteger,
	'a': state.AttrArray,
	'A': state.AttrAssoc,
	'n': state.AttrNameref,
}

func bDeclare(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	var add state.Attr
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") && args[i] != "-" {
		for _, c := range args[i][1:] {
			if bit, ok := declareFlags[byte(c)]; ok {
				add |= bit
			}
		}
		i++
	}
	if i >= len(args) {
		return printDeclared(ex, io), nil
	}
	for _, arg := range args[i:] {
		name, val, hasVal := strings.Cut(arg, "=")
		if add != 0 {
			if err := ex.Store.Declare(name, add); err != nil {
				fmt.Fprintf(io.Stderr, "den: declare: %v\n", err)
				return 1, nil
			}
		}
		if hasVal {
			if add&state.AttrInteger != 0 {
				n, err := arith.Eval(val, ex.Store)
				if err != nil {
					fmt.Fprintf(io.Stderr, "den: declare: %v\n", err)
					return 1, nil
				}
				ex.Store.SetInt(name, n)
				continue
			}
			if err := ex.Store.Set(name, val); err != nil {
				fmt.Fprintf(io.Stderr, "den: declare: %v\n", err)
				return 1, nil
			}
		} else if add == 0 {
			ex.Store.Declare(name, 0)
		}
	}
	return 0, nil
}

func printDeclared(ex *exec.Executor, io exec.IOSet) int {
	for _, name := range ex.Store.VarNames() {
		val, _ := ex.Store.Get(name)
		fmt.Fprintf(io.Stdout, "%s=%s\n", name, val)
	}
	return 0
}

// bReadonly implements `readonly NAME[=value]...`.
func bReadonly(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	for _, arg := range args {
		name, val, hasVal := strings.Cut(arg, "=")
		if hasVal {
			if err := ex.Store.Set(name, val); err != nil {
				fmt.Fprintf(io.Stderr, "den: readonly: %v\n", err)
				return 1, nil
			}
		}
		ex.Store.Declare(name, state.AttrReadOnly)
	}
	return 0, nil
}

// bExport implements `export NAME[=value]...`.
func bExport(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	for _, arg := range args {
		if arg == "-p" {
			for _, name := range ex.Store.VarNames() {
				if ex.Store.GetAttrs(name)&state.AttrExport != 0 {
					val, _ := ex.Store.Get(name)
					fmt.Fprintf(io.Stdout, "declare -x %s=%q\n", name, val)
				}
			}
			continue
		}
		name, val, hasVal := strings.Cut(arg, "=")
		if hasVal {
			if err := ex.Store.Set(name, val); err != nil {
				fmt.Fprintf(io.Stderr, "den: export: %v\n", err)
				return 1, nil
			}
		}
		ex.Store.Declare(name, state.AttrExport)
	}
	return 0, nil
}

// bLocal implements `local NAME[=value]...`, valid only inside a
// function body (Store.DeclareLocal degrades gracefully outside one).
func bLocal(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	for _, arg := range args {
		name, val, hasVal := strings.Cut(arg, "=")
		if !hasVal {
			val = ""
		}
		ex.Store.DeclareLocal(name, val)
	}
	return 0, nil
}

// bUnset implements `unset [-v|-f] NAME...`.
func bUnset(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	functions := false
	for _, arg := range args {
		switch arg {
		case "-f":
			functions = true
			continue
		case "-v":
			functions = false
			continue
		}
		if functions {
			ex.Store.UnsetFunction(arg)
			continue
		}
		if err := ex.Store.Unset(arg); err != nil {
			fmt.Fprintf(io.Stderr, "den: unset: %v\n", err)
			return 1, nil
		}
	}
	return 0, nil
}

// bLet implements `let expr...`, evaluating each argument as an
// arithmetic expression and returning the bash-inverted truth value of
// the last one (0 exit status means the expression was nonzero).
func bLet(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if len(args) == 0 {
		return usageError(io, "let expression")
	}
	var last int64
	for _, expr := range args {
		v, err := arith.Eval(expr, ex.Store)
		if err != nil {
			fmt.Fprintf(io.Stderr, "den: let: %v\n", err)
			return 1, nil
		}
		last = v
	}
	if last == 0 {
		return 1, nil
	}
	return 0, nil
}

// bSet implements the options den actually exposes: `set -o name`/
// `set +o name` toggle a named option, and bare `set --` followed by
// words replaces the positional parameters.
func bSet(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	i := 0
	for i < len(args) {
		switch {
		case args[i] == "-o" && i+1 < len(args):
			ex.Store.SetOption(args[i+1], true)
			i += 2
		case args[i] == "+o" && i+1 < len(args):
			ex.Store.SetOption(args[i+1], false)
			i += 2
		case args[i] == "--":
			ex.Store.SetFrameArgs(append([]string{}, args[i+1:]...))
			return 0, nil
		case strings.HasPrefix(args[i], "-") && len(args[i]) > 1:
			for _, c := range args[i][1:] {
				applyShortSetFlag(ex, c, true)
			}
			i++
		case strings.HasPrefix(args[i], "+") && len(args[i]) > 1:
			for _, c := range args[i][1:] {
				applyShortSetFlag(ex, c, false)
			}
			i++
		default:
			ex.Store.SetFrameArgs(append([]string{}, args[i:]...))
			return 0, nil
		}
	}
	return 0, nil
}

var shortSetFlags = map[byte]string{
	'e': "errexit",
	'u': "nounset",
	'x': "xtrace",
	'f': "noglob",
	'n': "noexec",
}

func applyShortSetFlag(ex *exec.Executor, c byte, on bool) {
	if name, ok := shortSetFlags[c]; ok {
		ex.Store.SetOption(name, on)
	}
}

// bShopt implements `shopt -s name`/`shopt -u name`/bare `shopt name`
// (report) the way bash's shopt does, limited to the boolean-flag
// option table den's Store already tracks.
func bShopt(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	mode := "" // "s" set, "u" unset, "" query
	var names []string
	for _, a := range args {
		switch a {
		case "-s":
			mode = "s"
		case "-u":
			mode = "u"
		case "-p":
			mode = ""
		default:
			names = append(names, a)
		}
	}
	if mode == "" && len(names) == 0 {
		for name, on := range ex.Store.Options() {
			fmt.Fprintf(io.Stdout, "%s\t%v\n", name, on)
		}
		return 0, nil
	}
	for _, name := range names {
		switch mode {
		case "s":
			ex.Store.SetOption(name, true)
		case "u":
			ex.Store.SetOption(name, false)
		default:
			on := ex.Store.Option(name)
			fmt.Fprintf(io.Stdout, "%s\t%v\n", name, on)
			if !on {
				return 1, nil
			}
		}
	}
	return 0, nil
}
