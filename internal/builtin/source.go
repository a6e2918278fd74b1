package builtin

import (
	"fmt"
	"os"
	"strings"

	"github.com/den-shell/den/internal/exec"
	"github.com/den-shell/den/internal/parse"
)

func (s *Set) registerSource() {
	s.register("source", bSource)
	s.register(".", bSource)
	s.register("eval", bEval)
	s.register("command", bCommand)
	s.register("builtin", bBuiltin)
	s.register("exec", bExecBuiltin)
	s.register("type", bType)
}

// bSource implements `source file [args...]`/`. file [args...]`: the
// file's contents run in the current shell (not a subshell), so any
// variable, function, alias, or directory change it makes persists in
// the caller, exactly like compound.go's Group handling.
func bSource(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if len(args) == 0 {
		return usageError(io, "source filename [arguments]")
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: source: %s: %v\n", path, err)
		return 1, nil
	}
	chain, perr := parse.Parse(data)
	if perr != nil {
		fmt.Fprintf(io.Stderr, "den: source: %s: %v\n", path, perr)
		return 2, nil
	}

	if len(args) > 1 {
		if err := ex.Store.PushSourceArgs(args[1:]); err != nil {
			fmt.Fprintf(io.Stderr, "den: source: %v\n", err)
			return 1, nil
		}
		defer ex.Store.PopSourceArgs()
	}
	prevScript := ex.Store.ScriptName()
	ex.Store.SetScriptName(path)
	defer ex.Store.SetScriptName(prevScript)

	code, runErr := ex.Run(chain, io)
	if runErr != nil {
		// A `return` inside a sourced file ends the file, not the shell.
		if retCode, ok := exec.IsReturn(runErr); ok {
			return retCode, nil
		}
		return code, runErr
	}
	return code, nil
}

// bEval implements `eval arg...`: the arguments are joined back into
// one command string and re-parsed/run in the current scope.
func bEval(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	src := strings.Join(args, " ")
	if strings.TrimSpace(src) == "" {
		return 0, nil
	}
	chain, err := parse.Parse([]byte(src))
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: eval: %v\n", err)
		return 2, nil
	}
	return ex.Run(chain, io)
}

// bCommand implements `command [-pVv] name [args...]`: it bypasses
// function lookup so a function can call a builtin or external program
// of the same name (the idiomatic self-overriding wrapper pattern).
func bCommand(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		args = args[1:]
	}
	if len(args) == 0 {
		return usageError(io, "command [-pVv] name [arg...]")
	}
	return ex.RunNonFunction(args[0], args[1:], io)
}

// bBuiltin implements `builtin name [args...]`: runs name only if it
// is a builtin, never a function or external program.
func bBuiltin(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if len(args) == 0 {
		return usageError(io, "builtin name [arg...]")
	}
	name := args[0]
	if !ex.Builtins.IsBuiltin(name) {
		fmt.Fprintf(io.Stderr, "den: builtin: %s: not a shell builtin\n", name)
		return 1, nil
	}
	return ex.Builtins.RunBuiltin(ex, name, args[1:], io)
}

// bExecBuiltin implements `exec cmd [args...]`: unlike bash's true
// exec (which replaces the shell process image), den runs the command
// in place and then ends the current shell with its exit code, which
// is observably equivalent for a script/subshell and is the
// conservative, signal-safe choice for an embedded interpreter.
func bExecBuiltin(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	code, err := ex.RunNonFunction(args[0], args[1:], io)
	if err != nil {
		return code, err
	}
	return code, exec.NewExit(code)
}

// bType implements `type name...`, reporting whether each name is a
// function, builtin, or external program. Reserved words are not
// reported as keywords; a name that is none of the three is "not found".
func bType(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	status := 0
	for _, name := range args {
		if _, ok := ex.Store.Function(name); ok {
			fmt.Fprintf(io.Stdout, "%s is a function\n", name)
			continue
		}
		if ex.Builtins != nil && ex.Builtins.IsBuiltin(name) {
			fmt.Fprintf(io.Stdout, "%s is a shell builtin\n", name)
			continue
		}
		if path, ok := ex.LookupExternal(name); ok {
			fmt.Fprintf(io.Stdout, "%s is %s\n", name, path)
			continue
		}
		fmt.Fprintf(io.Stderr, "den: type: %s: not found\n", name)
		status = 1
	}
	return status, nil
}
