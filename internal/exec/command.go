package exec

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/dispatch"
)

// runCommandInPipeline is the entry point every pipeline stage calls:
// it applies the command's own redirections over the stage's IOSet and
// dispatches to a compound, function, builtin, or external
// implementation. A leading "!" is applied once to the whole pipeline's
// code by runPipeline, not here. onSpawn (nil outside the background path)
// is forwarded to runExternal so the caller can register the process
// with the Job Manager the instant it starts.
func (ex *Executor) runCommandInPipeline(cmd *ast.ParsedCommand, io IOSet, onSpawn func(*os.Process)) (int, error) {
	scoped, cleanup, err := ex.applyRedirections(cmd.Redirs, io)
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: %v\n", err)
		return 1, nil
	}
	defer cleanup()

	code, err := ex.dispatchCommand(cmd, scoped, onSpawn)
	if err != nil && isControlFlow(err) {
		return code, err
	}
	return code, err
}

func (ex *Executor) dispatchCommand(cmd *ast.ParsedCommand, io IOSet, onSpawn func(*os.Process)) (int, error) {
	if cmd.Kind == ast.KindCompound {
		return ex.runCompound(cmd.Compound, io)
	}
	return ex.runSimple(cmd, io, onSpawn)
}

// assignment is one NAME=value prefix word on a simple command.
type assignment struct {
	name  string
	value ast.Word
}

func (ex *Executor) runSimple(cmd *ast.ParsedCommand, io IOSet, onSpawn func(*os.Process)) (int, error) {
	words := make([]ast.Word, 0, len(cmd.Args)+1)
	if cmd.Name.Raw != "" || len(cmd.Name.Segments) > 0 {
		words = append(words, cmd.Name)
	}
	words = append(words, cmd.Args...)

	var assigns []assignment
	i := 0
	for i < len(words) {
		name, val, ok := splitAssignment(words[i])
		if !ok {
			break
		}
		assigns = append(assigns, assignment{name: name, value: val})
		i++
	}

	if i >= len(words) {
		// Bare assignment list: applies to the current shell scope.
		for _, a := range assigns {
			val, err := ex.Expand.ExpandWordNoSplit(a.value)
			if err != nil {
				fmt.Fprintf(io.Stderr, "den: %v\n", err)
				return 1, nil
			}
			if err := ex.Store.Set(a.name, val); err != nil {
				fmt.Fprintf(io.Stderr, "den: %v\n", err)
				return 1, nil
			}
		}
		return 0, nil
	}

	nameFields, err := ex.Expand.ExpandWord(words[i])
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: %v\n", err)
		return 1, nil
	}
	if len(nameFields) == 0 {
		return 0, nil
	}
	name := nameFields[0]

	var args []string
	args = append(args, nameFields[1:]...)
	for _, w := range words[i+1:] {
		fields, err := ex.Expand.ExpandWord(w)
		if err != nil {
			fmt.Fprintf(io.Stderr, "den: %v\n", err)
			return 1, nil
		}
		args = append(args, fields...)
	}

	restore, err := ex.applyTempAssignments(assigns)
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: %v\n", err)
		return 1, nil
	}
	defer restore()

	commandLine := strings.Join(append([]string{name}, args...), " ")
	res, rerr := ex.Resolver.Resolve(name, commandLine)
	if rerr != nil {
		switch {
		case errors.Is(rerr, dispatch.ErrNotExecutable):
			fmt.Fprintf(io.Stderr, "den: %s: Permission denied\n", name)
			return 126, nil
		case errors.Is(rerr, dispatch.ErrBlocked):
			fmt.Fprintf(io.Stderr, "den: %s: restricted\n", name)
			return 1, nil
		case errors.Is(rerr, dispatch.ErrNotFound):
			fmt.Fprintf(io.Stderr, "den: %s: command not found\n", name)
			return 127, nil
		default:
			fmt.Fprintf(io.Stderr, "den: %v\n", rerr)
			return 1, nil
		}
	}

	if res.Validation.NeedsConfirm && ex.Confirm != nil {
		if !ex.Confirm(commandLine, res.Validation.Reason) {
			fmt.Fprintf(io.Stderr, "den: %s: aborted\n", name)
			return 1, nil
		}
	}

	switch res.Kind {
	case ast.KindFunction:
		return ex.runFunction(name, args, io)
	case ast.KindBuiltin:
		if ex.Builtins == nil {
			fmt.Fprintf(io.Stderr, "den: %s: command not found\n", name)
			return 127, nil
		}
		return ex.Builtins.RunBuiltin(ex, name, args, io)
	case ast.KindExternal:
		return ex.runExternal(res.Path, name, args, io, onSpawn)
	}
	return 0, nil
}

// splitAssignment checks whether w has the syntactic shape of a
// NAME=value assignment word: an unquoted identifier in its leading
// segment immediately followed by '='. The remainder (which may itself
// span further segments, e.g. NAME="$x") becomes the value word.
func splitAssignment(w ast.Word) (name string, value ast.Word, ok bool) {
	if len(w.Segments) == 0 || w.Segments[0].Kind != ast.SegUnquoted {
		return "", ast.Word{}, false
	}
	text := w.Segments[0].Text
	eq := strings.IndexByte(text, '=')
	if eq <= 0 {
		return "", ast.Word{}, false
	}
	candidate := text[:eq]
	if !isValidVarName(candidate) {
		return "", ast.Word{}, false
	}
	rest := text[eq+1:]
	value.Segments = append(value.Segments, ast.Segment{Kind: ast.SegUnquoted, Text: rest})
	value.Raw = rest
	value.Segments = append(value.Segments, w.Segments[1:]...)
	for _, s := range w.Segments[1:] {
		value.Raw += s.Text
	}
	return candidate, value, true
}

func isValidVarName(s string) bool {
	if s == "" {
		return false
	}
	for i, b := range []byte(s) {
		if b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') {
			continue
		}
		if i > 0 && b >= '0' && b <= '9' {
			continue
		}
		return false
	}
	return true
}

// applyTempAssignments sets each assignment in the current scope for
// the duration of one command (bash's "VAR=val cmd" prefix form),
// returning a restore func that undoes it afterward.
func (ex *Executor) applyTempAssignments(assigns []assignment) (func(), error) {
	if len(assigns) == 0 {
		return func() {}, nil
	}
	type saved struct {
		name    string
		existed bool
		value   string
	}
	var prior []saved
	for _, a := range assigns {
		val, err := ex.Expand.ExpandWordNoSplit(a.value)
		if err != nil {
			return func() {}, err
		}
		old, existed := ex.Store.Get(a.name)
		prior = append(prior, saved{name: a.name, existed: existed, value: old})
		if err := ex.Store.Set(a.name, val); err != nil {
			return func() {}, err
		}
	}
	return func() {
		for _, p := range prior {
			if p.existed {
				ex.Store.Set(p.name, p.value)
			} else {
				ex.Store.Unset(p.name)
			}
		}
	}, nil
}

func (ex *Executor) runFunction(name string, args []string, io IOSet) (int, error) {
	fn, ok := ex.Store.Function(name)
	if !ok {
		fmt.Fprintf(io.Stderr, "den: %s: function not found\n", name)
		return 127, nil
	}
	chain, ok := fn.Body.(*ast.CommandChain)
	if !ok || chain == nil {
		return 0, nil
	}
	if err := ex.Store.PushFrame(args); err != nil {
		fmt.Fprintf(io.Stderr, "den: %v\n", err)
		return 1, nil
	}
	defer ex.Store.PopFrame()

	code, err := ex.Run(chain, io)
	if err != nil {
		var ret *returnSignal
		if errors.As(err, &ret) {
			return ret.code, nil
		}
		if isControlFlow(err) {
			return code, nil
		}
		return code, err
	}
	return code, nil
}

// RunNonFunction resolves and runs name as a builtin or external
// program, explicitly skipping user-function lookup — the contract
// the `command` and `builtin` builtins need so a function can't shadow
// the real thing it wraps.
func (ex *Executor) RunNonFunction(name string, args []string, io IOSet) (int, error) {
	commandLine := strings.Join(append([]string{name}, args...), " ")
	res, err := ex.Resolver.ResolveNonFunction(name, commandLine)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrNotExecutable):
			fmt.Fprintf(io.Stderr, "den: %s: Permission denied\n", name)
			return 126, nil
		case errors.Is(err, dispatch.ErrBlocked):
			fmt.Fprintf(io.Stderr, "den: %s: restricted\n", name)
			return 1, nil
		case errors.Is(err, dispatch.ErrNotFound):
			fmt.Fprintf(io.Stderr, "den: %s: command not found\n", name)
			return 127, nil
		default:
			fmt.Fprintf(io.Stderr, "den: %v\n", err)
			return 1, nil
		}
	}
	switch res.Kind {
	case ast.KindBuiltin:
		if ex.Builtins == nil {
			fmt.Fprintf(io.Stderr, "den: %s: command not found\n", name)
			return 127, nil
		}
		return ex.Builtins.RunBuiltin(ex, name, args, io)
	case ast.KindExternal:
		return ex.runExternal(res.Path, name, args, io, nil)
	}
	return 0, nil
}

// LookupExternal resolves name to an absolute PATH entry without
// running it, used by the `type` builtin to report what a name would
// invoke.
func (ex *Executor) LookupExternal(name string) (string, bool) {
	path, err := dispatch.LookPath(ex.Store, name)
	if err != nil {
		return "", false
	}
	return path, true
}

// runExternal spawns a resolved external program, grounded on the
// same exec.CommandContext + exit-code-via-exec.ExitError pattern the
// bash-tool adapter uses, adapted to run with the shell's own IOSet
// and environment instead of capturing everything into buffers.
func (ex *Executor) runExternal(path, name string, args []string, io IOSet, onSpawn func(*os.Process)) (int, error) {
	cmd := exec.Command(path, args...)
	cmd.Args[0] = name
	cmd.Env = ex.Store.Environ()
	cmd.Stdin = io.Stdin
	cmd.Stdout = io.Stdout
	cmd.Stderr = io.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	for fd := 3; ; fd++ {
		f, ok := io.Extra[fd]
		if !ok {
			break
		}
		cmd.ExtraFiles = append(cmd.ExtraFiles, f)
	}

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(io.Stderr, "den: %s: %v\n", name, err)
		return 127, nil
	}
	if onSpawn != nil {
		onSpawn(cmd.Process)
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	fmt.Fprintf(io.Stderr, "den: %s: %v\n", name, err)
	return 1, nil
}
