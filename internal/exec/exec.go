// Package exec implements the Executor (component H): it walks a
// parsed CommandChain, running pipelines, applying redirections,
// recursing into compound commands, and honoring break/continue/
// return/trap control flow. It is the one package that actually spawns
// OS processes, so internal/expand's command substitution and
// internal/builtin's `command`/`eval`/`source` all depend on the
// narrow interfaces it exposes rather than importing each other.
package exec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/den-shell/den/internal/ast"
	"github.com/den-shell/den/internal/dispatch"
	"github.com/den-shell/den/internal/expand"
	"github.com/den-shell/den/internal/job"
	"github.com/den-shell/den/internal/parse"
	"github.com/den-shell/den/internal/state"
)

// BuiltinRunner is what internal/builtin supplies: it both tells the
// dispatcher which names are builtins and actually runs them. Keeping
// it here (rather than on dispatch.BuiltinSet) is what lets builtin
// import exec for eval/command/source without exec importing builtin.
type BuiltinRunner interface {
	dispatch.BuiltinSet
	RunBuiltin(ex *Executor, name string, args []string, io IOSet) (int, error)
}

// IOSet is the stdio triple (plus any opened high-numbered fds) a
// command runs with. Redirections produce a child IOSet derived from
// the parent's; nothing is ever mutated process-wide, so concurrent
// pipeline stages each get their own independent set.
type IOSet struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Extra holds fds >= 3 opened by a redirection (`3>file`, `4<&0`),
	// passed to external commands via exec.Cmd.ExtraFiles. Builtins
	// that need fds beyond 0-2 are out of scope; den has none that do.
	Extra map[int]*os.File
}

// StdIO returns the IOSet wrapping the process's own standard streams.
func StdIO() IOSet {
	return IOSet{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Executor walks and runs a CommandChain against a shared Store. A
// single Executor value is reused for the whole shell session; nested
// evaluation (subshells, command substitution, function bodies) calls
// back into the same Executor with different IOSet/scoping arguments
// rather than constructing a new one, so traps, the job table, and the
// fast-path tokenizer state stay consistent.
type Executor struct {
	Store    *state.Store
	Expand   *expand.Engine
	Resolver *dispatch.Resolver
	Builtins BuiltinRunner
	Jobs     *job.Manager

	// Confirm, if set, is asked before running an external command the
	// safety validator flagged as dangerous in blacklist mode; returning
	// false aborts the command. A nil Confirm (the default, and always
	// the case for non-interactive -c/-s/script execution) means
	// dangerous commands run without a prompt, matching how bash itself
	// only ever asks a human at an interactive terminal.
	Confirm func(commandLine, reason string) bool

	// ForegroundSpawn, if set, is invoked the moment a foreground
	// pipeline's external stage starts, mirroring runBackgroundPipeline's
	// own onSpawn hook for the job table. internal/shell uses this to
	// learn the running process group so a caught SIGINT can be
	// forwarded to it (SIGINT delivered to the den process itself does
	// not reach a child in its own process group by default).
	ForegroundSpawn func(proc *os.Process)

	// inErrTrap prevents an ERR trap body whose own failure would
	// otherwise recursively re-invoke itself.
	inErrTrap bool
	// loopDepth tracks nested For/While/Until/CStyleFor/Select frames.
	// It is not consulted when break/continue unwind, so a count beyond
	// the nesting level is not clamped.
	loopDepth int
}

// New builds an Executor. Resolver and Builtins are wired after
// construction, since the Resolver needs the BuiltinRunner and the
// BuiltinRunner is built independently of the Executor — callers
// typically do:
//
//	ex := exec.New(store, eng, jobs)
//	builtins := builtin.New()
//	ex.Builtins = builtins
//	ex.Resolver = dispatch.NewResolver(store, builtins, validator)
func New(store *state.Store, eng *expand.Engine, jobs *job.Manager) *Executor {
	return &Executor{Store: store, Expand: eng, Jobs: jobs}
}

// RunCaptured implements expand.CommandRunner: it parses src as a full
// command chain and runs it with stdout captured in memory, the way
// "$(...)" and legacy backtick substitution both need. Grounded on the
// same capture-and-inspect-exit-code shape the teacher's bash tool
// adapter uses around os/exec, adapted here to run through the
// Executor instead of shelling out to a literal bash binary.
func (ex *Executor) RunCaptured(src string) (string, int, error) {
	chain, err := parse.Parse([]byte(src))
	if err != nil {
		return "", 2, fmt.Errorf("command substitution: %w", err)
	}
	var buf bytes.Buffer
	io := IOSet{Stdin: strings.NewReader(""), Stdout: &buf, Stderr: os.Stderr}
	saved := ex.Store.LastExitCode()
	code, err := ex.Run(chain, io)
	ex.Store.SetLastExitCode(saved)
	return buf.String(), code, err
}

// Run executes a full chain top to bottom, honoring AndIf/OrIf/
// Semicolon, and returns the exit code of the last command actually
// run (spec §4.H step 1).
func (ex *Executor) Run(chain *ast.CommandChain, io IOSet) (int, error) {
	pipelines := chain.Pipelines()
	last := 0
	for i, pl := range pipelines {
		op := ast.OpNone
		if i > 0 {
			op = pipelines[i-1].FollowedBy
		}
		switch op {
		case ast.OpAndIf:
			if last != 0 {
				continue
			}
		case ast.OpOrIf:
			if last == 0 {
				continue
			}
		}

		code, err := ex.runPipeline(pl, io)
		if err != nil {
			if isControlFlow(err) {
				return code, err
			}
		}
		last = code
		ex.Store.SetLastExitCode(last)

		if err := ex.maybeRunErrTrap(last, io); err != nil {
			return last, err
		}
		if last != 0 && ex.Store.Option("errexit") {
			return last, nil
		}
	}
	return last, nil
}

// maybeRunErrTrap implements spec §4.H step 7.
func (ex *Executor) maybeRunErrTrap(code int, io IOSet) error {
	if code == 0 || ex.inErrTrap || !ex.Store.Option("errtrace") {
		return nil
	}
	body, ok := ex.Store.Trap("ERR")
	if !ok || body == "" {
		return nil
	}
	chain, err := parse.Parse([]byte(body))
	if err != nil {
		return nil
	}
	ex.inErrTrap = true
	saved := ex.Store.LastExitCode()
	_, runErr := ex.Run(chain, io)
	ex.Store.SetLastExitCode(saved)
	ex.inErrTrap = false
	return runErr
}
