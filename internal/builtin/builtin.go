// Package builtin implements den's builtin command library (component
// G): the ~60 builtins a POSIX-ish interactive shell needs, dispatched
// by name from internal/exec. Grounded on spec.md §4.G/§6 and modeled
// structurally on mvdan.cc/sh/v3/interp's builtin.go dispatch switch
// (one name-keyed case per builtin, a shared usage-error helper), but
// reworked as a name -> func table so each family can live in its own
// file the way the teacher splits concerns into small adapter files.
package builtin

import (
	"fmt"

	"github.com/den-shell/den/internal/exec"
)

// Func is one builtin's implementation. args excludes the builtin's
// own name; io is the already-redirection-scoped IOSet for this
// invocation.
type Func func(ex *exec.Executor, args []string, io exec.IOSet) (int, error)

// Set is the registered builtin table; it implements both
// dispatch.BuiltinSet (IsBuiltin) and exec.BuiltinRunner (RunBuiltin).
type Set struct {
	table map[string]Func
}

// New builds the full builtin table.
func New() *Set {
	s := &Set{table: make(map[string]Func)}
	s.registerControlFlow()
	s.registerEcho()
	s.registerVars()
	s.registerTest()
	s.registerRead()
	s.registerDirs()
	s.registerSource()
	s.registerTrap()
	s.registerJobs()
	s.registerAlias()
	s.registerMisc()
	return s
}

func (s *Set) register(name string, f Func) {
	s.table[name] = f
}

// IsBuiltin implements dispatch.BuiltinSet.
func (s *Set) IsBuiltin(name string) bool {
	_, ok := s.table[name]
	return ok
}

// RunBuiltin implements exec.BuiltinRunner.
func (s *Set) RunBuiltin(ex *exec.Executor, name string, args []string, io exec.IOSet) (int, error) {
	f, ok := s.table[name]
	if !ok {
		fmt.Fprintf(io.Stderr, "den: %s: not a builtin\n", name)
		return 127, nil
	}
	return f(ex, args, io)
}

// usageError writes a standard "usage: ..." message to stderr and
// returns the bash-compatible exit code for a builtin invoked wrong.
func usageError(io exec.IOSet, usage string) (int, error) {
	fmt.Fprintf(io.Stderr, "den: usage: %s\n", usage)
	return 2, nil
}
