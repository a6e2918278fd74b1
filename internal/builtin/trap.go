package builtin

import (
	"fmt"
	"strings"

	"github.com/den-shell/den/internal/exec"
)

func (s *Set) registerTrap() {
	s.register("trap", bTrap)
}

// bTrap implements `trap [-p] [command signal...]` and `trap -- sig`
// (clear). With no arguments it lists registered traps, same as `-p`.
func bTrap(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	i := 0
	for i < len(args) && args[i] == "-p" {
		i++
	}
	if i >= len(args) {
		for sig, cmd := range ex.Store.Traps() {
			fmt.Fprintf(io.Stdout, "trap -- %q %s\n", cmd, sig)
		}
		return 0, nil
	}

	// `trap -- SIG...` or bare `trap SIG...` with a leading '-' clears.
	if args[i] == "-" || args[i] == "--" {
		i++
		for ; i < len(args); i++ {
			ex.Store.SetTrap(normalizeSignal(args[i]), "")
		}
		return 0, nil
	}

	command := args[i]
	i++
	if i >= len(args) {
		return usageError(io, "trap [command] signal...")
	}
	for ; i < len(args); i++ {
		ex.Store.SetTrap(normalizeSignal(args[i]), command)
	}
	return 0, nil
}

// normalizeSignal uppercases and strips a leading SIG prefix, so
// `trap ... INT` and `trap ... SIGINT` register the same key the
// executor's ERR-trap lookup and internal/signalctl both expect.
func normalizeSignal(s string) string {
	s = strings.ToUpper(s)
	return strings.TrimPrefix(s, "SIG")
}
