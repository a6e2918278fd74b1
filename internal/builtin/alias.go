package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/den-shell/den/internal/exec"
)

func (s *Set) registerAlias() {
	s.register("alias", bAlias)
	s.register("unalias", bUnalias)
}

// bAlias implements `alias [name[=value]...]`: with no arguments it
// lists every alias; a bare name looks one up; name=value defines it.
func bAlias(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if len(args) == 0 {
		printAliases(ex, io)
		return 0, nil
	}
	status := 0
	for _, arg := range args {
		name, val, hasVal := strings.Cut(arg, "=")
		if hasVal {
			ex.Store.SetAlias(name, val)
			continue
		}
		val, ok := ex.Store.Alias(name)
		if !ok {
			fmt.Fprintf(io.Stderr, "den: alias: %s: not found\n", name)
			status = 1
			continue
		}
		fmt.Fprintf(io.Stdout, "alias %s='%s'\n", name, val)
	}
	return status, nil
}

func printAliases(ex *exec.Executor, io exec.IOSet) {
	all := ex.Store.Aliases()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(io.Stdout, "alias %s='%s'\n", name, all[name])
	}
}

// bUnalias implements `unalias [-a] name...`.
func bUnalias(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	for _, arg := range args {
		if arg == "-a" {
			for name := range ex.Store.Aliases() {
				ex.Store.UnsetAlias(name)
			}
			continue
		}
		ex.Store.UnsetAlias(arg)
	}
	return 0, nil
}
