package builtin

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/den-shell/den/internal/exec"
)

func setUmask(mode int) int {
	return syscall.Umask(mode)
}

func (s *Set) registerMisc() {
	s.register("umask", bUmask)
	s.register("getopts", bGetopts)
	s.register("complete", bComplete)
	s.register("compgen", bCompgen)
	s.register("hash", bHash)
	s.register("times", bTimes)
}

// bTimes implements the special builtin `times`: den doesn't track
// per-process CPU accounting the way a real kernel-backed shell does,
// so it reports zeroes in the expected two-line format rather than
// omitting the builtin entirely (some scripts probe for its presence).
func bTimes(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	fmt.Fprintln(io.Stdout, "0m0.000s 0m0.000s")
	fmt.Fprintln(io.Stdout, "0m0.000s 0m0.000s")
	return 0, nil
}

// bUmask reports (bare `umask`) or sets (`umask MODE`) the process
// umask; den has no per-shell umask distinct from the OS process's own,
// so this is a thin wrapper over syscall.Umask.
func bUmask(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if len(args) == 0 {
		old := setUmask(0)
		setUmask(old)
		fmt.Fprintf(io.Stdout, "%04o\n", old)
		return 0, nil
	}
	mode, err := strconv.ParseInt(args[0], 8, 32)
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: umask: %s: invalid mode\n", args[0])
		return 1, nil
	}
	setUmask(int(mode))
	return 0, nil
}

// bGetopts implements a practical subset of `getopts optstring name`:
// it walks the active frame's positional parameters using OPTIND (1-
// based, persisted in the Store like bash) and sets `name` to the next
// option letter (or "?" on an unrecognized one and at the end), along
// with OPTARG for options that take a value (a letter followed by ':'
// in optstring).
func bGetopts(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if len(args) < 2 {
		return usageError(io, "getopts optstring name")
	}
	optstring, name := args[0], args[1]
	params := ex.Store.FrameArgs()

	optindStr, _ := ex.Store.Get("OPTIND")
	optind, _ := strconv.Atoi(optindStr)
	if optind < 1 {
		optind = 1
	}

	if optind-1 >= len(params) {
		ex.Store.Set(name, "?")
		return 1, nil
	}
	arg := params[optind-1]
	if len(arg) < 2 || arg[0] != '-' {
		ex.Store.Set(name, "?")
		return 1, nil
	}
	opt := arg[1]
	idx := strings.IndexByte(optstring, opt)
	if idx < 0 {
		ex.Store.Set(name, "?")
		ex.Store.Set("OPTIND", strconv.Itoa(optind+1))
		return 0, nil
	}
	ex.Store.Set(name, string(opt))
	if idx+1 < len(optstring) && optstring[idx+1] == ':' {
		if len(arg) > 2 {
			ex.Store.Set("OPTARG", arg[2:])
			optind++
		} else if optind < len(params) {
			ex.Store.Set("OPTARG", params[optind])
			optind += 2
		} else {
			ex.Store.Set("OPTARG", "")
			optind++
		}
	} else {
		optind++
	}
	ex.Store.Set("OPTIND", strconv.Itoa(optind))
	return 0, nil
}

// bComplete/bCompgen are deliberately minimal: den has no line-editing
// widget to drive with completion state the way an interactive
// readline-backed shell would (that lives in internal/shellio, and
// completion wiring is future work noted in DESIGN.md), so these just
// accept and ignore registration/generation requests without erroring
// a script that defines them defensively.
func bComplete(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	return 0, nil
}

func bCompgen(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	return 0, nil
}

// bHash implements `hash [-r] [name...]`: den's PATH cache already
// lives on the Store (internal/state's pathCache), so this just
// exposes clearing/forgetting it.
func bHash(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if len(args) == 0 {
		for name, path := range ex.Store.PathCacheSnapshot() {
			fmt.Fprintf(io.Stdout, "%s=%s\n", name, path)
		}
		return 0, nil
	}
	for _, a := range args {
		if a == "-r" {
			ex.Store.ClearPathCache()
			continue
		}
		ex.Store.ForgetPath(a)
	}
	return 0, nil
}
