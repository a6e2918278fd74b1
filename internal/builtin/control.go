package builtin

import (
	"fmt"
	"strconv"

	"github.com/den-shell/den/internal/exec"
)

func (s *Set) registerControlFlow() {
	s.register(":", bTrue)
	s.register("true", bTrue)
	s.register("false", bFalse)
	s.register("exit", bExit)
	s.register("break", bBreak)
	s.register("continue", bContinue)
	s.register("return", bReturn)
	s.register("shift", bShift)
}

func bTrue(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	return 0, nil
}

func bFalse(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	return 1, nil
}

// bExit implements `exit [n]`: with no argument it reuses $?, matching
// bash; a non-numeric argument is a usage error.
func bExit(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	code := ex.Store.LastExitCode()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(io.Stderr, "den: exit: %s: numeric argument required\n", args[0])
			return 2, exec.NewExit(2)
		}
		code = n & 0xff
	}
	return code, exec.NewExit(code)
}

// bBreak implements `break [n]`, n defaulting to 1 (break one loop).
func bBreak(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	n, err := levelArg(args)
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: break: %v\n", err)
		return 1, nil
	}
	return 0, exec.NewBreak(n)
}

// bContinue implements `continue [n]`, n defaulting to 1.
func bContinue(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	n, err := levelArg(args)
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: continue: %v\n", err)
		return 1, nil
	}
	return 0, exec.NewContinue(n)
}

func levelArg(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: numeric argument required and must be >= 1", args[0])
	}
	return n, nil
}

// bReturn implements `return [n]`: a function body uses this to unwind
// to the call site with n (or $? if omitted) as the function's status.
func bReturn(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	code := ex.Store.LastExitCode()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(io.Stderr, "den: return: %s: numeric argument required\n", args[0])
			return 2, nil
		}
		code = n & 0xff
	}
	return code, exec.NewReturn(code)
}

// bShift implements `shift [n]`, dropping n positional parameters (1
// by default) from the front of the active frame's argument list.
func bShift(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			fmt.Fprintf(io.Stderr, "den: shift: %s: numeric argument required\n", args[0])
			return 1, nil
		}
		n = v
	}
	cur := ex.Store.FrameArgs()
	if n > len(cur) {
		return 1, nil
	}
	ex.Store.SetFrameArgs(cur[n:])
	return 0, nil
}
