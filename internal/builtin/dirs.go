package builtin

import (
	"fmt"
	"os"

	"github.com/den-shell/den/internal/exec"
)

func (s *Set) registerDirs() {
	s.register("cd", bCd)
	s.register("pushd", bPushd)
	s.register("popd", bPopd)
	s.register("dirs", bDirs)
	s.register("pwd", bPwd)
}

// restrictedBlocked reports whether the `restricted` shell option is
// on, which bash (and den) refuses `cd` under: restricted mode's whole
// point is that the working directory can't be changed out from under
// a sandboxed script.
func restrictedBlocked(ex *exec.Executor, io exec.IOSet, name string) bool {
	if !ex.Store.Option("restricted") {
		return false
	}
	fmt.Fprintf(io.Stderr, "den: %s: restricted\n", name)
	return true
}

// bCd implements `cd [-] [dir]`: with no argument it goes to $HOME,
// "-" goes to $OLDPWD (printing the new directory, matching bash), and
// OLDPWD/PWD are updated on every successful change.
func bCd(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if restrictedBlocked(ex, io, "cd") {
		return 1, nil
	}
	target := ""
	if len(args) > 0 {
		target = args[0]
	}
	printAfter := false
	switch target {
	case "":
		target, _ = ex.Store.Get("HOME")
	case "-":
		old, ok := ex.Store.Get("OLDPWD")
		if !ok {
			fmt.Fprintln(io.Stderr, "den: cd: OLDPWD not set")
			return 1, nil
		}
		target = old
		printAfter = true
	}
	if err := changeDir(ex, target); err != nil {
		fmt.Fprintf(io.Stderr, "den: cd: %v\n", err)
		return 1, nil
	}
	if printAfter {
		if pwd, ok := ex.Store.Get("PWD"); ok {
			fmt.Fprintln(io.Stdout, pwd)
		}
	}
	return 0, nil
}

func changeDir(ex *exec.Executor, dir string) error {
	if dir == "" {
		return fmt.Errorf("no directory specified")
	}
	old, err := os.Getwd()
	if err != nil {
		old, _ = ex.Store.Get("PWD")
	}
	if err := os.Chdir(dir); err != nil {
		return err
	}
	newWd, err := os.Getwd()
	if err != nil {
		newWd = dir
	}
	ex.Store.Set("OLDPWD", old)
	ex.Store.Set("PWD", newWd)
	return nil
}

// bPushd implements `pushd dir`: changes directory and records the
// previous working directory on den's directory stack.
func bPushd(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if restrictedBlocked(ex, io, "pushd") {
		return 1, nil
	}
	if len(args) == 0 {
		fmt.Fprintln(io.Stderr, "den: pushd: no other directory")
		return 1, nil
	}
	cur, err := os.Getwd()
	if err != nil {
		cur, _ = ex.Store.Get("PWD")
	}
	if err := changeDir(ex, args[0]); err != nil {
		fmt.Fprintf(io.Stderr, "den: pushd: %v\n", err)
		return 1, nil
	}
	if err := ex.Store.PushDir(cur); err != nil {
		fmt.Fprintf(io.Stderr, "den: pushd: %v\n", err)
		return 1, nil
	}
	printDirs(ex, io)
	return 0, nil
}

// bPopd implements `popd`: returns to the directory on top of the
// stack and removes it.
func bPopd(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if restrictedBlocked(ex, io, "popd") {
		return 1, nil
	}
	dir, ok := ex.Store.PopDir()
	if !ok {
		fmt.Fprintln(io.Stderr, "den: popd: directory stack empty")
		return 1, nil
	}
	if err := changeDir(ex, dir); err != nil {
		fmt.Fprintf(io.Stderr, "den: popd: %v\n", err)
		return 1, nil
	}
	printDirs(ex, io)
	return 0, nil
}

// bDirs prints the directory stack, most-recently-pushed first.
func bDirs(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	printDirs(ex, io)
	return 0, nil
}

func printDirs(ex *exec.Executor, io exec.IOSet) {
	pwd, _ := ex.Store.Get("PWD")
	stack := ex.Store.DirStack()
	fmt.Fprint(io.Stdout, pwd)
	for _, d := range stack {
		fmt.Fprint(io.Stdout, " ", d)
	}
	fmt.Fprintln(io.Stdout)
}

func bPwd(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	if pwd, ok := ex.Store.Get("PWD"); ok && pwd != "" {
		fmt.Fprintln(io.Stdout, pwd)
		return 0, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(io.Stderr, "den: pwd: %v\n", err)
		return 1, nil
	}
	fmt.Fprintln(io.Stdout, wd)
	return 0, nil
}
