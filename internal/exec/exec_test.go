package exec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/den-shell/den/internal/dispatch"
	"github.com/den-shell/den/internal/expand"
	"github.com/den-shell/den/internal/job"
	"github.com/den-shell/den/internal/parse"
	"github.com/den-shell/den/internal/safety"
	"github.com/den-shell/den/internal/state"
)

// noBuiltins is a BuiltinRunner with an empty table, used by tests that
// only exercise external commands and control flow.
type noBuiltins struct{}

func (noBuiltins) IsBuiltin(name string) bool { return false }
func (noBuiltins) RunBuiltin(ex *Executor, name string, args []string, io IOSet) (int, error) {
	return 127, nil
}

func newTestExecutor(t *testing.T) (*Executor, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	store := state.New([]string{"PATH=/usr/bin:/bin"})
	eng := expand.New(store, nil)
	jobs := job.New(nil)
	ex := New(store, eng, jobs)
	eng.Runner = ex
	ex.Builtins = noBuiltins{}

	validator, err := safety.NewCommandValidator(safety.ModeBlacklist, nil)
	if err != nil {
		t.Fatalf("NewCommandValidator: %v", err)
	}
	ex.Resolver = dispatch.NewResolver(store, ex.Builtins, validator)
	return ex, &bytes.Buffer{}, &bytes.Buffer{}
}

func runLine(t *testing.T, ex *Executor, src string, out, errw *bytes.Buffer) int {
	t.Helper()
	chain, err := parse.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	io := IOSet{Stdin: strings.NewReader(""), Stdout: out, Stderr: errw}
	code, err := ex.Run(chain, io)
	if err != nil && !isControlFlow(err) {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return code
}

func TestSequencingAndAndOr(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	code := runLine(t, ex, "true && echo yes || echo no", out, errw)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (errw=%s)", code, errw.String())
	}
}

func TestBareAssignmentPersists(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "x=5", out, errw)
	val, ok := ex.Store.Get("x")
	if !ok || val != "5" {
		t.Fatalf("x = %q, %v; want 5, true", val, ok)
	}
}

func TestIfElse(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	code := runLine(t, ex, "if false; then :; else x=hit; fi", out, errw)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if v, _ := ex.Store.Get("x"); v != "hit" {
		t.Fatalf("x = %q, want hit", v)
	}
}

func TestForLoopAccumulates(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "for i in 1 2 3; do x=$i; done", out, errw)
	if v, _ := ex.Store.Get("x"); v != "3" {
		t.Fatalf("x = %q, want 3", v)
	}
}

func TestWhileFalseConditionNeverRunsBody(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	code := runLine(t, ex, "while false; do x=hit; done", out, errw)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if _, ok := ex.Store.Get("x"); ok {
		t.Fatalf("x should remain unset when the while body never runs")
	}
}

func TestCStyleForCountsToThree(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "for ((i=0; i<3; i=i+1)); do x=$i; done", out, errw)
	if v, _ := ex.Store.Get("x"); v != "2" {
		t.Fatalf("x = %q, want 2 (last value of i before the loop exits)", v)
	}
}

func TestBreakContinueUnwindHelpers(t *testing.T) {
	if unwindBreak(NewBreak(1)) != nil {
		t.Fatalf("break 1 should not propagate past its own loop")
	}
	outer := unwindBreak(NewBreak(2))
	if outer == nil || !isBreak(outer) {
		t.Fatalf("break 2 should propagate one level as a break signal")
	}
	if unwindContinue(NewContinue(1)) != nil {
		t.Fatalf("continue 1 should not propagate past its own loop")
	}
	outerC := unwindContinue(NewContinue(3))
	if outerC == nil || !isContinue(outerC) {
		t.Fatalf("continue 3 should propagate as a continue signal")
	}
}

func TestCaseMatchesFirstPattern(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	code := runLine(t, ex, `case foo in f*) x=one;; *) x=other;; esac`, out, errw)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if v, _ := ex.Store.Get("x"); v != "one" {
		t.Fatalf("x = %q, want one", v)
	}
}

func TestSubshellDiscardsMutation(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	ex.Store.Set("x", "outer")
	runLine(t, ex, "(x=inner)", out, errw)
	if v, _ := ex.Store.Get("x"); v != "outer" {
		t.Fatalf("x = %q after subshell, want outer unchanged", v)
	}
}

func TestGroupKeepsMutation(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "{ x=inner; }", out, errw)
	if v, _ := ex.Store.Get("x"); v != "inner" {
		t.Fatalf("x = %q after group, want inner", v)
	}
}

func TestFastPathTrueFalseColon(t *testing.T) {
	ex, _, _ := newTestExecutor(t)
	if code, err, handled := ex.TryFastPath("true"); !handled || code != 0 || err != nil {
		t.Fatalf("true: code=%d err=%v handled=%v", code, err, handled)
	}
	if code, err, handled := ex.TryFastPath("false"); !handled || code != 1 || err != nil {
		t.Fatalf("false: code=%d err=%v handled=%v", code, err, handled)
	}
	if code, err, handled := ex.TryFastPath(":"); !handled || code != 0 || err != nil {
		t.Fatalf(": code=%d err=%v handled=%v", code, err, handled)
	}
}

func TestFastPathDeclinesMetacharacters(t *testing.T) {
	ex, _, _ := newTestExecutor(t)
	if _, _, handled := ex.TryFastPath("echo $HOME"); handled {
		t.Fatalf("fast path should decline a line with $")
	}
	if _, _, handled := ex.TryFastPath("true; false"); handled {
		t.Fatalf("fast path should decline anything beyond a single bare builtin word")
	}
}

func TestFastPathDeclinesAliasedName(t *testing.T) {
	ex, _, _ := newTestExecutor(t)
	ex.Store.SetAlias("true", "echo not-actually-true")
	if _, _, handled := ex.TryFastPath("true"); handled {
		t.Fatalf("fast path must not shadow an alias")
	}
}

func TestFastPathExitReturnsExitSignal(t *testing.T) {
	ex, _, _ := newTestExecutor(t)
	code, err, handled := ex.TryFastPath("exit 7")
	if !handled {
		t.Fatalf("exit should be fast-pathable")
	}
	if code != 7 {
		t.Fatalf("code = %d, want 7", code)
	}
	if err == nil || !isControlFlow(err) {
		t.Fatalf("expected an exit control-flow signal, got %v", err)
	}
}
