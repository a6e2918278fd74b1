package builtin

import (
	"bytes"
	"strings"
	"testing"

	"github.com/den-shell/den/internal/dispatch"
	"github.com/den-shell/den/internal/exec"
	"github.com/den-shell/den/internal/expand"
	"github.com/den-shell/den/internal/job"
	"github.com/den-shell/den/internal/parse"
	"github.com/den-shell/den/internal/safety"
	"github.com/den-shell/den/internal/state"
)

func newTestExecutor(t *testing.T) (*exec.Executor, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	store := state.New([]string{"PATH=/usr/bin:/bin", "HOME=/home/test"})
	eng := expand.New(store, nil)
	jobs := job.New(nil)
	ex := exec.New(store, eng, jobs)
	eng.Runner = ex

	builtins := New()
	ex.Builtins = builtins

	validator, err := safety.NewCommandValidator(safety.ModeBlacklist, nil)
	if err != nil {
		t.Fatalf("NewCommandValidator: %v", err)
	}
	ex.Resolver = dispatch.NewResolver(store, builtins, validator)
	return ex, &bytes.Buffer{}, &bytes.Buffer{}
}

func runLine(t *testing.T, ex *exec.Executor, src string, out, errw *bytes.Buffer) int {
	t.Helper()
	chain, err := parse.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	io := exec.IOSet{Stdin: strings.NewReader(""), Stdout: out, Stderr: errw}
	code, _ := ex.Run(chain, io)
	return code
}

func TestTrueFalseColon(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	if code := runLine(t, ex, "true", out, errw); code != 0 {
		t.Fatalf("true exit = %d", code)
	}
	if code := runLine(t, ex, "false", out, errw); code != 1 {
		t.Fatalf("false exit = %d", code)
	}
}

func TestEchoBasic(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "echo hello world", out, errw)
	if got := out.String(); got != "hello world\n" {
		t.Fatalf("echo output = %q", got)
	}
}

func TestEchoDashN(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "echo -n hi", out, errw)
	if got := out.String(); got != "hi" {
		t.Fatalf("echo -n output = %q", got)
	}
}

func TestDeclareAndExport(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "declare -x FOO=bar", out, errw)
	val, ok := ex.Store.Get("FOO")
	if !ok || val != "bar" {
		t.Fatalf("FOO = %q, %v", val, ok)
	}
	found := false
	for _, kv := range ex.Store.Environ() {
		if kv == "FOO=bar" {
			found = true
		}
	}
	if !found {
		t.Fatalf("FOO not exported: %v", ex.Store.Environ())
	}
}

func TestReadonlyBlocksReassignment(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "readonly X=1", out, errw)
	code := runLine(t, ex, "X=2", out, errw)
	if code == 0 {
		t.Fatalf("assignment to readonly var should fail")
	}
	if v, _ := ex.Store.Get("X"); v != "1" {
		t.Fatalf("X = %q, want unchanged 1", v)
	}
}

func TestTestStringEquality(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	if code := runLine(t, ex, `[ foo = foo ]`, out, errw); code != 0 {
		t.Fatalf("[ foo = foo ] = %d, want 0", code)
	}
	if code := runLine(t, ex, `[ foo = bar ]`, out, errw); code != 1 {
		t.Fatalf("[ foo = bar ] = %d, want 1", code)
	}
}

func TestTestNumericAndFileOps(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	if code := runLine(t, ex, `[ 3 -lt 5 ]`, out, errw); code != 0 {
		t.Fatalf("3 -lt 5 = %d", code)
	}
	if code := runLine(t, ex, `[ -d /tmp ]`, out, errw); code != 0 {
		t.Fatalf("-d /tmp = %d", code)
	}
	if code := runLine(t, ex, `[ -e /no/such/path/xyz ]`, out, errw); code != 1 {
		t.Fatalf("-e nonexistent = %d, want 1", code)
	}
}

func TestDoubleBracketLogical(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	code := runLine(t, ex, `[[ 1 -eq 1 && 2 -eq 2 ]]`, out, errw)
	if code != 0 {
		t.Fatalf("[[ ... && ... ]] = %d (stderr=%s)", code, errw.String())
	}
}

func TestDoubleBracketStringEquality(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	if code := runLine(t, ex, `[[ foo == foo ]]`, out, errw); code != 0 {
		t.Fatalf("[[ foo == foo ]] = %d (stderr=%s)", code, errw.String())
	}
	if code := runLine(t, ex, `[[ foo != bar ]]`, out, errw); code != 0 {
		t.Fatalf("[[ foo != bar ]] = %d (stderr=%s)", code, errw.String())
	}
}

func TestDoubleBracketOrAndParens(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	code := runLine(t, ex, `[[ (1 -eq 2) || (2 -eq 2) ]]`, out, errw)
	if code != 0 {
		t.Fatalf("[[ (...) || (...) ]] = %d (stderr=%s)", code, errw.String())
	}
}

func TestDoubleBracketLexicographic(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	if code := runLine(t, ex, `[[ a < b ]]`, out, errw); code != 0 {
		t.Fatalf("[[ a < b ]] = %d (stderr=%s)", code, errw.String())
	}
	if code := runLine(t, ex, `[[ b > a ]]`, out, errw); code != 0 {
		t.Fatalf("[[ b > a ]] = %d (stderr=%s)", code, errw.String())
	}
}

func TestDoubleBracketWithVariable(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, `x=hello`, out, errw)
	if code := runLine(t, ex, `[[ -n "$x" ]]`, out, errw); code != 0 {
		t.Fatalf(`[[ -n "$x" ]] = %d (stderr=%s)`, code, errw.String())
	}
	if code := runLine(t, ex, `[[ "$x" == hello ]]`, out, errw); code != 0 {
		t.Fatalf(`[[ "$x" == hello ]] = %d (stderr=%s)`, code, errw.String())
	}
}

func TestDoubleBracketInIf(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	out.Reset()
	code := runLine(t, ex, `if [[ 1 -eq 1 ]]; then echo yes; else echo no; fi`, out, errw)
	if code != 0 {
		t.Fatalf("if [[ ]] exit = %d (stderr=%s)", code, errw.String())
	}
	if got := out.String(); got != "yes\n" {
		t.Fatalf("if [[ ]] output = %q, want %q", got, "yes\n")
	}
}

func TestCdAndPwd(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	code := runLine(t, ex, "cd /tmp", out, errw)
	if code != 0 {
		t.Fatalf("cd /tmp = %d (%s)", code, errw.String())
	}
	out.Reset()
	runLine(t, ex, "pwd", out, errw)
	if got := out.String(); got != "/tmp\n" {
		t.Fatalf("pwd = %q", got)
	}
}

func TestAliasDefineAndList(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "alias ll='ls -l'", out, errw)
	val, ok := ex.Store.Alias("ll")
	if !ok || val != "ls -l" {
		t.Fatalf("alias ll = %q, %v", val, ok)
	}
}

func TestLetArithmetic(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	code := runLine(t, ex, "let x=2+3", out, errw)
	if code != 0 {
		t.Fatalf("let x=2+3 exit = %d", code)
	}
	if v, _ := ex.Store.Get("x"); v != "5" {
		t.Fatalf("x = %q, want 5", v)
	}
}

func TestFunctionReturnStopsAtCaller(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "f() { return 3; echo unreachable; }", out, errw)
	code := runLine(t, ex, "f", out, errw)
	if code != 3 {
		t.Fatalf("f exit = %d, want 3", code)
	}
	if strings.Contains(out.String(), "unreachable") {
		t.Fatalf("body after return should not run")
	}
}

func TestBreakUnwindsLoop(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	runLine(t, ex, "for i in 1 2 3; do if [ $i = 2 ]; then break; fi; x=$i; done", out, errw)
	if v, _ := ex.Store.Get("x"); v != "1" {
		t.Fatalf("x = %q, want 1 (loop should break before i=2 assigns)", v)
	}
}
