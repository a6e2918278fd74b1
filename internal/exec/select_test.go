package exec

import (
	"strings"
	"testing"

	"github.com/den-shell/den/internal/parse"
)

func TestPrintSelectMenuSingleColumnWhenNarrow(t *testing.T) {
	ex, _, errw := newTestExecutor(t)
	ex.Store.Set("COLUMNS", "10")
	ex.printSelectMenu(IOSet{Stderr: errw}, []string{"apple", "banana", "cherry"})

	lines := strings.Split(strings.TrimRight(errw.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected one item per line in a narrow terminal, got %v", lines)
	}
	if lines[0] != "1) apple" {
		t.Fatalf("first line = %q, want %q", lines[0], "1) apple")
	}
}

func TestPrintSelectMenuPacksColumnsWhenWide(t *testing.T) {
	ex, _, errw := newTestExecutor(t)
	ex.Store.Set("COLUMNS", "80")
	ex.printSelectMenu(IOSet{Stderr: errw}, []string{"a", "b", "c", "d"})

	lines := strings.Split(strings.TrimRight(errw.String(), "\n"), "\n")
	if len(lines) >= 4 {
		t.Fatalf("expected items packed into fewer than 4 lines at width 80, got %v", lines)
	}
}

// breakOnlyBuiltins runs just `break`, which the select body below needs
// to leave the loop; noBuiltins alone would answer it with 127.
type breakOnlyBuiltins struct{ noBuiltins }

func (breakOnlyBuiltins) RunBuiltin(ex *Executor, name string, args []string, io IOSet) (int, error) {
	if name == "break" {
		return 0, NewBreak(1)
	}
	return 127, nil
}

func TestRunSelectAssignsChosenItem(t *testing.T) {
	ex, out, errw := newTestExecutor(t)
	ex.Builtins = breakOnlyBuiltins{}

	chain, err := parse.Parse([]byte(`select fruit in apple banana cherry; do echo "picked $fruit"; break; done`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	io := IOSet{Stdin: strings.NewReader("2\n"), Stdout: out, Stderr: errw}
	code, runErr := ex.Run(chain, io)
	if runErr != nil {
		t.Fatalf("Run: %v (stderr=%s)", runErr, errw.String())
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr=%s)", code, errw.String())
	}
	if !strings.Contains(out.String(), "picked banana") {
		t.Fatalf("output = %q, want it to contain %q", out.String(), "picked banana")
	}
}
