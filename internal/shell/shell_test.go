package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/den-shell/den/internal/config"
	"github.com/den-shell/den/internal/shellio"
)

// newTestContext builds a Context wired to in-memory streams instead
// of the real terminal, so Run can be driven deterministically.
func newTestContext(t *testing.T, input string) (*Context, *bytes.Buffer) {
	t.Helper()
	cfg := config.Defaults()
	cfg.HistoryFile = ""
	cfg.NoRC = true

	c := New(cfg, true)
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out
	c.Stdin = strings.NewReader("")
	c.Reader = shellio.NewScannerReader(strings.NewReader(input), &out)
	return c, &out
}

func TestRunExecutesSimpleCommand(t *testing.T) {
	c, out := newTestContext(t, "echo hi\nexit\n")
	code := c.Run(context.Background())
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "hi") {
		t.Fatalf("output missing command output: %q", out.String())
	}
}

func TestRunHandlesContinuationLines(t *testing.T) {
	// A pipeline ending in "|" is syntactically incomplete until the
	// next command arrives, so readLogicalCommand must read a second
	// line at PS2 and join it before this parses.
	c, out := newTestContext(t, "echo hi |\ncat\nexit\n")
	c.Run(context.Background())
	if !strings.Contains(out.String(), "hi") {
		t.Fatalf("continuation line was not joined into the command: %q", out.String())
	}
}

func TestRunStopsOnEOF(t *testing.T) {
	c, _ := newTestContext(t, "echo first\n")
	code := c.Run(context.Background())
	if code != 0 {
		t.Fatalf("exit code on EOF = %d, want last command's code (0)", code)
	}
}

func TestRunExitUsesGivenCode(t *testing.T) {
	c, _ := newTestContext(t, "exit 7\n")
	code := c.Run(context.Background())
	if code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	c, _ := newTestContext(t, "echo hi\nexit\n")
	c.Run(context.Background())
	entries := c.History.Entries()
	if len(entries) != 2 || entries[0] != "echo hi" || entries[1] != "exit" {
		t.Fatalf("history = %v, want [echo hi, exit]", entries)
	}
}
