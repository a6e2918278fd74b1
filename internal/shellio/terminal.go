package shellio

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is attached to an interactive terminal,
// grounded on the teacher's CLIAdapter.IsTerminal but backed by
// mattn/go-isatty (the rest of the example pack's terminal-detection
// library of choice) instead of a hand-rolled ModeCharDevice check.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorOutput wraps f so ANSI escapes written to it render correctly
// on Windows consoles and pass through unchanged elsewhere, via
// mattn/go-colorable. The shell session does not use it: prompts and
// command output are written to os.Stdout directly.
func ColorOutput(f *os.File) io.Writer {
	if f == nil {
		return io.Discard
	}
	return colorable.NewColorable(f)
}
