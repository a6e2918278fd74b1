package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/den-shell/den/internal/exec"
	"github.com/den-shell/den/internal/parse"
	"github.com/den-shell/den/internal/shellio"
)

// maxContinuationLines bounds how many PS2 lines a single logical
// command may accumulate before den gives up and reports it as an
// unterminated construct, guarding against an open quote at EOF
// blocking forever on a non-interactive, non-terminal stdin.
const maxContinuationLines = 1000

// Run drives the interactive read-eval-print loop: render PS1, read a
// (possibly multi-line) logical command, run it, reap finished
// background jobs, repeat until EOF or `exit`. It returns the exit
// code the process should use.
func (c *Context) Run(ctx context.Context) int {
	c.SourceStartupFiles()
	defer c.Close()

	for {
		c.reapJobs()

		src, err := c.readLogicalCommand(ctx)
		if errors.Is(err, shellio.ErrEOF) {
			fmt.Fprintln(c.Stdout)
			return c.Store.LastExitCode()
		}
		if err != nil {
			fmt.Fprintf(c.Stderr, "den: %v\n", err)
			continue
		}
		if strings.TrimSpace(src) == "" {
			continue
		}

		c.History.Add(src)
		c.Reader.AddHistory(src)

		if code, exited := c.runLine(ctx, src); exited {
			return code
		}
	}
}

// readLogicalCommand reads lines at PS1/PS2 until the accumulated text
// parses (or fails for a reason other than being incomplete).
func (c *Context) readLogicalCommand(ctx context.Context) (string, error) {
	prompt := shellio.Primary(c.Store)
	line, err := c.Reader.ReadLine(ctx, prompt)
	if err != nil {
		return "", err
	}

	src := line
	for i := 0; i < maxContinuationLines; i++ {
		_, perr := parse.Parse([]byte(src))
		if perr == nil || !errors.Is(perr, parse.ErrIncomplete) {
			return src, nil
		}
		more, err := c.Reader.ReadLine(ctx, shellio.Continuation(c.Store))
		if err != nil {
			return "", err
		}
		src += "\n" + more
	}
	return src, nil
}

// runLine parses and executes one logical command, returning the exit
// code to use if it requested the shell exit.
func (c *Context) runLine(ctx context.Context, src string) (code int, exited bool) {
	chain, err := parse.Parse([]byte(src))
	if err != nil {
		fmt.Fprintf(c.Stderr, "den: parse error: %v\n", err)
		c.Store.SetLastExitCode(2)
		return 0, false
	}

	_, release := c.Interrupt.Foreground(ctx)
	defer release()
	defer c.clearForeground()

	io := exec.StdIO()
	io.Stdout, io.Stderr, io.Stdin = c.Stdout, c.Stderr, c.Stdin

	result, runErr := c.Exec.Run(chain, io)
	if runErr != nil {
		if exitCode, ok := exec.IsExit(runErr); ok {
			return exitCode, true
		}
		fmt.Fprintf(c.Stderr, "den: %v\n", runErr)
	}
	c.Store.SetLastExitCode(result)
	return 0, false
}

// reapJobs performs the non-blocking background-job check spec.md §5
// schedules between prompts, on the same goroutine as the rest of the
// evaluator since den's job table (internal/job.Manager) is documented
// as expecting CheckCompleted to run there rather than concurrently.
func (c *Context) reapJobs() {
	c.Jobs.CheckCompleted()
}
