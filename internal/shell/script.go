package shell

import (
	"context"
	"fmt"

	"github.com/den-shell/den/internal/exec"
	"github.com/den-shell/den/internal/parse"
)

// RunScript parses and executes src as one complete program — the
// body of a `-c CMD`, a script file's contents, or stdin read as a
// script with `-s` — and returns the exit code the process should
// use. Unlike Run, it does not loop for more input or render prompts:
// the whole of src is one logical unit, parsed once the same way
// internal/builtin's `source` parses a whole file in one call.
func (c *Context) RunScript(ctx context.Context, src, name string) int {
	defer c.Close()

	chain, err := parse.Parse([]byte(src))
	if err != nil {
		fmt.Fprintf(c.Stderr, "den: %s: %v\n", name, err)
		return 2
	}

	prev := c.Store.ScriptName()
	c.Store.SetScriptName(name)
	defer c.Store.SetScriptName(prev)

	_, release := c.Interrupt.Foreground(ctx)
	defer release()
	defer c.clearForeground()

	io := exec.StdIO()
	io.Stdout, io.Stderr, io.Stdin = c.Stdout, c.Stderr, c.Stdin

	result, runErr := c.Exec.Run(chain, io)
	if runErr != nil {
		if exitCode, ok := exec.IsExit(runErr); ok {
			return exitCode
		}
		fmt.Fprintf(c.Stderr, "den: %v\n", runErr)
	}
	c.Jobs.CheckCompleted()
	return result
}
