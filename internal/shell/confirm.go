package shell

import (
	"bufio"
	"fmt"
	"strings"
)

// confirm implements exec.Executor.Confirm: it prints the flagged
// command line and reason, then blocks on a y/n answer from stdin,
// grounded on the teacher's ConfirmBashCommand prompt-and-scan pattern.
// Non-interactive sessions (-c/-s/script execution) allow the command
// without asking, matching how bash itself never raises a question
// with nobody at the keyboard to answer it.
func (c *Context) confirm(commandLine, reason string) bool {
	if !c.interactive {
		return true
	}
	fmt.Fprintf(c.Stderr, "den: warning: %s\n", reason)
	fmt.Fprintf(c.Stderr, "  %s\n", commandLine)
	fmt.Fprint(c.Stderr, "run this command? [y/N] ")

	reader := bufio.NewReader(c.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
