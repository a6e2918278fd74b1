// Command den runs the shell: interactively against a terminal, or
// non-interactively via -c, a script file, or -s.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "den: %v\n", err)
		os.Exit(1)
	}
}
