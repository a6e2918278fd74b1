package builtin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/den-shell/den/internal/exec"
	tty "github.com/mattn/go-tty"
)

func (s *Set) registerRead() {
	s.register("read", bRead)
	s.register("mapfile", bMapfile)
	s.register("readarray", bMapfile)
}

// bRead implements `read [-r] [-s] [-p prompt] [name...]`: one line is
// read from stdin, split on IFS whitespace, and assigned to the named
// variables (extra fields collapse into the last name, matching bash;
// missing fields leave later names empty). With no names, the whole
// line goes to REPLY.
func bRead(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	raw := false
	silent := false
	prompt := ""
	var names []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-r":
			raw = true
		case "-s":
			silent = true
		case "-p":
			if i+1 < len(args) {
				i++
				prompt = args[i]
			}
		default:
			names = append(names, args[i])
		}
	}
	if prompt != "" {
		fmt.Fprint(io.Stderr, prompt)
	}

	line, err := readLine(io.Stdin, silent)
	if err != nil && !errors.Is(err, errEOF) {
		fmt.Fprintf(io.Stderr, "den: read: %v\n", err)
		return 1, nil
	}
	if !raw {
		line = unescapeBackslashContinuation(line)
	}

	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	fields := strings.Fields(line)
	for i, name := range names {
		switch {
		case i == len(names)-1:
			if i < len(fields) {
				ex.Store.Set(name, strings.Join(fields[i:], " "))
			} else {
				ex.Store.Set(name, "")
			}
		case i < len(fields):
			ex.Store.Set(name, fields[i])
		default:
			ex.Store.Set(name, "")
		}
	}
	if errors.Is(err, errEOF) {
		return 1, nil
	}
	return 0, nil
}

var errEOF = errors.New("EOF")

// readLine reads one newline-terminated line. When silent is true and
// the reader is the process's real stdin, it shells out to mattn/go-tty
// to read without echoing keystrokes (the `read -s` password-prompt
// idiom); otherwise it falls back to a plain buffered line read, which
// is all a piped-in or captured stdin supports anyway.
func readLine(r io.Reader, silent bool) (string, error) {
	if silent && r == os.Stdin {
		if line, err := readLineSilently(); err == nil {
			return line, nil
		}
	}
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil {
		if line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", errEOF
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readLineSilently() (string, error) {
	t, err := tty.Open()
	if err != nil {
		return "", err
	}
	defer t.Close()
	var b strings.Builder
	for {
		r, err := t.ReadRune()
		if err != nil {
			return b.String(), err
		}
		if r == '\n' || r == '\r' {
			return b.String(), nil
		}
		b.WriteRune(r)
	}
}

func unescapeBackslashContinuation(s string) string {
	return strings.ReplaceAll(s, "\\\n", "")
}

// bMapfile implements `mapfile`/`readarray` limited to reading stdin
// lines into a named indexed array (mapfile's many formatting flags
// are out of scope for an interactive shell's everyday use).
func bMapfile(ex *exec.Executor, args []string, io exec.IOSet) (int, error) {
	name := "MAPFILE"
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			name = a
		}
	}
	scanner := bufio.NewScanner(io.Stdin)
	idx := 0
	for scanner.Scan() {
		ex.Store.SetArrayElem(name, idx, scanner.Text())
		idx++
	}
	return 0, nil
}
