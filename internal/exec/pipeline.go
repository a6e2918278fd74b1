package exec

import (
	"fmt"
	"os"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/den-shell/den/internal/ast"
)

// runPipeline executes one maximal pipe-connected run of commands
// (spec §4.H step 2). A single-command pipeline skips the pipe/
// goroutine machinery entirely. The last command's Background flag
// (set by the parser on a trailing '&') hands the whole pipeline to
// the Job Manager instead of waiting on it here.
func (ex *Executor) runPipeline(pl ast.Pipeline, io IOSet) (int, error) {
	n := len(pl.Commands)
	if n == 0 {
		return 0, nil
	}

	if pl.Commands[n-1].Background {
		return ex.runBackgroundPipeline(pl, io)
	}

	code, err := ex.execPipelineStages(pl, io, ex.ForegroundSpawn)
	if err != nil {
		return code, err
	}
	if pl.Negated {
		code = negateCode(code)
	}
	return code, nil
}

func negateCode(code int) int {
	if code == 0 {
		return 1
	}
	return 0
}

// runBackgroundPipeline spawns the pipeline on its own goroutine,
// registers its last stage's process with the Job Manager as soon as
// it starts (so `jobs`/`wait %N` can see it immediately, and `$!`
// matches bash's "PID of the last command of the most recent
// background pipeline" rule), and returns exit code 0 to the caller
// without waiting, per spec §4.H step 3. Its stdin defaults to
// /dev/null, matching bash's treatment of unredirected background jobs.
func (ex *Executor) runBackgroundPipeline(pl ast.Pipeline, io IOSet) (int, error) {
	var parts []string
	for _, c := range pl.Commands {
		parts = append(parts, c.Name.Raw)
	}
	label := strings.Join(parts, " | ")

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		devNull = nil
	}

	onSpawn := func(proc *os.Process) {
		if _, err := ex.Jobs.Add(proc, label); err != nil {
			fmt.Fprintf(io.Stderr, "den: %v\n", err)
			return
		}
		ex.Store.SetLastBgPID(proc.Pid)
	}

	go func() {
		if devNull != nil {
			defer devNull.Close()
		}
		_, _ = ex.execPipelineStages(pl, IOSet{Stdin: devNull, Stdout: io.Stdout, Stderr: io.Stderr}, onSpawn)
	}()
	return 0, nil
}

// stage pairs a pipeline's parsed command with the IOSet it will run
// under once inter-stage pipes are wired up.
type stage struct {
	cmd *ast.ParsedCommand
	io  IOSet
}

// execPipelineStages wires N-1 OS pipes between N commands, runs every
// stage concurrently via a conc.WaitGroup (so a goroutine panic while
// running a builtin surfaces instead of vanishing), and returns the
// pipeline's exit code: the last command's code normally, or the
// first nonzero code from the left under `pipefail`. onSpawn, if not
// nil, is invoked the moment the last stage's process starts (earlier
// stages never see it); each external stage runs in its own process
// group.
func (ex *Executor) execPipelineStages(pl ast.Pipeline, io IOSet, onSpawn func(*os.Process)) (int, error) {
	n := len(pl.Commands)
	stages := make([]stage, n)
	for i, c := range pl.Commands {
		stages[i] = stage{cmd: c, io: IOSet{Stdin: io.Stdin, Stdout: io.Stdout, Stderr: io.Stderr, Extra: io.Extra}}
	}

	var pipeCloses []func() error
	for i := 0; i < n-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			for _, c := range pipeCloses {
				c()
			}
			return 1, err
		}
		stages[i].io.Stdout = pw
		stages[i+1].io.Stdin = pr
		pipeCloses = append(pipeCloses, pr.Close, pw.Close)
	}

	if n == 1 {
		code, err := ex.runCommandInPipeline(stages[0].cmd, stages[0].io, onSpawn)
		return code, err
	}

	codes := make([]int, n)
	errs := make([]error, n)
	wg := conc.NewWaitGroup()
	for i := range stages {
		i := i
		wg.Go(func() {
			var stageOnSpawn func(*os.Process)
			if i == n-1 {
				stageOnSpawn = onSpawn
			}
			codes[i], errs[i] = ex.runCommandInPipeline(stages[i].cmd, stages[i].io, stageOnSpawn)
			closeStageFDs(stages[i].io)
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil && isControlFlow(err) {
			return codes[n-1], err
		}
	}

	if ex.Store.Option("pipefail") {
		for _, c := range codes {
			if c != 0 {
				return c, nil
			}
		}
		return 0, nil
	}
	return codes[n-1], nil
}

// closeStageFDs closes the pipe ends a stage owned once it's done, so
// the next/previous stage observes EOF promptly instead of waiting on
// a descriptor this process no longer writes to.
func closeStageFDs(io IOSet) {
	if f, ok := io.Stdout.(*os.File); ok && f != os.Stdout {
		f.Close()
	}
	if f, ok := io.Stdin.(*os.File); ok && f != os.Stdin {
		f.Close()
	}
}
