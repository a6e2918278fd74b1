// Package shell wires every other component into one runnable
// session: the state store, expansion engine, executor, dispatcher,
// builtin table, job manager, safety validator, line reader, history,
// signal controllers, and the rc-file watcher. Grounded on spec.md §9's
// redesign note ("a single ShellContext value passed explicitly to
// every component method... No globals") and structurally modeled on
// the teacher's cmd/cli/cmd (a container built once at startup, a REPL
// loop driven off it) rather than the teacher's own DI container type,
// since den's components talk to each other through narrow interfaces
// already rather than through a service locator.
package shell

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"syscall"

	"github.com/den-shell/den/internal/builtin"
	"github.com/den-shell/den/internal/config"
	"github.com/den-shell/den/internal/diag"
	"github.com/den-shell/den/internal/dispatch"
	"github.com/den-shell/den/internal/exec"
	"github.com/den-shell/den/internal/expand"
	"github.com/den-shell/den/internal/job"
	"github.com/den-shell/den/internal/rcwatch"
	"github.com/den-shell/den/internal/safety"
	"github.com/den-shell/den/internal/shellio"
	"github.com/den-shell/den/internal/signalctl"
	"github.com/den-shell/den/internal/state"
)

// Context is the whole session: every component, constructed once and
// never duplicated, plus the I/O streams commands run against.
type Context struct {
	Config  *config.Config
	Store   *state.Store
	Expand  *expand.Engine
	Exec    *exec.Executor
	Jobs    *job.Manager
	History *shellio.History
	Reader  shellio.LineReader
	Log     *slog.Logger

	Interrupt *signalctl.InterruptController
	Reload    *signalctl.ReloadController
	Watcher   *rcwatch.Watcher

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	interactive bool

	fgMu   sync.Mutex
	fgProc *os.Process
}

// New builds a fully wired Context. interactive turns on the
// dangerous-command confirmation prompt, rc-file sourcing and live
// reload, and is passed to the diagnostic logger (spec.md §6: -i
// forces it even off a terminal; a plain `den -c '...'` or
// `den script.sh` run leaves it false). Prompts, history and job
// notifications do not depend on it.
func New(cfg *config.Config, interactive bool) *Context {
	store := state.New(os.Environ())
	seedEnvironment(store)
	store.SetShellPID(os.Getpid())

	jobNotify := func(line string) { fmt.Fprintln(os.Stdout, line) }
	jobs := job.New(jobNotify)

	eng := expand.New(store, nil)
	ex := exec.New(store, eng, jobs)
	eng.Runner = ex

	builtins := builtin.New()
	ex.Builtins = builtins

	mode := safety.ModeBlacklist
	var whitelist safety.CommandAllowChecker
	if cfg.Restricted {
		mode = safety.ModeWhitelist
		whitelist = safety.NewCommandWhitelist(safety.DefaultWhitelistPatterns())
		store.SetOption("restricted", true)
	}
	validator, err := safety.NewCommandValidator(mode, whitelist)
	if err != nil {
		// Restricted mode was requested but construction failed for want
		// of a whitelist, which can't happen given the branch above;
		// falling back to an unrestricted blacklist validator keeps the
		// shell usable rather than panicking on a startup-only error.
		validator, _ = safety.NewCommandValidator(safety.ModeBlacklist, nil)
	}
	ex.Resolver = dispatch.NewResolver(store, builtins, validator)

	history := shellio.NewHistory(cfg.HistoryFile, cfg.HistSize, cfg.HistFileSize)

	c := &Context{
		Config:      cfg,
		Store:       store,
		Expand:      eng,
		Exec:        ex,
		Jobs:        jobs,
		History:     history,
		Reader:      shellio.NewScannerReader(os.Stdin, os.Stdout),
		Interrupt:   signalctl.NewInterruptController(0),
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		interactive: interactive,
	}
	c.Log = diag.New(os.Stderr, interactive)
	c.Reload = signalctl.NewReloadController(func() { c.reloadRCFile(c.RCPath()) })
	ex.Confirm = c.confirm
	ex.ForegroundSpawn = c.setForeground
	c.Interrupt.SetOnForegroundInterrupt(c.interruptForeground)

	c.Interrupt.Start()
	c.Reload.Start()

	return c
}

// seedEnvironment sets the variables spec.md §6 says the core writes
// on startup: PWD from the real working directory, OLDPWD matching it
// until the first cd, and SHLVL incremented from any inherited value.
func seedEnvironment(store *state.Store) {
	if wd, err := os.Getwd(); err == nil {
		store.Set("PWD", wd)
		store.Set("OLDPWD", wd)
	}
	level := 0
	if v, ok := store.Get("SHLVL"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			level = n
		}
	}
	store.Set("SHLVL", strconv.Itoa(level+1))
	store.Declare("SHLVL", state.AttrExport)
}

// Interactive reports the interactive flag the session was built with
// (see New).
func (c *Context) Interactive() bool {
	return c.interactive
}

// setForeground records the process group leader of the pipeline
// currently running in the foreground, wired as Exec.ForegroundSpawn.
// A new external command running on the same goroutine overwrites the
// previous one, which by then has already been waited on.
func (c *Context) setForeground(proc *os.Process) {
	c.fgMu.Lock()
	defer c.fgMu.Unlock()
	c.fgProc = proc
}

// clearForeground drops the tracked foreground process once a command
// finishes, so a SIGINT arriving after completion (but before the next
// command starts) has nothing stale to signal.
func (c *Context) clearForeground() {
	c.fgMu.Lock()
	defer c.fgMu.Unlock()
	c.fgProc = nil
}

// interruptForeground forwards SIGINT to the tracked foreground
// process group, wired as the InterruptController's
// onForegroundInterrupt callback. Spawned external commands run in
// their own process group (internal/exec sets Setpgid), so the
// terminal's own SIGINT delivery to den's process group does not reach
// them on its own; den must forward it explicitly.
func (c *Context) interruptForeground() {
	c.fgMu.Lock()
	proc := c.fgProc
	c.fgMu.Unlock()
	if proc != nil {
		_ = syscall.Kill(-proc.Pid, syscall.SIGINT)
	}
}

// Close releases the reader, history, and any running background
// watchers/signal listeners. Safe to call once at shutdown.
func (c *Context) Close() {
	c.Interrupt.Stop()
	if c.Reload != nil {
		c.Reload.Stop()
	}
	if c.Watcher != nil {
		c.Watcher.Close()
	}
	c.Reader.Close()
}
