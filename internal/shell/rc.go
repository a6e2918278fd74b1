package shell

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/den-shell/den/internal/exec"
	"github.com/den-shell/den/internal/rcwatch"
)

// RCPath resolves the rc file this session would source: --rcfile's
// argument if given, otherwise $HOME/.denrc, matching spec.md §6.
func (c *Context) RCPath() string {
	if c.Config.RCFile != "" {
		return c.Config.RCFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".denrc")
}

// loginProfilePath is the file `-l` sources before the rc file, bash's
// ~/.bash_profile analogue. There is no equivalent spec.md name for it,
// so den uses its own rc-file naming convention.
func (c *Context) loginProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".den_profile")
}

// SourceStartupFiles runs the login profile (if -l was given) and then
// the rc file (unless --norc was given), in that order, matching
// bash's login-then-interactive sourcing sequence. It does nothing in
// a non-interactive session: `-c`/script execution never reads either
// file.
func (c *Context) SourceStartupFiles() {
	if !c.interactive {
		return
	}
	if c.Config.Login {
		c.sourceIfExists(c.loginProfilePath())
	}
	if c.Config.NoRC {
		return
	}
	path := c.RCPath()
	c.sourceIfExists(path)

	if c.interactive && path != "" {
		c.watchRC(path)
	}
}

func (c *Context) sourceIfExists(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	c.runFile(path)
}

// runFile sources path into the current session the same way the
// `source` builtin does, reusing it rather than duplicating the
// read-parse-run sequence here.
func (c *Context) runFile(path string) (int, error) {
	io := exec.StdIO()
	io.Stdout, io.Stderr = c.Stdout, c.Stderr
	return c.Exec.Builtins.RunBuiltin(c.Exec, "source", []string{path}, io)
}

// watchRC starts (or extends) the live-reload watcher over path, wired
// to reloadRCFile. Safe to call multiple times; Watcher.Watch is
// idempotent per file.
func (c *Context) watchRC(path string) {
	if c.Watcher == nil {
		w, err := rcwatch.New(c.reloadRCFile)
		if err != nil {
			c.Log.Warn("rc watcher unavailable", "error", err)
			return
		}
		c.Watcher = w
		c.Watcher.Start()
	}
	if err := c.Watcher.Watch(path); err != nil {
		c.Log.Warn("rc watch failed", "path", path, "error", err)
	}
}

// reloadRCFile re-sources path, invoked either by rcwatch on a write or
// by signalctl.ReloadController on SIGHUP (`kill -HUP $$`). Both paths
// funnel through the same function so a live-edit and a manual reload
// are indistinguishable to the rest of the shell.
func (c *Context) reloadRCFile(path string) {
	code, err := c.runFile(path)
	if err != nil {
		c.Log.Error("rc reload failed", "path", path, "error", err)
		return
	}
	c.Log.Info("rc reloaded", "path", path, "code", code)
	fmt.Fprintf(c.Stderr, "den: reloaded %s\n", path)
}
