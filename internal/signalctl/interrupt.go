// Package signalctl adapts the teacher's
// internal/infrastructure/signal package (InterruptHandler,
// ReloadHandler) to den's own signal semantics (spec.md §5): SIGINT
// cancels whatever is in the foreground and returns to the prompt
// without needing a second press, and SIGHUP re-sources `.denrc`.
package signalctl

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// InterruptController turns SIGINT into cancellation of whatever den
// currently considers "foreground": a running external/builtin
// command, or (if one is active) a running ERR/EXIT trap body.
//
// The teacher's InterruptHandler used a double-press-within-timeout
// pattern to confirm exiting the whole REPL; den repurposes that same
// debounce for the narrower case of aborting a trap body that won't
// return (a single SIGINT during a trap only cancels it the same way
// it would cancel any other foreground command — bash itself does not
// special-case this — but a *second* SIGINT within the window forces
// the abort even if the trap body is itself swallowing the first one,
// mirroring how ERR traps commonly disable further tracing on entry).
// A plain foreground command (no trap involved) is cancelled on the
// first press; there is nothing to debounce.
type InterruptController struct {
	timeout time.Duration

	mu         sync.Mutex
	fgCancel   context.CancelFunc
	trapCancel context.CancelFunc
	pressCount int
	lastPress  time.Time
	resetTimer *time.Timer

	running bool
	sigCh   chan os.Signal
	stopCh  chan struct{}

	// onForegroundInterrupt, if set, runs whenever a real SIGINT cancels
	// the current foreground command (not when release() cancels it on
	// normal completion). internal/shell uses this to forward the
	// signal to the foreground process group, since fgCancel alone only
	// cancels a context nothing in internal/exec currently observes.
	onForegroundInterrupt func()
}

// SetOnForegroundInterrupt registers fn to run each time SIGINT cancels
// a foreground command (the single-press path, not the trap double-
// press path). Pass nil to clear it.
func (c *InterruptController) SetOnForegroundInterrupt(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onForegroundInterrupt = fn
}

// NewInterruptController builds a controller with the given debounce
// timeout for the trap re-entry guard (bash-like shells use something
// on the order of a second).
func NewInterruptController(timeout time.Duration) *InterruptController {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &InterruptController{timeout: timeout}
}

// Start begins listening for SIGINT. Safe to call once; repeat calls
// are no-ops while already running.
func (c *InterruptController) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.sigCh = make(chan os.Signal, 1)
	c.stopCh = make(chan struct{})
	signal.Notify(c.sigCh, os.Interrupt)

	sigCh, stopCh := c.sigCh, c.stopCh
	go func() {
		for {
			select {
			case <-stopCh:
				return
			case <-sigCh:
				c.handleInterrupt()
			}
		}
	}()
}

// Stop stops listening for SIGINT and releases resources. Safe to
// call multiple times.
func (c *InterruptController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	if c.sigCh != nil {
		signal.Stop(c.sigCh)
		close(c.sigCh)
		c.sigCh = nil
	}
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.stopResetTimerLocked()
}

// Foreground marks ctx's derived child as the currently cancellable
// foreground command. The returned release func must be deferred by
// the caller so a later SIGINT can't reach back into a command that
// has already finished.
func (c *InterruptController) Foreground(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	c.fgCancel = cancel
	c.mu.Unlock()
	return ctx, func() {
		c.mu.Lock()
		c.fgCancel = nil
		c.mu.Unlock()
		cancel()
	}
}

// EnterTrap marks ctx's derived child as the currently running ERR/
// EXIT trap body, engaging the double-press abort guard instead of
// the single-press cancel Foreground uses.
func (c *InterruptController) EnterTrap(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	c.trapCancel = cancel
	c.mu.Unlock()
	return ctx, func() {
		c.mu.Lock()
		c.trapCancel = nil
		c.pressCount = 0
		c.stopResetTimerLocked()
		c.mu.Unlock()
		cancel()
	}
}

func (c *InterruptController) handleInterrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.trapCancel != nil {
		now := time.Now()
		if c.pressCount > 0 && now.Sub(c.lastPress) < c.timeout {
			c.trapCancel()
			c.pressCount = 0
			c.stopResetTimerLocked()
			return
		}
		c.pressCount = 1
		c.lastPress = now
		c.stopResetTimerLocked()
		c.resetTimer = time.AfterFunc(c.timeout, func() {
			c.mu.Lock()
			c.pressCount = 0
			c.mu.Unlock()
		})
		return
	}

	if c.fgCancel != nil {
		c.fgCancel()
		if c.onForegroundInterrupt != nil {
			c.onForegroundInterrupt()
		}
	}
	// Nothing in the foreground: SIGINT at a bare prompt has nothing to
	// cancel. A ScannerReader blocked on stdin can't be unblocked this
	// way; see shellio.ScannerReader.ReadLine.
}

// SimulateInterrupt delivers a synthetic SIGINT for tests.
func (c *InterruptController) SimulateInterrupt() {
	c.handleInterrupt()
}

func (c *InterruptController) stopResetTimerLocked() {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

// ExitSignal returns the signal value SIGINT cancellation corresponds
// to for `$?` purposes (128 + signal number), per spec.md §5.
const ExitSignal = 128 + int(syscall.SIGINT)
