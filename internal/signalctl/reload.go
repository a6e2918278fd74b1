package signalctl

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ReloadController invokes onReload whenever SIGHUP arrives, adapted
// from the teacher's ReloadHandler. den uses this to re-source
// `.denrc` manually (`kill -HUP $$`) alongside the fsnotify-driven
// watch in internal/rcwatch, which calls the same callback on write.
type ReloadController struct {
	onReload func()

	mu      sync.Mutex
	running bool
	sigCh   chan os.Signal
	stopCh  chan struct{}
}

// NewReloadController builds a controller that calls onReload (which
// may be nil, in which case SIGHUP is simply ignored) on each SIGHUP.
func NewReloadController(onReload func()) *ReloadController {
	return &ReloadController{onReload: onReload}
}

// Start begins listening for SIGHUP. Idempotent.
func (c *ReloadController) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.sigCh = make(chan os.Signal, 1)
	c.stopCh = make(chan struct{})
	signal.Notify(c.sigCh, syscall.SIGHUP)

	sigCh, stopCh := c.sigCh, c.stopCh
	go func() {
		for {
			select {
			case <-stopCh:
				return
			case <-sigCh:
				c.mu.Lock()
				cb := c.onReload
				running := c.running
				c.mu.Unlock()
				if running && cb != nil {
					cb()
				}
			}
		}
	}()
}

// Stop stops listening for SIGHUP. Idempotent.
func (c *ReloadController) Stop() {
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
}

// SimulateReload delivers a synthetic SIGHUP for tests.
func (c *ReloadController) SimulateReload() {
	c.mu.Lock()
	cb := c.onReload
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}
