package signalctl

import (
	"context"
	"testing"
	"time"
)

func TestForegroundCancelOnInterrupt(t *testing.T) {
	c := NewInterruptController(50 * time.Millisecond)
	ctx, done := c.Foreground(context.Background())
	defer done()

	c.SimulateInterrupt()

	select {
	case <-ctx.Done():
	default:
		t.Fatalf("foreground context should be cancelled on first SIGINT")
	}
}

func TestTrapRequiresSecondPress(t *testing.T) {
	c := NewInterruptController(100 * time.Millisecond)
	ctx, done := c.EnterTrap(context.Background())
	defer done()

	c.SimulateInterrupt()
	select {
	case <-ctx.Done():
		t.Fatalf("trap should survive a single SIGINT")
	default:
	}

	c.SimulateInterrupt()
	select {
	case <-ctx.Done():
	default:
		t.Fatalf("trap should be aborted by a second SIGINT within the window")
	}
}

func TestTrapPressResetsAfterTimeout(t *testing.T) {
	c := NewInterruptController(20 * time.Millisecond)
	ctx, done := c.EnterTrap(context.Background())
	defer done()

	c.SimulateInterrupt()
	time.Sleep(40 * time.Millisecond)
	c.SimulateInterrupt()

	select {
	case <-ctx.Done():
		t.Fatalf("second press after timeout should count as a fresh first press")
	default:
	}
}

func TestOnForegroundInterruptFiresOnce(t *testing.T) {
	c := NewInterruptController(50 * time.Millisecond)
	calls := 0
	c.SetOnForegroundInterrupt(func() { calls++ })

	ctx, done := c.Foreground(context.Background())
	defer done()

	c.SimulateInterrupt()
	if calls != 1 {
		t.Fatalf("onForegroundInterrupt called %d times, want 1", calls)
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatalf("foreground context should be cancelled")
	}

	// done() cancelling the context on normal completion must not
	// re-fire the callback: it only runs from handleInterrupt.
	done()
	if calls != 1 {
		t.Fatalf("onForegroundInterrupt fired again on release, want still 1")
	}
}

func TestInterruptAtBarePromptIsNoop(t *testing.T) {
	c := NewInterruptController(time.Second)
	c.SimulateInterrupt() // must not panic with nothing in the foreground
}

func TestReloadControllerInvokesCallback(t *testing.T) {
	called := make(chan struct{}, 1)
	c := NewReloadController(func() { called <- struct{}{} })
	c.SimulateReload()
	select {
	case <-called:
	default:
		t.Fatalf("onReload was not invoked")
	}
}
