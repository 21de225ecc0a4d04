package service

import (
	"sync"
	"time"

	"github.com/padimaster/spots/core"
)

// DefaultDisplayWindow is how long success and failed phases stay visible
// before auto-reverting to idle.
const DefaultDisplayWindow = 3 * time.Second

// phaseCell is the idle/pending/success/failed machine shared by the auth
// and payment orchestrators. Every transition is guarded by an operation
// epoch so a torn-down or superseded operation can never mutate state
// that no longer belongs to it.
type phaseCell struct {
	mu     sync.Mutex
	phase  core.Phase
	epoch  uint64
	revert *time.Timer
	window time.Duration
	onIdle func()
}

func newPhaseCell(window time.Duration) *phaseCell {
	if window <= 0 {
		window = DefaultDisplayWindow
	}
	return &phaseCell{phase: core.PhaseIdle, window: window}
}

// current returns the visible phase.
func (c *phaseCell) current() core.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// begin moves to pending and returns the epoch the operation must present
// on every later transition. A pending phase rejects re-submission.
func (c *phaseCell) begin() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == core.PhasePending {
		return 0, false
	}

	c.stopRevert()
	c.epoch++
	c.phase = core.PhasePending
	return c.epoch, true
}

// settle moves to a terminal phase. With autoRevert the phase flips back
// to idle after the display window; without it the phase persists until
// the next begin.
func (c *phaseCell) settle(epoch uint64, phase core.Phase, autoRevert bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}

	c.stopRevert()
	c.phase = phase

	if !autoRevert {
		return
	}

	c.revert = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		stale := epoch != c.epoch
		if !stale {
			c.phase = core.PhaseIdle
			c.revert = nil
		}
		onIdle := c.onIdle
		c.mu.Unlock()

		if !stale && onIdle != nil {
			onIdle()
		}
	})
}

// failDirect is a convenience for a direct idle -> failed transition on
// pre-network validation errors. While an operation is pending it is a
// no-op and reports false: the in-flight operation keeps the phase and
// its epoch stays live.
func (c *phaseCell) failDirect(autoRevert bool) bool {
	c.mu.Lock()
	if c.phase == core.PhasePending {
		c.mu.Unlock()
		return false
	}
	c.stopRevert()
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()
	c.settle(epoch, core.PhaseFailed, autoRevert)
	return true
}

// invalidate bumps the epoch so in-flight operations become stale, and
// resets the phase to idle. Used on teardown.
func (c *phaseCell) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopRevert()
	c.epoch++
	c.phase = core.PhaseIdle
}

// caller must hold mu
func (c *phaseCell) stopRevert() {
	if c.revert != nil {
		c.revert.Stop()
		c.revert = nil
	}
}
