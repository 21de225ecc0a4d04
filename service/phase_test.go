package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padimaster/spots/core"
)

func TestPhaseCellLifecycle(t *testing.T) {
	c := newPhaseCell(testWindow)
	assert.Equal(t, core.PhaseIdle, c.current())

	epoch, ok := c.begin()
	require.True(t, ok)
	assert.Equal(t, core.PhasePending, c.current())

	// Pending rejects a second operation
	_, ok = c.begin()
	assert.False(t, ok)

	c.settle(epoch, core.PhaseSuccess, true)
	assert.Equal(t, core.PhaseSuccess, c.current())

	require.Eventually(t, func() bool {
		return c.current() == core.PhaseIdle
	}, time.Second, 5*time.Millisecond)
}

func TestPhaseCellPersistentFailure(t *testing.T) {
	c := newPhaseCell(testWindow)

	epoch, ok := c.begin()
	require.True(t, ok)
	c.settle(epoch, core.PhaseFailed, false)

	time.Sleep(3 * testWindow)
	assert.Equal(t, core.PhaseFailed, c.current())

	// A failed phase does not block the next attempt
	_, ok = c.begin()
	assert.True(t, ok)
}

func TestPhaseCellFailDirect(t *testing.T) {
	c := newPhaseCell(testWindow)

	require.True(t, c.failDirect(false))
	assert.Equal(t, core.PhaseFailed, c.current())

	epoch, ok := c.begin()
	require.True(t, ok)

	// Rejected while an operation is pending; the live epoch survives
	assert.False(t, c.failDirect(true))
	assert.Equal(t, core.PhasePending, c.current())

	c.settle(epoch, core.PhaseSuccess, false)
	assert.Equal(t, core.PhaseSuccess, c.current())
}

func TestPhaseCellStaleTransitionsIgnored(t *testing.T) {
	c := newPhaseCell(testWindow)

	epoch, ok := c.begin()
	require.True(t, ok)

	c.invalidate()
	assert.Equal(t, core.PhaseIdle, c.current())

	// The old operation finishing late must not resurface
	c.settle(epoch, core.PhaseSuccess, true)
	assert.Equal(t, core.PhaseIdle, c.current())
}

func TestPhaseCellInvalidateCancelsRevert(t *testing.T) {
	c := newPhaseCell(testWindow)

	var idleCalls int
	c.onIdle = func() { idleCalls++ }

	epoch, _ := c.begin()
	c.settle(epoch, core.PhaseSuccess, true)
	c.invalidate()

	time.Sleep(3 * testWindow)
	assert.Equal(t, core.PhaseIdle, c.current())
	assert.Equal(t, 0, idleCalls)
}
